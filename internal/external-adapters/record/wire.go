package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

var errMissingUpdateNeeded = errors.New("update_needed is required")

// release is a release number written either as a number or as a numeric
// string.
type release int

func (r *release) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	n, err := atoiOptional(raw)
	if err != nil {
		return fmt.Errorf("invalid release %s", data)
	}
	*r = release(n)
	return nil
}

func (r *release) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: release must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*r = 0
		return nil
	}
	n, err := atoiOptional(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid release %q", node.Line, node.Value)
	}
	*r = release(n)
	return nil
}

// wireRecord is the on-disk shape of a decision record. It is more lenient
// than entities.DecisionRecord about release numbers and stricter about
// update_needed, which has to be present.
type wireRecord struct {
	Package        string                `json:"package" yaml:"package"`
	UpdateNeeded   *bool                 `json:"update_needed" yaml:"update_needed"`
	NewVersion     string                `json:"new_version" yaml:"new_version"`
	NewRelease     release               `json:"new_rel" yaml:"new_rel"`
	DownloadLink   string                `json:"download_link" yaml:"download_link"`
	Checksum       string                `json:"checksum" yaml:"checksum"`
	CurrentVersion string                `json:"current_version" yaml:"current_version"`
	CurrentRelease release               `json:"current_rel" yaml:"current_rel"`
	MirrorVersion  string                `json:"mirror_version" yaml:"mirror_version"`
	MirrorRelease  release               `json:"mirror_rel" yaml:"mirror_rel"`
	Reason         entities.UpdateReason `json:"reason" yaml:"reason"`
	Downgrade      bool                  `json:"downgrade" yaml:"downgrade"`
}

func (w *wireRecord) toRecord() (*entities.DecisionRecord, error) {
	if w.UpdateNeeded == nil {
		return nil, errMissingUpdateNeeded
	}
	return &entities.DecisionRecord{
		Package:        w.Package,
		UpdateNeeded:   *w.UpdateNeeded,
		NewVersion:     w.NewVersion,
		NewRelease:     int(w.NewRelease),
		DownloadLink:   w.DownloadLink,
		Checksum:       w.Checksum,
		CurrentVersion: w.CurrentVersion,
		CurrentRelease: int(w.CurrentRelease),
		MirrorVersion:  w.MirrorVersion,
		MirrorRelease:  int(w.MirrorRelease),
		Reason:         w.Reason,
		Downgrade:      w.Downgrade,
	}, nil
}

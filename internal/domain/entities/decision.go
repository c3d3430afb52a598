package entities

import (
	"fmt"
	"strings"
)

// UpdateReason explains why an update is needed
type UpdateReason string

// Update reasons, in the order the policy checks them
const (
	ReasonNone              UpdateReason = ""
	ReasonVersionChanged    UpdateReason = "version_changed"
	ReasonSourceChanged     UpdateReason = "source_changed"
	ReasonManualReleaseBump UpdateReason = "manual_release_bump"
)

// DecisionRecord is the hand-off between the detect and update stages
type DecisionRecord struct {
	Package        string       `json:"package,omitempty" yaml:"package,omitempty"`
	UpdateNeeded   bool         `json:"update_needed" yaml:"update_needed"`
	NewVersion     string       `json:"new_version" yaml:"new_version"`
	NewRelease     int          `json:"new_rel" yaml:"new_rel"`
	DownloadLink   string       `json:"download_link" yaml:"download_link"`
	Checksum       string       `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	CurrentVersion string       `json:"current_version,omitempty" yaml:"current_version,omitempty"`
	CurrentRelease int          `json:"current_rel,omitempty" yaml:"current_rel,omitempty"`
	MirrorVersion  string       `json:"mirror_version,omitempty" yaml:"mirror_version,omitempty"`
	MirrorRelease  int          `json:"mirror_rel,omitempty" yaml:"mirror_rel,omitempty"`
	Reason         UpdateReason `json:"reason,omitempty" yaml:"reason,omitempty"`
	Downgrade      bool         `json:"downgrade,omitempty" yaml:"downgrade,omitempty"`
}

// Target returns the identity the recipe should have after the update
func (r *DecisionRecord) Target() BuildIdentity {
	return BuildIdentity{
		Version:        r.NewVersion,
		Release:        r.NewRelease,
		SourceLocation: r.DownloadLink,
		Checksum:       r.Checksum,
	}
}

// Validate checks that an update record carries everything the updater needs
func (r *DecisionRecord) Validate() error {
	if !r.UpdateNeeded {
		return nil
	}

	var missing []string
	if r.NewVersion == "" {
		missing = append(missing, "new_version")
	}
	if r.NewRelease < 1 {
		missing = append(missing, "new_rel")
	}
	if r.DownloadLink == "" {
		missing = append(missing, "download_link")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: update_needed is true but %s missing", ErrInvalidRecord, strings.Join(missing, ", "))
	}
	return nil
}

// Package record encodes and decodes decision records as JSON, YAML or
// key=value lines.
package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// Format is a decision record serialization
type Format string

// Supported formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatEnv  Format = "env"
)

// ParseFormat converts a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "env", "output":
		return FormatEnv, nil
	default:
		return "", fmt.Errorf("unknown record format %q (want json, yaml or env)", s)
	}
}

// FormatForPath picks a format from the file extension, defaulting to JSON
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML
	case ".env", ".txt":
		return FormatEnv
	default:
		return FormatJSON
	}
}

// Validate checks a decoded record
func Validate(rec *entities.DecisionRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: empty record", entities.ErrInvalidRecord)
	}
	return rec.Validate()
}

// Encode writes rec to w
func Encode(w io.Writer, rec *entities.DecisionRecord, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		return enc.Close()
	case FormatEnv:
		return encodeEnv(w, rec)
	default:
		return fmt.Errorf("unknown record format %q", format)
	}
}

// Decode reads a record from r and validates it
func Decode(r io.Reader, format Format) (*entities.DecisionRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty input", entities.ErrInvalidRecord)
	}

	var rec *entities.DecisionRecord
	switch format {
	case FormatJSON, "":
		var w wireRecord
		if err = json.Unmarshal(data, &w); err == nil {
			rec, err = w.toRecord()
		}
	case FormatYAML:
		var w wireRecord
		if err = yaml.Unmarshal(data, &w); err == nil {
			rec, err = w.toRecord()
		}
	case FormatEnv:
		rec, err = decodeEnv(data)
	default:
		return nil, fmt.Errorf("unknown record format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrInvalidRecord, err)
	}

	if err := Validate(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

type envPair struct {
	key   string
	value string
}

func envPairs(rec *entities.DecisionRecord) []envPair {
	pairs := []envPair{
		{"update_needed", strconv.FormatBool(rec.UpdateNeeded)},
		{"new_version", rec.NewVersion},
		{"new_rel", strconv.Itoa(rec.NewRelease)},
		{"download_link", rec.DownloadLink},
	}

	optional := []envPair{
		{"package", rec.Package},
		{"checksum", rec.Checksum},
		{"current_version", rec.CurrentVersion},
		{"current_rel", itoaKnown(rec.CurrentRelease)},
		{"mirror_version", rec.MirrorVersion},
		{"mirror_rel", itoaKnown(rec.MirrorRelease)},
		{"reason", string(rec.Reason)},
	}
	if rec.Downgrade {
		optional = append(optional, envPair{"downgrade", "true"})
	}
	for _, p := range optional {
		if p.value != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

func itoaKnown(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func encodeEnv(w io.Writer, rec *entities.DecisionRecord) error {
	for _, p := range envPairs(rec) {
		if strings.ContainsAny(p.value, "\r\n") {
			return fmt.Errorf("value of %s contains a line break", p.key)
		}
		if _, err := fmt.Fprintf(w, "%s=%s\n", p.key, p.value); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}
	return nil
}

// decodeEnv reads key=value lines. Unknown keys are ignored so the record can
// share a file with other step outputs; a repeated key keeps its last value.
// Multi-line name<<DELIMITER blocks are read up to the closing delimiter line.
func decodeEnv(data []byte) (*entities.DecisionRecord, error) {
	rec := &entities.DecisionRecord{}
	seenUpdateNeeded := false

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		start := lineNo
		key, value, ok := strings.Cut(line, "=")
		if name, delim, isBlock := strings.Cut(line, "<<"); isBlock && !strings.Contains(name, "=") {
			if delim == "" {
				return nil, fmt.Errorf("line %d: missing delimiter after <<", lineNo)
			}
			var body []string
			closed := false
			for scanner.Scan() {
				lineNo++
				if strings.TrimSpace(scanner.Text()) == delim {
					closed = true
					break
				}
				body = append(body, strings.TrimRight(scanner.Text(), "\r"))
			}
			if !closed {
				if err := scanner.Err(); err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("line %d: %s block is not closed by %s", start, name, delim)
			}
			key, value, ok = name, strings.Join(body, "\n"), true
		}
		if !ok {
			return nil, fmt.Errorf("line %d: expected key=value", lineNo)
		}

		key = strings.TrimSpace(key)
		if key == "update_needed" {
			seenUpdateNeeded = true
		}
		if err := setEnvField(rec, key, value); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", start, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !seenUpdateNeeded {
		return nil, errMissingUpdateNeeded
	}
	return rec, nil
}

func setEnvField(rec *entities.DecisionRecord, key, value string) error {
	var err error
	switch key {
	case "package":
		rec.Package = value
	case "update_needed":
		rec.UpdateNeeded, err = strconv.ParseBool(value)
	case "new_version":
		rec.NewVersion = value
	case "new_rel":
		rec.NewRelease, err = atoiOptional(value)
	case "download_link":
		rec.DownloadLink = value
	case "checksum":
		rec.Checksum = value
	case "current_version":
		rec.CurrentVersion = value
	case "current_rel":
		rec.CurrentRelease, err = atoiOptional(value)
	case "mirror_version":
		rec.MirrorVersion = value
	case "mirror_rel":
		rec.MirrorRelease, err = atoiOptional(value)
	case "reason":
		rec.Reason = entities.UpdateReason(value)
	case "downgrade":
		rec.Downgrade, err = strconv.ParseBool(value)
	}
	return err
}

func atoiOptional(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

package services

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
)

// CompareVersions compares two dotted numeric versions component-wise.
// Returns: 1 if v1 > v2, -1 if v1 < v2, 0 if equal. Missing trailing
// components count as zero, so "1.2" equals "1.2.0".
func CompareVersions(v1, v2 string) (int, error) {
	a, err := goversion.NewVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", v1, err)
	}
	b, err := goversion.NewVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", v2, err)
	}
	return a.Compare(b), nil
}

// IsDowngrade reports whether candidate is numerically older than current.
// Versions that do not parse are never reported as a downgrade.
func IsDowngrade(current, candidate string) bool {
	if current == "" || candidate == "" {
		return false
	}
	cmp, err := CompareVersions(candidate, current)
	if err != nil {
		return false
	}
	return cmp < 0
}

package entities

import "fmt"

// BuildIdentity describes one known state of the package
type BuildIdentity struct {
	Version        string // Empty when unknown
	Release        int    // 0 when unknown
	SourceLocation string // Empty when unknown
	Checksum       string // Hex digest, empty until computed
}

// UnknownIdentity is used when a source could not be read
var UnknownIdentity = BuildIdentity{}

// HasVersion reports whether the version is known
func (b BuildIdentity) HasVersion() bool {
	return b.Version != ""
}

// HasRelease reports whether the release counter is known
func (b BuildIdentity) HasRelease() bool {
	return b.Release > 0
}

// HasSource reports whether the source location is known
func (b BuildIdentity) HasSource() bool {
	return b.SourceLocation != ""
}

// IsUnknown reports whether nothing at all is known about this identity
func (b BuildIdentity) IsUnknown() bool {
	return !b.HasVersion() && !b.HasRelease() && !b.HasSource()
}

func (b BuildIdentity) String() string {
	if b.IsUnknown() {
		return "unknown"
	}
	if b.HasRelease() {
		return fmt.Sprintf("%s-%d", b.Version, b.Release)
	}
	return b.Version
}

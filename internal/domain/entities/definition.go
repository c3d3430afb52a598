package entities

import (
	"path/filepath"
	"strings"
)

// Definition represents a package definition from YAML
type Definition struct {
	Name      string
	Recipe    string // Path to the PKGBUILD, relative to the definition file
	Upstream  UpstreamConfig
	Mirror    MirrorConfig
	Fields    RecipeFields
	Assets    []string // Companion files whose checksums follow the artifact checksum
	Signature SignatureConfig
	BaseDir   string // Directory the definition was loaded from
}

// Upstream source kinds
const (
	UpstreamContentDisposition = "content-disposition"
	UpstreamRedirect           = "redirect"
	UpstreamJSON               = "json"
	UpstreamElectronYAML       = "electron-yaml"
	UpstreamGitHubRelease      = "github-release"
	UpstreamText               = "text"
)

// UpstreamConfig represents how the latest build is discovered
type UpstreamConfig struct {
	Kind             string // One of the Upstream* kinds
	URL              string
	Repo             string // owner/name for github-release
	ExtractPattern   string // Regex to extract version from header, URL or body
	Cleanup          string // Sed-like pattern or simple find:replace to clean up version
	VersionField     string // Dotted path for json
	URLField         string // Dotted path for json
	ChecksumField    string // Dotted path for json, key for electron-yaml
	ChecksumEncoding string // "hex" or "base64"
	AssetPattern     string // Regex on asset names for github-release
	SourceTemplate   string // e.g. "https://example.com/app-{version}.AppImage"
	UserAgent        string
}

// RenderSource fills the {version} placeholder of SourceTemplate
func (u UpstreamConfig) RenderSource(version string) string {
	if u.SourceTemplate == "" {
		return ""
	}
	return strings.ReplaceAll(u.SourceTemplate, "{version}", version)
}

// MirrorConfig represents the third-party recipe used as a cross-check
type MirrorConfig struct {
	URL string
}

// RecipeFields names the recipe keys this tool maintains
type RecipeFields struct {
	Version   string
	Release   string
	Source    string
	Checksums string
}

// SignatureConfig represents optional detached signature verification
type SignatureConfig struct {
	URL     string // Template; {url} and {version} are substituted
	KeyFile string
}

// SignatureURL renders the signature location for an artifact
func (s SignatureConfig) SignatureURL(artifactURL, version string) string {
	return strings.NewReplacer("{url}", artifactURL, "{version}", version).Replace(s.URL)
}

// Enabled reports whether signature verification is configured
func (s SignatureConfig) Enabled() bool {
	return s.URL != "" && s.KeyFile != ""
}

// DefaultRecipeFields returns the field names used by AppImage PKGBUILDs on x86_64
func DefaultRecipeFields() RecipeFields {
	return RecipeFields{
		Version:   "pkgver",
		Release:   "pkgrel",
		Source:    "source_x86_64",
		Checksums: "sha512sums_x86_64",
	}
}

// ResolvePath resolves a path from the definition against its directory
func (d *Definition) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || d.BaseDir == "" {
		return p
	}
	return filepath.Join(d.BaseDir, p)
}

// RecipePath returns the location of the maintained recipe
func (d *Definition) RecipePath() string {
	return d.ResolvePath(d.Recipe)
}

// Package yaml provides YAML-based package definition parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// DefaultRecipe is the recipe file name used when a definition names none
const DefaultRecipe = "PKGBUILD"

// yamlDefinition represents the raw YAML structure
type yamlDefinition struct {
	Name      string        `yaml:"name"`
	Recipe    string        `yaml:"recipe"`
	Upstream  yamlUpstream  `yaml:"upstream"`
	Mirror    yamlMirror    `yaml:"mirror"`
	Fields    yamlFields    `yaml:"fields"`
	Assets    []string      `yaml:"assets"`
	Signature yamlSignature `yaml:"signature"`
}

type yamlUpstream struct {
	Kind             string `yaml:"kind"`
	URL              string `yaml:"url"`
	Repo             string `yaml:"repo"`
	ExtractPattern   string `yaml:"extract_pattern"`
	Cleanup          string `yaml:"cleanup"`
	VersionField     string `yaml:"version_field"`
	URLField         string `yaml:"url_field"`
	ChecksumField    string `yaml:"checksum_field"`
	ChecksumEncoding string `yaml:"checksum_encoding"`
	AssetPattern     string `yaml:"asset_pattern"`
	SourceTemplate   string `yaml:"source_template"`
	UserAgent        string `yaml:"user_agent"`
}

type yamlMirror struct {
	URL string `yaml:"url"`
}

type yamlFields struct {
	Version   string `yaml:"version"`
	Release   string `yaml:"release"`
	Source    string `yaml:"source"`
	Checksums string `yaml:"checksums"`
}

type yamlSignature struct {
	URL     string `yaml:"url"`
	KeyFile string `yaml:"key_file"`
}

// DefinitionParser parses YAML package definitions
type DefinitionParser struct{}

// NewDefinitionParser creates a new YAML parser
func NewDefinitionParser() *DefinitionParser {
	return &DefinitionParser{}
}

// ParseFile parses a YAML definition file. Relative paths inside the
// definition resolve against the file's directory.
func (p *DefinitionParser) ParseFile(filePath string) (*entities.Definition, error) {
	//nolint:gosec // G304: filePath is the definition chosen by the caller
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	def, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	abs, err := filepath.Abs(filepath.Dir(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", filePath, err)
	}
	def.BaseDir = abs

	return def, nil
}

// Parse parses YAML bytes into a Definition entity
func (p *DefinitionParser) Parse(data []byte) (*entities.Definition, error) {
	var yamlDef yamlDefinition
	if err := yaml.Unmarshal(data, &yamlDef); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %w", entities.ErrInvalidDefinition, err)
	}

	def := &entities.Definition{
		Name:     yamlDef.Name,
		Recipe:   yamlDef.Recipe,
		Upstream: convertUpstream(yamlDef.Upstream),
		Mirror:   entities.MirrorConfig{URL: yamlDef.Mirror.URL},
		Fields:   convertFields(yamlDef.Fields),
		Assets:   yamlDef.Assets,
		Signature: entities.SignatureConfig{
			URL:     yamlDef.Signature.URL,
			KeyFile: yamlDef.Signature.KeyFile,
		},
	}
	if def.Recipe == "" {
		def.Recipe = DefaultRecipe
	}

	if err := validate(def); err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrInvalidDefinition, err)
	}

	return def, nil
}

func convertUpstream(yu yamlUpstream) entities.UpstreamConfig {
	return entities.UpstreamConfig{
		Kind:             yu.Kind,
		URL:              yu.URL,
		Repo:             yu.Repo,
		ExtractPattern:   yu.ExtractPattern,
		Cleanup:          yu.Cleanup,
		VersionField:     yu.VersionField,
		URLField:         yu.URLField,
		ChecksumField:    yu.ChecksumField,
		ChecksumEncoding: yu.ChecksumEncoding,
		AssetPattern:     yu.AssetPattern,
		SourceTemplate:   yu.SourceTemplate,
		UserAgent:        yu.UserAgent,
	}
}

// convertFields fills unset field names from the defaults
func convertFields(yf yamlFields) entities.RecipeFields {
	fields := entities.DefaultRecipeFields()
	if yf.Version != "" {
		fields.Version = yf.Version
	}
	if yf.Release != "" {
		fields.Release = yf.Release
	}
	if yf.Source != "" {
		fields.Source = yf.Source
	}
	if yf.Checksums != "" {
		fields.Checksums = yf.Checksums
	}
	return fields
}

func validate(def *entities.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("definition must have a name")
	}

	up := def.Upstream
	switch up.Kind {
	case "":
		return fmt.Errorf("upstream.kind is required")
	case entities.UpstreamGitHubRelease:
		if up.Repo == "" {
			return fmt.Errorf("upstream.repo is required for %s", up.Kind)
		}
	case entities.UpstreamContentDisposition, entities.UpstreamRedirect, entities.UpstreamText:
		if up.URL == "" {
			return fmt.Errorf("upstream.url is required for %s", up.Kind)
		}
	case entities.UpstreamJSON:
		if up.URL == "" || up.VersionField == "" {
			return fmt.Errorf("upstream.url and upstream.version_field are required for %s", up.Kind)
		}
	case entities.UpstreamElectronYAML:
		if up.URL == "" {
			return fmt.Errorf("upstream.url is required for %s", up.Kind)
		}
	default:
		return fmt.Errorf("unknown upstream.kind %q", up.Kind)
	}

	if up.Kind == entities.UpstreamText && up.ExtractPattern == "" {
		return fmt.Errorf("upstream.extract_pattern is required for %s", up.Kind)
	}

	if up.SourceTemplate == "" {
		switch up.Kind {
		case entities.UpstreamText:
			return fmt.Errorf("upstream.source_template is required for %s", up.Kind)
		case entities.UpstreamJSON:
			if up.URLField == "" {
				return fmt.Errorf("upstream.url_field or upstream.source_template is required for %s", up.Kind)
			}
		case entities.UpstreamGitHubRelease:
			if up.AssetPattern == "" {
				return fmt.Errorf("upstream.asset_pattern or upstream.source_template is required for %s", up.Kind)
			}
		}
	}

	for name, pattern := range map[string]string{
		"upstream.extract_pattern": up.ExtractPattern,
		"upstream.asset_pattern":   up.AssetPattern,
	} {
		if pattern == "" {
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	switch up.ChecksumEncoding {
	case "", "hex", "base64":
	default:
		return fmt.Errorf("upstream.checksum_encoding must be hex or base64, got %q", up.ChecksumEncoding)
	}

	if def.Fields.Checksums != "" {
		if _, err := entities.AlgorithmForField(def.Fields.Checksums); err != nil {
			return fmt.Errorf("fields.checksums: %w", err)
		}
	}

	if (def.Signature.URL == "") != (def.Signature.KeyFile == "") {
		return fmt.Errorf("signature.url and signature.key_file must be set together")
	}

	return nil
}

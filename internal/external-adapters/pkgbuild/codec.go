package pkgbuild

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ochairo/pkgbump/internal/domain/entities"
)

// Codec implements repositories.RecipeCodec for PKGBUILD files
type Codec struct{}

// NewCodec creates a new PKGBUILD codec
func NewCodec() *Codec {
	return &Codec{}
}

// ParseIdentity reads the build identity recorded in a recipe. Version,
// release and source are required; the checksum is optional.
func (c *Codec) ParseIdentity(data []byte, fields entities.RecipeFields) (entities.BuildIdentity, error) {
	doc, err := Parse(data)
	if err != nil {
		return entities.UnknownIdentity, fmt.Errorf("%w: %w", entities.ErrRecipeMalformed, err)
	}

	var id entities.BuildIdentity

	version, err := requireValue(doc, fields.Version)
	if err != nil {
		return entities.UnknownIdentity, err
	}
	id.Version = version

	rel, err := requireValue(doc, fields.Release)
	if err != nil {
		return entities.UnknownIdentity, err
	}
	id.Release, err = strconv.Atoi(rel)
	if err != nil || id.Release < 1 {
		return entities.UnknownIdentity, fmt.Errorf("%w: %s=%q is not a positive integer", entities.ErrRecipeMalformed, fields.Release, rel)
	}

	source, err := requireValue(doc, fields.Source)
	if err != nil {
		return entities.UnknownIdentity, err
	}
	id.SourceLocation = stripRename(source)

	if fields.Checksums != "" {
		if a, ok := doc.Get(fields.Checksums); ok {
			id.Checksum = strings.ToLower(a.Value())
		}
	}

	return id, nil
}

// ChecksumEntries returns every entry of the checksum field
func (c *Codec) ChecksumEntries(data []byte, field string) ([]string, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrRecipeMalformed, err)
	}
	a, ok := doc.Get(field)
	if !ok {
		return nil, fmt.Errorf("%w: field %s not found", entities.ErrRecipeMalformed, field)
	}
	return a.Values, nil
}

// Rewrite replaces version, release, source and checksum fields. Each field
// keeps its layout: quoting, single or multi-line arrays, and any rename
// prefix on the source entry.
func (c *Codec) Rewrite(data []byte, fields entities.RecipeFields, change entities.RecipeChange) ([]byte, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrRecipeMalformed, err)
	}

	var edits []Edit

	versionField, err := requireField(doc, fields.Version)
	if err != nil {
		return nil, err
	}
	edits = append(edits, Edit{
		Name: fields.Version,
		Text: RenderScalar(fields.Version, quoteLike(versionField.rawFirst(), change.Version)),
	})

	releaseField, err := requireField(doc, fields.Release)
	if err != nil {
		return nil, err
	}
	edits = append(edits, Edit{
		Name: fields.Release,
		Text: RenderScalar(fields.Release, quoteLike(releaseField.rawFirst(), strconv.Itoa(change.Release))),
	})

	sourceField, err := requireField(doc, fields.Source)
	if err != nil {
		return nil, err
	}
	edits = append(edits, Edit{Name: fields.Source, Text: renderSource(sourceField, change.Source)})

	if fields.Checksums != "" && change.ArtifactChecksum != "" {
		sumsField, err := requireField(doc, fields.Checksums)
		if err != nil {
			return nil, err
		}
		edits = append(edits, Edit{Name: fields.Checksums, Text: renderChecksums(sumsField, change)})
	}

	out, err := doc.Apply(edits...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrRecipeMalformed, err)
	}
	return out, nil
}

func renderSource(a *Assignment, url string) string {
	if !a.IsArray {
		return RenderScalar(a.Name, replaceSourceURL(a.rawFirst(), url))
	}
	if len(a.Raw) == 0 {
		return RenderArray(a.Name, []string{DoubleQuote(url)}, false)
	}
	elems := append([]string{replaceSourceURL(a.Raw[0], url)}, a.Raw[1:]...)
	return RenderArray(a.Name, elems, a.MultiLine())
}

func renderChecksums(a *Assignment, change entities.RecipeChange) string {
	style := "'"
	if raw := a.rawFirst(); raw != "" {
		style = raw
	}

	if !a.IsArray {
		return RenderScalar(a.Name, quoteLike(style, change.ArtifactChecksum))
	}

	elems := []string{quoteLike(style, change.ArtifactChecksum)}
	if change.AssetChecksums == nil {
		if len(a.Raw) > 1 {
			elems = append(elems, a.Raw[1:]...)
		}
	} else {
		for _, sum := range change.AssetChecksums {
			elems = append(elems, quoteLike(style, sum))
		}
	}

	return RenderArray(a.Name, elems, a.MultiLine())
}

func requireField(doc *Document, name string) (*Assignment, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: no field name configured", entities.ErrRecipeMalformed)
	}
	a, ok := doc.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: field %s not found", entities.ErrRecipeMalformed, name)
	}
	return a, nil
}

func requireValue(doc *Document, name string) (string, error) {
	a, err := requireField(doc, name)
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(a.Value())
	if v == "" {
		return "", fmt.Errorf("%w: field %s is empty", entities.ErrRecipeMalformed, name)
	}
	return v, nil
}

// Package pkgbuild parses and rewrites PKGBUILD recipes.
//
// Recipes are parsed with a real shell parser so that values spanning several
// lines, quoting and ${var} references are understood. Rewriting replaces the
// whole line block of an assignment and copies every other line verbatim.
package pkgbuild

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// Assignment is a top-level "name=value" or "name=(values...)" statement
type Assignment struct {
	Name      string
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive
	IsArray   bool
	Raw       []string // Source text of the value, one entry per array element
	Values    []string // Values after quote removal and parameter expansion
	shared    bool     // Another statement shares one of its lines
}

// MultiLine reports whether the assignment spans more than one line
func (a *Assignment) MultiLine() bool {
	return a.EndLine > a.StartLine
}

// Value returns the scalar value, or the first element of an array
func (a *Assignment) Value() string {
	if len(a.Values) == 0 {
		return ""
	}
	return a.Values[0]
}

func (a *Assignment) rawFirst() string {
	if len(a.Raw) == 0 {
		return ""
	}
	return a.Raw[0]
}

// Document is a parsed recipe that keeps its original text
type Document struct {
	src   []byte
	vars  map[string]*Assignment
	order []*Assignment
}

// Parse parses recipe text
func Parse(data []byte) (*Document, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(true))
	file, err := parser.Parse(bytes.NewReader(data), "PKGBUILD")
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}

	doc := &Document{
		src:  data,
		vars: make(map[string]*Assignment),
	}

	lineOwner := make(map[int]int)
	env := make(map[string]string)

	for i, stmt := range file.Stmts {
		start, end := int(stmt.Pos().Line()), int(stmt.End().Line())
		shared := false
		for l := start; l <= end; l++ {
			if _, taken := lineOwner[l]; taken {
				shared = true
				markShared(doc.order, l)
			}
			lineOwner[l] = i
		}

		call, ok := stmt.Cmd.(*syntax.CallExpr)
		if !ok || len(call.Args) > 0 {
			continue
		}

		for _, as := range call.Assigns {
			if as.Name == nil || as.Index != nil || as.Append {
				continue
			}
			a := &Assignment{
				Name:      as.Name.Value,
				StartLine: start,
				EndLine:   end,
				shared:    shared || len(call.Assigns) > 1,
			}
			cfg := &expand.Config{Env: environ(env)}

			if as.Array != nil {
				a.IsArray = true
				for _, elem := range as.Array.Elems {
					if elem.Value == nil {
						continue
					}
					a.Raw = append(a.Raw, doc.text(elem.Value))
					a.Values = append(a.Values, literal(cfg, elem.Value, doc.text(elem.Value)))
				}
			} else if as.Value != nil {
				a.Raw = []string{doc.text(as.Value)}
				a.Values = []string{literal(cfg, as.Value, doc.text(as.Value))}
			} else {
				a.Raw = []string{""}
				a.Values = []string{""}
			}

			// $name on an array yields its first element
			env[a.Name] = a.Value()
			doc.vars[a.Name] = a
			doc.order = append(doc.order, a)
		}
	}

	return doc, nil
}

// Get returns the last top-level assignment of name
func (d *Document) Get(name string) (*Assignment, bool) {
	a, ok := d.vars[name]
	return a, ok
}

// Names returns assigned names in order of first appearance
func (d *Document) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, a := range d.order {
		if !seen[a.Name] {
			seen[a.Name] = true
			names = append(names, a.Name)
		}
	}
	return names
}

// Edit replaces the line block of an assignment with Text
type Edit struct {
	Name string
	Text string // Without trailing newline
}

// Apply returns the document text with every edit applied. Lines outside the
// edited blocks are copied byte for byte.
func (d *Document) Apply(edits ...Edit) ([]byte, error) {
	type span struct {
		start, end int
		text       string
	}

	spans := make([]span, 0, len(edits))
	for _, e := range edits {
		a, ok := d.vars[e.Name]
		if !ok {
			return nil, fmt.Errorf("field %s not found", e.Name)
		}
		if a.shared {
			return nil, fmt.Errorf("field %s shares a line with another statement", e.Name)
		}
		spans = append(spans, span{start: a.StartLine, end: a.EndLine, text: e.Text})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start <= spans[i-1].end {
			return nil, fmt.Errorf("overlapping edits at line %d", spans[i].start)
		}
	}

	lines := bytes.SplitAfter(d.src, []byte("\n"))
	var out bytes.Buffer
	out.Grow(len(d.src))

	next := 0
	for i, line := range lines {
		lineNo := i + 1
		if next < len(spans) && lineNo >= spans[next].start && lineNo <= spans[next].end {
			if lineNo == spans[next].end {
				out.WriteString(spans[next].text)
				if bytes.HasSuffix(line, []byte("\n")) {
					out.WriteByte('\n')
				}
				next++
			}
			continue
		}
		out.Write(line)
	}

	return out.Bytes(), nil
}

func (d *Document) text(n syntax.Node) string {
	start, end := int(n.Pos().Offset()), int(n.End().Offset())
	if start < 0 || end > len(d.src) || start > end {
		return ""
	}
	return string(d.src[start:end])
}

func markShared(order []*Assignment, line int) {
	for _, a := range order {
		if line >= a.StartLine && line <= a.EndLine {
			a.shared = true
		}
	}
}

func environ(env map[string]string) expand.Environ {
	pairs := make([]string, 0, len(env))
	for k, v := range env {
		pairs = append(pairs, k+"="+v)
	}
	return expand.ListEnviron(pairs...)
}

// literal expands a word, falling back to its raw text when expansion needs
// to run commands
func literal(cfg *expand.Config, w *syntax.Word, raw string) string {
	v, err := expand.Literal(cfg, w)
	if err != nil {
		return strings.Trim(raw, `"'`)
	}
	return v
}

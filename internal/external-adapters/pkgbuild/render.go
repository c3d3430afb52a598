package pkgbuild

import (
	"strings"
)

// SingleQuote quotes v for bash without allowing any expansion
func SingleQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

// DoubleQuote quotes v for bash, escaping the characters that stay special
// inside double quotes
func DoubleQuote(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")
	return `"` + r.Replace(v) + `"`
}

// quoteLike quotes v with the same quote character raw uses. Bare words that
// need no quoting stay bare.
func quoteLike(raw, v string) string {
	switch {
	case strings.HasPrefix(raw, `"`):
		return DoubleQuote(v)
	case strings.HasPrefix(raw, "'"):
		return SingleQuote(v)
	case raw != "" && isBareWord(v):
		return v
	default:
		return SingleQuote(v)
	}
}

// isBareWord reports whether v can be written without quotes
func isBareWord(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("._+-:/@%,=", r):
		default:
			return false
		}
	}
	return true
}

// RenderScalar renders "name=value"
func RenderScalar(name, quotedValue string) string {
	return name + "=" + quotedValue
}

// RenderArray renders "name=(a b c)", or one element per line aligned under
// the first when multiLine is set:
//
//	sha512sums=('a'
//	            'b')
func RenderArray(name string, quoted []string, multiLine bool) string {
	if !multiLine || len(quoted) < 2 {
		return name + "=(" + strings.Join(quoted, " ") + ")"
	}
	indent := "\n" + strings.Repeat(" ", len(name)+2)
	return name + "=(" + strings.Join(quoted, indent) + ")"
}

// replaceSourceURL swaps the URL inside a raw source element, keeping a
// "name::" rename prefix and the quoting style
func replaceSourceURL(raw, url string) string {
	quote := ""
	body := raw
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		quote = raw[:1]
		body = raw[1 : len(raw)-1]
	}

	prefix := ""
	if idx := strings.Index(body, "::"); idx >= 0 && !strings.Contains(body[:idx], "/") {
		prefix = body[:idx+2]
	}

	switch {
	case quote == "'":
		return "'" + prefix + strings.ReplaceAll(url, "'", `'\''`) + "'"
	case quote == `"` || prefix != "":
		inner := DoubleQuote(url)
		return `"` + prefix + inner[1:]
	default:
		return DoubleQuote(url)
	}
}

// stripRename removes a "name::" rename prefix from a source value
func stripRename(v string) string {
	if idx := strings.Index(v, "::"); idx >= 0 && !strings.Contains(v[:idx], "/") {
		return v[idx+2:]
	}
	return v
}

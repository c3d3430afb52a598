package pkgbuild

import (
	"strings"
	"testing"
)

func TestParse_Assignments(t *testing.T) {
	doc, err := Parse([]byte(cursorRecipe))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		name      string
		wantValue string
		wantArray bool
		wantLines [2]int
	}{
		{"pkgname", "cursor-bin", false, [2]int{2, 2}},
		{"pkgver", "0.47.3", false, [2]int{3, 3}},
		{"pkgrel", "2", false, [2]int{4, 4}},
		{"pkgdesc", "AI-first code editor", false, [2]int{5, 5}},
		{"_appimage", "cursor-bin-0.47.3.AppImage", false, [2]int{11, 11}},
		{"source_x86_64", "cursor-bin-0.47.3.AppImage::https://downloads.example.com/cursor-0.47.3-x86_64.AppImage", true, [2]int{12, 12}},
		{"sha512sums_x86_64", "1111aaaa", true, [2]int{14, 17}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := doc.Get(tt.name)
			if !ok {
				t.Fatalf("Get(%q) not found", tt.name)
			}
			if a.Value() != tt.wantValue {
				t.Errorf("Value() = %q, want %q", a.Value(), tt.wantValue)
			}
			if a.IsArray != tt.wantArray {
				t.Errorf("IsArray = %v, want %v", a.IsArray, tt.wantArray)
			}
			if a.StartLine != tt.wantLines[0] || a.EndLine != tt.wantLines[1] {
				t.Errorf("lines = %d-%d, want %d-%d", a.StartLine, a.EndLine, tt.wantLines[0], tt.wantLines[1])
			}
		})
	}
}

func TestParse_ArrayElements(t *testing.T) {
	doc, err := Parse([]byte(cursorRecipe))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	a, _ := doc.Get("sha512sums_x86_64")
	if len(a.Values) != 4 {
		t.Fatalf("len(Values) = %d, want 4", len(a.Values))
	}
	if a.Raw[1] != "'2222bbbb'" {
		t.Errorf("Raw[1] = %q, want quoted source text", a.Raw[1])
	}
	if !a.MultiLine() {
		t.Error("MultiLine() = false, want true")
	}

	src, _ := doc.Get("source_x86_64")
	if src.Values[3] != "cursor-bin.sh" {
		t.Errorf("Values[3] = %q, want expanded cursor-bin.sh", src.Values[3])
	}
}

func TestParse_FunctionBodiesIgnored(t *testing.T) {
	data := `pkgver=1.0
build() {
    pkgver=9.9
}
`
	doc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	a, _ := doc.Get("pkgver")
	if a.Value() != "1.0" {
		t.Errorf("pkgver = %q, want top-level value 1.0", a.Value())
	}
	if got := doc.Names(); len(got) != 1 {
		t.Errorf("Names() = %v, want only pkgver", got)
	}
}

func TestParse_InvalidSyntax(t *testing.T) {
	if _, err := Parse([]byte("pkgver=(1.0\n")); err == nil {
		t.Error("Parse() expected error for unterminated array")
	}
}

func TestApply_PreservesOtherLines(t *testing.T) {
	doc, err := Parse([]byte(cursorRecipe))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	out, err := doc.Apply(
		Edit{Name: "pkgver", Text: "pkgver=0.48.0"},
		Edit{Name: "sha512sums_x86_64", Text: "sha512sums_x86_64=('x')"},
	)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	oldLines := strings.Split(cursorRecipe, "\n")
	newLines := strings.Split(string(out), "\n")
	if len(newLines) != len(oldLines)-3 {
		t.Fatalf("line count = %d, want %d", len(newLines), len(oldLines)-3)
	}
	if newLines[2] != "pkgver=0.48.0" {
		t.Errorf("line 3 = %q", newLines[2])
	}
	if newLines[13] != "sha512sums_x86_64=('x')" {
		t.Errorf("line 14 = %q", newLines[13])
	}
	for i := 0; i < 13; i++ {
		if i == 2 {
			continue
		}
		if newLines[i] != oldLines[i] {
			t.Errorf("line %d changed: %q -> %q", i+1, oldLines[i], newLines[i])
		}
	}
	if !strings.HasSuffix(string(out), "}\n") {
		t.Error("trailing content not preserved")
	}
}

func TestApply_NoTrailingNewline(t *testing.T) {
	doc, err := Parse([]byte("pkgver=1.0\npkgrel=1"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out, err := doc.Apply(Edit{Name: "pkgrel", Text: "pkgrel=2"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if string(out) != "pkgver=1.0\npkgrel=2" {
		t.Errorf("Apply() = %q", out)
	}
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		edits []Edit
	}{
		{
			name:  "unknown field",
			data:  "pkgver=1.0\n",
			edits: []Edit{{Name: "pkgrel", Text: "pkgrel=1"}},
		},
		{
			name:  "statements share a line",
			data:  "pkgver=1.0; pkgrel=1\n",
			edits: []Edit{{Name: "pkgver", Text: "pkgver=2.0"}},
		},
		{
			name:  "several assignments in one statement",
			data:  "pkgver=1.0 pkgrel=1\n",
			edits: []Edit{{Name: "pkgrel", Text: "pkgrel=2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.data))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if _, err := doc.Apply(tt.edits...); err == nil {
				t.Error("Apply() expected error")
			}
		})
	}
}

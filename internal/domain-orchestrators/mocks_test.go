package orchestrators

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ochairo/pkgbump/internal/domain/entities"
)

const testRecipe = `pkgname=cursor-bin
pkgver=0.47.3
pkgrel=2
arch=('x86_64')
_appimage="${pkgname}-${pkgver}.AppImage"
source_x86_64=("${_appimage}::https://downloads.example.com/cursor-0.47.3-x86_64.AppImage" "cursor.png" "${pkgname}.sh")
sha512sums_x86_64=('1111aaaa'
                   '2222bbbb'
                   '3333cccc')

package() {
    install -Dm755 "${srcdir}/${_appimage}" "${pkgdir}/opt/${pkgname}/${pkgname}.AppImage"
}
`

const (
	oldLink = "https://downloads.example.com/cursor-0.47.3-x86_64.AppImage"
	newLink = "https://downloads.example.com/cursor-0.47.4-x86_64.AppImage"
)

// Mock implementations for testing
type mockUpstream struct {
	identity entities.BuildIdentity
	err      error
}

func (m *mockUpstream) FetchUpstream(_ context.Context, _ *entities.Definition) (entities.BuildIdentity, error) {
	if m.err != nil {
		return entities.UnknownIdentity, m.err
	}
	return m.identity, nil
}

type mockMirror struct {
	identity entities.BuildIdentity
	err      error
	calls    int
}

func (m *mockMirror) FetchMirror(_ context.Context, _ *entities.Definition) (entities.BuildIdentity, error) {
	m.calls++
	if m.err != nil {
		return entities.UnknownIdentity, m.err
	}
	return m.identity, nil
}

type memoryRecipes struct {
	path    string
	data    []byte
	readErr error
	writes  int
}

func (m *memoryRecipes) Path() string { return m.path }

func (m *memoryRecipes) Read(_ context.Context) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memoryRecipes) Write(_ context.Context, data []byte) error {
	m.writes++
	m.data = append([]byte(nil), data...)
	return nil
}

type mockChecksums struct {
	mu        sync.Mutex
	checksum  string
	err       error
	downloads []string
	files     []string
}

func (m *mockChecksums) CalculateFile(path string, _ entities.DigestAlgorithm) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, filepath.Base(path))
	return "asset" + strings.ReplaceAll(filepath.Base(path), ".", ""), nil
}

func (m *mockChecksums) DownloadArtifact(_ context.Context, url, dest string, _ entities.DigestAlgorithm) (*entities.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads = append(m.downloads, url)
	if m.err != nil {
		return nil, m.err
	}
	if dest != "" {
		if err := os.WriteFile(dest, []byte("artifact"), 0o644); err != nil {
			return nil, err
		}
	}
	return &entities.Artifact{URL: url, Path: dest, Size: 8, Checksum: m.checksum}, nil
}

type mockVerifier struct {
	err     error
	sigURL  string
	keyFile string
	existed bool
}

func (m *mockVerifier) VerifyArtifact(_ context.Context, artifactPath, sigURL, keyFile string) error {
	m.sigURL = sigURL
	m.keyFile = keyFile
	_, statErr := os.Stat(artifactPath)
	m.existed = statErr == nil
	return m.err
}

var errBoom = errors.New("boom")

func testDefinition() *entities.Definition {
	return &entities.Definition{
		Name:   "cursor-bin",
		Recipe: "PKGBUILD",
		Upstream: entities.UpstreamConfig{
			Kind: entities.UpstreamContentDisposition,
			URL:  "https://downloads.example.com/latest",
		},
		Mirror: entities.MirrorConfig{URL: "https://mirror.example.com/PKGBUILD"},
		Fields: entities.DefaultRecipeFields(),
	}
}

package gpg

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

type testKey struct {
	entity  *openpgp.Entity
	keyPath string
}

// newTestKey generates a signing key and writes its armored public part
func newTestKey(t *testing.T) testKey {
	t.Helper()

	entity, err := openpgp.NewEntity("Test Signer", "", "signer@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity() error = %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor.Encode() error = %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	keyPath := filepath.Join(t.TempDir(), "signer.asc")
	if err := os.WriteFile(keyPath, buf.Bytes(), 0600); err != nil {
		t.Fatalf("Failed to write key: %v", err)
	}
	return testKey{entity: entity, keyPath: keyPath}
}

func (k testKey) sign(t *testing.T, data []byte, armored bool) []byte {
	t.Helper()
	var sig bytes.Buffer
	var err error
	if armored {
		err = openpgp.ArmoredDetachSign(&sig, k.entity, bytes.NewReader(data), nil)
	} else {
		err = openpgp.DetachSign(&sig, k.entity, bytes.NewReader(data), nil)
	}
	if err != nil {
		t.Fatalf("sign error = %v", err)
	}
	return sig.Bytes()
}

func writeArtifact(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.AppImage")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write artifact: %v", err)
	}
	return path
}

func TestVerifier_VerifySignature(t *testing.T) {
	key := newTestKey(t)
	artifact := []byte("appimage payload")
	artifactPath := writeArtifact(t, artifact)

	tests := []struct {
		name    string
		sig     []byte
		wantErr bool
	}{
		{"armored", key.sign(t, artifact, true), false},
		{"binary", key.sign(t, artifact, false), false},
		{"other content", key.sign(t, []byte("tampered"), true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write(tt.sig)
			}))
			defer server.Close()

			v := NewVerifier(server.Client(), "pkgbump-test")
			if err := v.ImportKeyFromFile(key.keyPath); err != nil {
				t.Fatalf("ImportKeyFromFile() error = %v", err)
			}

			err := v.VerifySignature(context.Background(), artifactPath, server.URL+"/artifact.sig")
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifySignature() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifier_VerifySignature_UnknownKey(t *testing.T) {
	signer := newTestKey(t)
	other := newTestKey(t)
	artifact := []byte("payload")
	artifactPath := writeArtifact(t, artifact)

	sigPath := filepath.Join(t.TempDir(), "artifact.sig")
	if err := os.WriteFile(sigPath, signer.sign(t, artifact, true), 0600); err != nil {
		t.Fatalf("Failed to write signature: %v", err)
	}

	v := NewVerifier(nil, "")
	if err := v.ImportKeyFromFile(other.keyPath); err != nil {
		t.Fatalf("ImportKeyFromFile() error = %v", err)
	}
	if err := v.VerifySignatureFromFile(artifactPath, sigPath); err == nil {
		t.Error("VerifySignatureFromFile() should fail for a key outside the keyring")
	}
}

func TestVerifier_VerifySignature_HTTPError(t *testing.T) {
	key := newTestKey(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	v := NewVerifier(server.Client(), "")
	if err := v.ImportKeyFromFile(key.keyPath); err != nil {
		t.Fatalf("ImportKeyFromFile() error = %v", err)
	}

	err := v.VerifySignature(context.Background(), writeArtifact(t, []byte("x")), server.URL)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("VerifySignature() error = %v, want status 404", err)
	}
}

func TestVerifier_NoKeysImported(t *testing.T) {
	v := NewVerifier(nil, "")
	if err := v.VerifySignature(context.Background(), "/tmp/file", "http://127.0.0.1/sig"); err == nil {
		t.Error("VerifySignature() should fail without keys")
	}
	if err := v.VerifySignatureFromFile("/tmp/file", "/tmp/sig"); err == nil {
		t.Error("VerifySignatureFromFile() should fail without keys")
	}
}

func TestVerifier_ImportKeyFromFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	garbage := filepath.Join(tmpDir, "garbage.asc")
	if err := os.WriteFile(garbage, []byte("not a key"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantMsg string
	}{
		{"nonexistent", filepath.Join(tmpDir, "missing.asc"), "failed to open key file"},
		{"garbage", garbage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(nil, "")
			err := v.ImportKeyFromFile(tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("ImportKeyFromFile() error = %v, want %q", err, tt.wantMsg)
			}
			if v.KeyringSize() != 0 {
				t.Errorf("KeyringSize() = %d, want 0", v.KeyringSize())
			}
		})
	}
}

// Package gpg provides detached OpenPGP signature verification.
package gpg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// armorHeader prefixes ASCII-armored signatures
const armorHeader = "-----BEGIN PGP SIGNATURE-----"

// maxSignatureSize bounds downloaded signatures; real ones are well under 1KB
const maxSignatureSize = 64 * 1024

// Verifier checks detached signatures using ProtonMail's go-crypto,
// a maintained fork of golang.org/x/crypto/openpgp
type Verifier struct {
	keyring    openpgp.EntityList
	httpClient *http.Client
	userAgent  string
}

// NewVerifier creates a new verifier. A nil client gets a 30 second timeout.
func NewVerifier(client *http.Client, userAgent string) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Verifier{
		keyring:    make(openpgp.EntityList, 0),
		httpClient: client,
		userAgent:  userAgent,
	}
}

// ImportKeyFromFile imports public keys from an armored or binary key file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath comes from the package definition
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found in file")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// VerifySignature downloads a detached signature and checks it against filePath
func (v *Verifier) VerifySignature(ctx context.Context, filePath, sigURL string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no keys imported")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sigURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create signature download request: %w", err)
	}
	if v.userAgent != "" {
		req.Header.Set("User-Agent", v.userAgent)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download signature: %w", err)
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signature download failed with status %d", resp.StatusCode)
	}

	sigData, err := io.ReadAll(io.LimitReader(resp.Body, maxSignatureSize))
	if err != nil {
		return fmt.Errorf("failed to read signature: %w", err)
	}

	return v.verify(filePath, sigData)
}

// VerifySignatureFromFile checks a detached signature stored next to the file
func (v *Verifier) VerifySignatureFromFile(filePath, sigPath string) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no keys imported")
	}

	//nolint:gosec // G304: sigPath is chosen by the caller
	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature file: %w", err)
	}

	return v.verify(filePath, sigData)
}

func (v *Verifier) verify(filePath string, sigData []byte) error {
	if len(sigData) < 10 {
		return fmt.Errorf("signature too small to be valid")
	}

	//nolint:gosec // G304: filePath is the downloaded artifact
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	var verifyErr error
	if bytes.HasPrefix(bytes.TrimSpace(sigData), []byte(armorHeader)) {
		_, verifyErr = openpgp.CheckArmoredDetachedSignature(v.keyring, f, bytes.NewReader(sigData), nil)
	} else {
		_, verifyErr = openpgp.CheckDetachedSignature(v.keyring, f, bytes.NewReader(sigData), nil)
	}

	if verifyErr != nil {
		return fmt.Errorf("signature verification failed: %w", verifyErr)
	}

	return nil
}

// KeyringSize returns the number of keys in the keyring
func (v *Verifier) KeyringSize() int {
	return len(v.keyring)
}

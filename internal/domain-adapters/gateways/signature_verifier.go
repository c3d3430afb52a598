package gateways

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"github.com/ochairo/pkgbump/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external GPG adapter to implement the domain gateway interface
type gpgVerifier struct {
	client    *http.Client
	userAgent string
}

// NewGPGVerifier creates a new GPG verifier gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier(client *http.Client, userAgent string) *gpgVerifier {
	return &gpgVerifier{client: client, userAgent: userAgent}
}

// VerifyArtifact checks the detached signature at sigURL with the keys in keyFile
func (g *gpgVerifier) VerifyArtifact(ctx context.Context, artifactPath, sigURL, keyFile string) error {
	verifier := gpg.NewVerifier(g.client, g.userAgent)
	if err := verifier.ImportKeyFromFile(keyFile); err != nil {
		return fmt.Errorf("%w: failed to import key from %s: %w", entities.ErrSignatureInvalid, keyFile, err)
	}

	if err := verifier.VerifySignature(ctx, artifactPath, sigURL); err != nil {
		return fmt.Errorf("%w: %w", entities.ErrSignatureInvalid, err)
	}
	return nil
}

package gateways

import (
	"context"
	"crypto/md5"  //nolint:gosec // G501: md5sums is a recipe format, not a security boundary
	"crypto/sha1" //nolint:gosec // G505: sha1sums is a recipe format, not a security boundary
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"golang.org/x/crypto/blake2b"
)

// checksumCalculator implements checksum calculation using pure Go
type checksumCalculator struct {
	fetcher *HTTPFetcher
}

// NewChecksumCalculator creates a calculator that downloads through fetcher
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumCalculator(fetcher *HTTPFetcher) *checksumCalculator {
	return &checksumCalculator{fetcher: fetcher}
}

// NewHash returns a fresh hash for a recipe digest algorithm
func NewHash(algo entities.DigestAlgorithm) (hash.Hash, error) {
	switch algo {
	case entities.DigestMD5:
		return md5.New(), nil //nolint:gosec // G401: see import
	case entities.DigestSHA1:
		return sha1.New(), nil //nolint:gosec // G401: see import
	case entities.DigestSHA256:
		return sha256.New(), nil
	case entities.DigestSHA512:
		return sha512.New(), nil
	case entities.DigestB2:
		return blake2b.New512(nil)
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q", algo)
	}
}

// CalculateFile digests a file on disk
func (c *checksumCalculator) CalculateFile(filePath string, algo entities.DigestAlgorithm) (string, error) {
	h, err := NewHash(algo)
	if err != nil {
		return "", err
	}

	//nolint:gosec // G304: File path comes from the package definition
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// DownloadArtifact streams url through the digest. With a non-empty dest the
// bytes are also written there; otherwise nothing touches the disk.
func (c *checksumCalculator) DownloadArtifact(ctx context.Context, url, dest string, algo entities.DigestAlgorithm) (*entities.Artifact, error) {
	var artifact *entities.Artifact
	err := c.fetcher.Retry(ctx, "artifact download", func(ctx context.Context) error {
		var err error
		artifact, err = c.downloadOnce(ctx, url, dest, algo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func (c *checksumCalculator) downloadOnce(ctx context.Context, url, dest string, algo entities.DigestAlgorithm) (*entities.Artifact, error) {
	h, err := NewHash(algo)
	if err != nil {
		return nil, permanent(err)
	}

	resp, err := c.fetcher.Open(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	w := io.Writer(h)
	var out *os.File
	if dest != "" {
		if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
			return nil, permanent(fmt.Errorf("failed to create download directory: %w", err))
		}
		//nolint:gosec // G304: dest is a temporary path chosen by the caller
		out, err = os.Create(dest)
		if err != nil {
			return nil, permanent(fmt.Errorf("failed to create file: %w", err))
		}
		//nolint:errcheck // Closed explicitly below, this covers early returns
		defer out.Close()
		w = io.MultiWriter(h, out)
	}

	size, err := io.Copy(w, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download interrupted: %w", err)
	}
	if resp.ContentLength > 0 && size != resp.ContentLength {
		return nil, fmt.Errorf("download truncated: got %d of %d bytes", size, resp.ContentLength)
	}
	if out != nil {
		if err := out.Close(); err != nil {
			return nil, permanent(fmt.Errorf("failed to write file: %w", err))
		}
	}

	return &entities.Artifact{
		URL:      url,
		Path:     dest,
		Size:     size,
		Checksum: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

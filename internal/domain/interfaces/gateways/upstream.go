// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/pkgbump/internal/domain/entities"
)

// UpstreamSource discovers the latest build published by the vendor
type UpstreamSource interface {
	FetchUpstream(ctx context.Context, def *entities.Definition) (entities.BuildIdentity, error)
}

// MirrorSource reads the identity recorded by a third-party recipe
type MirrorSource interface {
	FetchMirror(ctx context.Context, def *entities.Definition) (entities.BuildIdentity, error)
}

// ChecksumCalculator computes digests of local files and remote artifacts
type ChecksumCalculator interface {
	// CalculateFile digests a file on disk
	CalculateFile(path string, algo entities.DigestAlgorithm) (string, error)

	// DownloadArtifact streams url through the digest, keeping a copy at dest when dest is set
	DownloadArtifact(ctx context.Context, url, dest string, algo entities.DigestAlgorithm) (*entities.Artifact, error)
}

// SignatureVerifier checks detached signatures of downloaded artifacts
type SignatureVerifier interface {
	VerifyArtifact(ctx context.Context, artifactPath, sigURL, keyFile string) error
}

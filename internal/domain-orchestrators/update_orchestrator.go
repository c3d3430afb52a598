package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"github.com/ochairo/pkgbump/internal/domain/interfaces"
	"github.com/ochairo/pkgbump/internal/domain/interfaces/gateways"
	"github.com/ochairo/pkgbump/internal/domain/interfaces/repositories"
)

// UpdateOrchestrator rewrites the local recipe from a decision record
type UpdateOrchestrator struct {
	def        *entities.Definition
	recipes    repositories.RecipeRepository
	codec      repositories.RecipeCodec
	checksums  gateways.ChecksumCalculator
	signatures gateways.SignatureVerifier
	logger     interfaces.Logger
}

// NewUpdateOrchestrator creates a new updater. signatures may be nil when
// the definition does not ask for signature verification.
func NewUpdateOrchestrator(
	def *entities.Definition,
	recipes repositories.RecipeRepository,
	codec repositories.RecipeCodec,
	checksums gateways.ChecksumCalculator,
	signatures gateways.SignatureVerifier,
	logger interfaces.Logger,
) *UpdateOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &UpdateOrchestrator{
		def:        def,
		recipes:    recipes,
		codec:      codec,
		checksums:  checksums,
		signatures: signatures,
		logger:     logger,
	}
}

// UpdateResult describes what UpdateFile did
type UpdateResult struct {
	Path    string
	Changed bool
	Change  entities.RecipeChange
}

// UpdateFile applies the record to the recipe on disk. Nothing is read or
// written when no update is needed, and an unchanged text is not written back.
func (o *UpdateOrchestrator) UpdateFile(ctx context.Context, record *entities.DecisionRecord) (*UpdateResult, error) {
	result := &UpdateResult{Path: o.recipes.Path()}

	if err := record.Validate(); err != nil {
		return result, err
	}
	if !record.UpdateNeeded {
		o.logger.Info("no update needed, recipe left untouched", interfaces.F("path", result.Path))
		return result, nil
	}

	current, err := o.recipes.Read(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: %w", entities.ErrRecipeMalformed, err)
	}

	updated, change, err := o.apply(ctx, record, current)
	if err != nil {
		return result, err
	}
	result.Change = change

	if bytes.Equal(current, updated) {
		o.logger.Info("recipe already matches the record", interfaces.F("path", result.Path))
		return result, nil
	}

	if err := o.recipes.Write(ctx, updated); err != nil {
		return result, fmt.Errorf("failed to write recipe: %w", err)
	}
	result.Changed = true

	o.logger.Info("recipe updated",
		interfaces.F("path", result.Path),
		interfaces.F("version", change.Version),
		interfaces.F("release", change.Release))
	return result, nil
}

// Apply returns text with the record applied. The text is returned as is
// when no update is needed.
func (o *UpdateOrchestrator) Apply(ctx context.Context, record *entities.DecisionRecord, text []byte) ([]byte, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if !record.UpdateNeeded {
		return text, nil
	}
	updated, _, err := o.apply(ctx, record, text)
	return updated, err
}

func (o *UpdateOrchestrator) apply(ctx context.Context, record *entities.DecisionRecord, text []byte) ([]byte, entities.RecipeChange, error) {
	change := entities.RecipeChange{
		Version: record.NewVersion,
		Release: record.NewRelease,
		Source:  record.DownloadLink,
	}

	if o.def.Fields.Checksums != "" {
		algo, err := entities.AlgorithmForField(o.def.Fields.Checksums)
		if err != nil {
			return nil, change, fmt.Errorf("%w: %w", entities.ErrInvalidDefinition, err)
		}

		change.ArtifactChecksum, err = o.artifactChecksum(ctx, record, algo)
		if err != nil {
			return nil, change, err
		}

		change.AssetChecksums, err = o.assetChecksums(algo)
		if err != nil {
			return nil, change, err
		}
	} else if o.def.Signature.Enabled() {
		if _, err := o.verifiedDownload(ctx, record, entities.DigestSHA256); err != nil {
			return nil, change, err
		}
	}

	updated, err := o.codec.Rewrite(text, o.def.Fields, change)
	if err != nil {
		return nil, change, fmt.Errorf("failed to rewrite %s: %w", o.recipes.Path(), err)
	}
	return updated, change, nil
}

// artifactChecksum uses the record's checksum when it fits the recipe's
// algorithm and otherwise digests the artifact
func (o *UpdateOrchestrator) artifactChecksum(ctx context.Context, record *entities.DecisionRecord, algo entities.DigestAlgorithm) (string, error) {
	recorded := strings.ToLower(record.Checksum)
	if len(recorded) != algo.HexLen() {
		recorded = ""
	}

	if o.def.Signature.Enabled() {
		sum, err := o.verifiedDownload(ctx, record, algo)
		if err != nil {
			return "", err
		}
		if recorded != "" && recorded != sum {
			return "", fmt.Errorf("checksum of %s does not match the record: got %s, want %s", record.DownloadLink, sum, recorded)
		}
		return sum, nil
	}

	if recorded != "" {
		return recorded, nil
	}

	o.logger.Info("computing artifact checksum",
		interfaces.F("url", record.DownloadLink),
		interfaces.F("algorithm", string(algo)))
	artifact, err := o.checksums.DownloadArtifact(ctx, record.DownloadLink, "", algo)
	if err != nil {
		return "", fmt.Errorf("failed to digest artifact: %w", err)
	}
	o.logger.Debug("artifact digested",
		interfaces.F("bytes", artifact.Size),
		interfaces.F("checksum", artifact.Checksum))
	return artifact.Checksum, nil
}

// verifiedDownload keeps the artifact in a temporary file while hashing so
// that its detached signature can be checked afterwards
func (o *UpdateOrchestrator) verifiedDownload(ctx context.Context, record *entities.DecisionRecord, algo entities.DigestAlgorithm) (string, error) {
	if o.signatures == nil {
		return "", fmt.Errorf("%w: no signature verifier configured", entities.ErrSignatureInvalid)
	}

	tmpDir, err := os.MkdirTemp("", "pkgbump-artifact-")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	//nolint:errcheck // Best effort cleanup of temporary download
	defer os.RemoveAll(tmpDir)

	dest := filepath.Join(tmpDir, "artifact")
	o.logger.Info("downloading artifact for signature verification", interfaces.F("url", record.DownloadLink))
	artifact, err := o.checksums.DownloadArtifact(ctx, record.DownloadLink, dest, algo)
	if err != nil {
		return "", fmt.Errorf("failed to download artifact: %w", err)
	}

	sigURL := o.def.Signature.SignatureURL(record.DownloadLink, record.NewVersion)
	keyFile := o.def.ResolvePath(o.def.Signature.KeyFile)
	if err := o.signatures.VerifyArtifact(ctx, artifact.Path, sigURL, keyFile); err != nil {
		return "", err
	}
	o.logger.Info("artifact signature verified", interfaces.F("signature", sigURL))

	return artifact.Checksum, nil
}

// assetChecksums digests the companion files next to the recipe in
// definition order. Nil means the existing entries stay.
func (o *UpdateOrchestrator) assetChecksums(algo entities.DigestAlgorithm) ([]string, error) {
	if len(o.def.Assets) == 0 {
		return nil, nil
	}

	dir := filepath.Dir(o.recipes.Path())
	sums := make([]string, 0, len(o.def.Assets))
	for _, asset := range o.def.Assets {
		path := asset
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, asset)
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", entities.ErrAssetMissing, path)
			}
			return nil, fmt.Errorf("failed to stat asset %s: %w", path, err)
		}

		sum, err := o.checksums.CalculateFile(path, algo)
		if err != nil {
			return nil, fmt.Errorf("failed to digest asset %s: %w", path, err)
		}
		sums = append(sums, sum)
	}
	return sums, nil
}

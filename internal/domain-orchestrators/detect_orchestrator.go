// Package orchestrators coordinates the detect and update workflows across domain services.
package orchestrators

import (
	"context"
	"fmt"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"github.com/ochairo/pkgbump/internal/domain/interfaces"
	"github.com/ochairo/pkgbump/internal/domain/interfaces/gateways"
	"github.com/ochairo/pkgbump/internal/domain/interfaces/repositories"
	"github.com/ochairo/pkgbump/internal/domain/services"
)

// DetectOrchestrator decides whether the local recipe needs an update
type DetectOrchestrator struct {
	def             *entities.Definition
	upstream        gateways.UpstreamSource
	mirror          gateways.MirrorSource
	recipes         repositories.RecipeRepository
	codec           repositories.RecipeCodec
	policy          *services.UpdatePolicy
	logger          interfaces.Logger
	refuseDowngrade bool
}

// DetectConfig holds configuration for the detector
type DetectConfig struct {
	RefuseDowngrade bool
}

// NewDetectOrchestrator creates a new detector
func NewDetectOrchestrator(
	def *entities.Definition,
	upstream gateways.UpstreamSource,
	mirror gateways.MirrorSource,
	recipes repositories.RecipeRepository,
	codec repositories.RecipeCodec,
	logger interfaces.Logger,
	config DetectConfig,
) *DetectOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &DetectOrchestrator{
		def:             def,
		upstream:        upstream,
		mirror:          mirror,
		recipes:         recipes,
		codec:           codec,
		policy:          services.NewUpdatePolicy(),
		logger:          logger,
		refuseDowngrade: config.RefuseDowngrade,
	}
}

// Detect gathers the three identities and produces a decision record. It
// fails when upstream or the local recipe cannot be read, or when an update
// is needed but upstream gave no download location. An unreachable mirror
// is logged and treated as unknown.
func (o *DetectOrchestrator) Detect(ctx context.Context) (*entities.DecisionRecord, error) {
	// Step 1: Upstream
	upstream, err := o.upstream.FetchUpstream(ctx, o.def)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upstream: %w", err)
	}
	o.logger.Info("upstream",
		interfaces.F("version", upstream.Version),
		interfaces.F("source", upstream.SourceLocation))

	// Step 2: Mirror
	mirror := o.fetchMirror(ctx)

	// Step 3: Local recipe
	local, err := o.readLocal(ctx)
	if err != nil {
		return nil, err
	}
	o.logger.Info("local recipe",
		interfaces.F("path", o.recipes.Path()),
		interfaces.F("version", local.Version),
		interfaces.F("release", local.Release))

	// Step 4: Policy
	decision := o.policy.Decide(upstream, mirror, local)
	if decision.ManualReleaseBump {
		o.logger.Info("local release is ahead of the mirror, keeping it",
			interfaces.F("local", local.String()),
			interfaces.F("mirror", mirror.String()))
	}

	record := &entities.DecisionRecord{
		Package:        o.def.Name,
		UpdateNeeded:   decision.UpdateNeeded,
		NewVersion:     decision.NewVersion,
		NewRelease:     decision.NewRelease,
		DownloadLink:   local.SourceLocation,
		CurrentVersion: local.Version,
		CurrentRelease: local.Release,
		MirrorVersion:  mirror.Version,
		MirrorRelease:  mirror.Release,
		Reason:         decision.Reason,
	}
	if decision.UpdateNeeded {
		if !upstream.HasSource() {
			return nil, fmt.Errorf("%w: %s reported version %s without a download location",
				entities.ErrUpstreamUnavailable, o.def.Upstream.Kind, upstream.Version)
		}
		record.DownloadLink = upstream.SourceLocation
		record.Checksum = upstream.Checksum
	}

	// Step 5: Downgrade guard
	if decision.UpdateNeeded && services.IsDowngrade(local.Version, upstream.Version) {
		record.Downgrade = true
		o.logger.Warn("upstream version is older than the local recipe",
			interfaces.F("upstream", upstream.Version),
			interfaces.F("local", local.Version))
		if o.refuseDowngrade {
			return record, fmt.Errorf("%w: %s < %s", entities.ErrDowngrade, upstream.Version, local.Version)
		}
	}

	if record.UpdateNeeded {
		o.logger.Info("update needed",
			interfaces.F("reason", string(record.Reason)),
			interfaces.F("version", record.NewVersion),
			interfaces.F("release", record.NewRelease))
	} else {
		o.logger.Info("recipe is up to date", interfaces.F("version", local.String()))
	}

	return record, nil
}

func (o *DetectOrchestrator) fetchMirror(ctx context.Context) entities.BuildIdentity {
	if o.mirror == nil || o.def.Mirror.URL == "" {
		o.logger.Debug("no mirror configured")
		return entities.UnknownIdentity
	}

	mirror, err := o.mirror.FetchMirror(ctx, o.def)
	if err != nil {
		o.logger.Warn("mirror unavailable, continuing without it",
			interfaces.F("url", o.def.Mirror.URL),
			interfaces.F("error", err.Error()))
		return entities.UnknownIdentity
	}

	o.logger.Info("mirror",
		interfaces.F("version", mirror.Version),
		interfaces.F("release", mirror.Release))
	return mirror
}

func (o *DetectOrchestrator) readLocal(ctx context.Context) (entities.BuildIdentity, error) {
	data, err := o.recipes.Read(ctx)
	if err != nil {
		return entities.UnknownIdentity, fmt.Errorf("%w: %w", entities.ErrRecipeMalformed, err)
	}
	local, err := o.codec.ParseIdentity(data, o.def.Fields)
	if err != nil {
		return entities.UnknownIdentity, fmt.Errorf("failed to read %s: %w", o.recipes.Path(), err)
	}
	return local, nil
}

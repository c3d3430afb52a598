// Package services holds the update policy and version ordering rules.
package services

import (
	"github.com/ochairo/pkgbump/internal/domain/entities"
)

// UpdateDecision contains the outcome of the update policy
type UpdateDecision struct {
	UpdateNeeded      bool
	NewVersion        string
	NewRelease        int
	Reason            entities.UpdateReason
	ManualReleaseBump bool
}

// UpdatePolicy decides whether the local recipe must be rewritten
type UpdatePolicy struct{}

// NewUpdatePolicy creates a new update policy
func NewUpdatePolicy() *UpdatePolicy {
	return &UpdatePolicy{}
}

// Decide compares upstream and mirror against the local recipe.
//
// Releases are only compared between identities that share a version, and the
// mirror only ever contributes through the manual release bump check: a stale
// mirror never triggers an update on its own.
func (p *UpdatePolicy) Decide(upstream, mirror, local entities.BuildIdentity) *UpdateDecision {
	decision := &UpdateDecision{
		NewVersion: local.Version,
		NewRelease: local.Release,
	}

	decision.ManualReleaseBump = p.isManualReleaseBump(mirror, local)

	switch {
	case upstream.HasVersion() && upstream.Version != local.Version:
		decision.Reason = entities.ReasonVersionChanged
	case upstream.HasSource() && upstream.SourceLocation != local.SourceLocation:
		decision.Reason = entities.ReasonSourceChanged
	case decision.ManualReleaseBump:
		decision.Reason = entities.ReasonManualReleaseBump
	default:
		return decision
	}
	decision.UpdateNeeded = true

	if upstream.HasVersion() {
		decision.NewVersion = upstream.Version
	}

	switch {
	case decision.NewVersion != local.Version:
		decision.NewRelease = 1
	case decision.ManualReleaseBump:
		decision.NewRelease = local.Release
	default:
		decision.NewRelease = local.Release + 1
	}

	return decision
}

// isManualReleaseBump reports whether the local recipe was hand-edited to a
// release ahead of the mirror for the same version
func (p *UpdatePolicy) isManualReleaseBump(mirror, local entities.BuildIdentity) bool {
	if !mirror.HasVersion() || mirror.Version != local.Version {
		return false
	}
	if !mirror.HasRelease() || !local.HasRelease() {
		return false
	}
	return local.Release > mirror.Release
}

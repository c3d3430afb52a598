package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"github.com/ochairo/pkgbump/internal/domain/interfaces/repositories"
)

// MirrorFetcher implements gateways.MirrorSource for recipes published over HTTP
type MirrorFetcher struct {
	fetcher *HTTPFetcher
	codec   repositories.RecipeCodec
}

// NewMirrorFetcher creates a mirror fetcher that parses the remote recipe
// with the same codec as the local one
func NewMirrorFetcher(fetcher *HTTPFetcher, codec repositories.RecipeCodec) *MirrorFetcher {
	return &MirrorFetcher{fetcher: fetcher, codec: codec}
}

// FetchMirror returns the mirror's identity. A single attempt is made; any
// failure is reported as ErrMirrorUnavailable. Without a configured mirror
// the identity is unknown and no error is returned.
func (m *MirrorFetcher) FetchMirror(ctx context.Context, def *entities.Definition) (entities.BuildIdentity, error) {
	if def.Mirror.URL == "" {
		return entities.UnknownIdentity, nil
	}

	resp, err := m.fetcher.Get(ctx, def.Mirror.URL, nil, true)
	if err != nil {
		return entities.UnknownIdentity, fmt.Errorf("%w: %w", entities.ErrMirrorUnavailable, err)
	}

	id, err := m.codec.ParseIdentity(resp.Body, def.Fields)
	if err != nil {
		return entities.UnknownIdentity, fmt.Errorf("%w: %w", entities.ErrMirrorUnavailable, err)
	}

	// The mirror's checksum says nothing about upstream
	id.Checksum = ""
	return id, nil
}

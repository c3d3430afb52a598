package gateways

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"github.com/ochairo/pkgbump/internal/external-adapters/pkgbuild"
)

const mirrorRecipe = `pkgname=cursor-bin
pkgver=0.47.3
pkgrel=1
_appimage="${pkgname}-${pkgver}.AppImage"
source_x86_64=("${_appimage}::https://downloads.example.com/cursor-0.47.3.AppImage" "cursor.png")
sha512sums_x86_64=('aaaa' 'bbbb')
`

func TestMirrorFetcher_FetchMirror(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Query().Get("h") {
		case "cursor-bin":
			_, _ = w.Write([]byte(mirrorRecipe))
		case "broken":
			_, _ = w.Write([]byte("pkgname=broken\n"))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer server.Close()

	fetcher := NewMirrorFetcher(newTestFetcher(WithHTTPClient(server.Client())), pkgbuild.NewCodec())

	t.Run("parses the remote recipe", func(t *testing.T) {
		def := &entities.Definition{
			Mirror: entities.MirrorConfig{URL: server.URL + "/PKGBUILD?h=cursor-bin"},
			Fields: entities.DefaultRecipeFields(),
		}
		got, err := fetcher.FetchMirror(context.Background(), def)
		if err != nil {
			t.Fatalf("FetchMirror() error = %v", err)
		}
		want := entities.BuildIdentity{
			Version:        "0.47.3",
			Release:        1,
			SourceLocation: "https://downloads.example.com/cursor-0.47.3.AppImage",
		}
		if got != want {
			t.Errorf("FetchMirror() = %+v, want %+v", got, want)
		}
	})

	for _, name := range []string{"broken", "down"} {
		t.Run(name, func(t *testing.T) {
			atomic.StoreInt32(&calls, 0)
			def := &entities.Definition{
				Mirror: entities.MirrorConfig{URL: server.URL + "/PKGBUILD?h=" + name},
				Fields: entities.DefaultRecipeFields(),
			}
			got, err := fetcher.FetchMirror(context.Background(), def)
			if !errors.Is(err, entities.ErrMirrorUnavailable) {
				t.Errorf("FetchMirror() error = %v, want ErrMirrorUnavailable", err)
			}
			if !got.IsUnknown() {
				t.Errorf("FetchMirror() = %+v, want unknown", got)
			}
			if calls != 1 {
				t.Errorf("calls = %d, want a single attempt", calls)
			}
		})
	}
}

func TestMirrorFetcher_NotConfigured(t *testing.T) {
	fetcher := NewMirrorFetcher(newTestFetcher(), pkgbuild.NewCodec())
	got, err := fetcher.FetchMirror(context.Background(), &entities.Definition{})
	if err != nil {
		t.Fatalf("FetchMirror() error = %v", err)
	}
	if !got.IsUnknown() {
		t.Errorf("FetchMirror() = %+v, want unknown", got)
	}
}

func TestMirrorFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	fetcher := NewMirrorFetcher(newTestFetcher(WithTimeout(50*time.Millisecond)), pkgbuild.NewCodec())
	def := &entities.Definition{Mirror: entities.MirrorConfig{URL: server.URL}, Fields: entities.DefaultRecipeFields()}

	if _, err := fetcher.FetchMirror(context.Background(), def); !errors.Is(err, entities.ErrMirrorUnavailable) {
		t.Errorf("FetchMirror() error = %v, want ErrMirrorUnavailable", err)
	}
}

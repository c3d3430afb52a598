package orchestrators

import (
	"context"
	"errors"
	"testing"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"github.com/ochairo/pkgbump/internal/domain/interfaces"
	"github.com/ochairo/pkgbump/internal/external-adapters/pkgbuild"
)

func newDetector(upstream *mockUpstream, mirror *mockMirror, recipes *memoryRecipes, logger interfaces.Logger, cfg DetectConfig) *DetectOrchestrator {
	return NewDetectOrchestrator(testDefinition(), upstream, mirror, recipes, pkgbuild.NewCodec(), logger, cfg)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name        string
		upstream    entities.BuildIdentity
		mirror      entities.BuildIdentity
		wantUpdate  bool
		wantVersion string
		wantRelease int
		wantLink    string
		wantReason  entities.UpdateReason
	}{
		{
			name:        "new upstream version",
			upstream:    entities.BuildIdentity{Version: "0.47.4", SourceLocation: newLink},
			mirror:      entities.BuildIdentity{Version: "0.47.3", Release: 1},
			wantUpdate:  true,
			wantVersion: "0.47.4",
			wantRelease: 1,
			wantLink:    newLink,
			wantReason:  entities.ReasonVersionChanged,
		},
		{
			name:        "same version new source",
			upstream:    entities.BuildIdentity{Version: "0.47.3", SourceLocation: newLink},
			mirror:      entities.BuildIdentity{Version: "0.47.3", Release: 2},
			wantUpdate:  true,
			wantVersion: "0.47.3",
			wantRelease: 3,
			wantLink:    newLink,
			wantReason:  entities.ReasonSourceChanged,
		},
		{
			name:        "manual release bump",
			upstream:    entities.BuildIdentity{Version: "0.47.3", SourceLocation: oldLink},
			mirror:      entities.BuildIdentity{Version: "0.47.3", Release: 1},
			wantUpdate:  true,
			wantVersion: "0.47.3",
			wantRelease: 2,
			wantLink:    oldLink,
			wantReason:  entities.ReasonManualReleaseBump,
		},
		{
			name:        "up to date",
			upstream:    entities.BuildIdentity{Version: "0.47.3", SourceLocation: oldLink},
			mirror:      entities.BuildIdentity{Version: "0.47.3", Release: 2},
			wantUpdate:  false,
			wantVersion: "0.47.3",
			wantRelease: 2,
			wantLink:    oldLink,
			wantReason:  entities.ReasonNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipes := &memoryRecipes{path: "PKGBUILD", data: []byte(testRecipe)}
			d := newDetector(&mockUpstream{identity: tt.upstream}, &mockMirror{identity: tt.mirror}, recipes, nil, DetectConfig{})

			rec, err := d.Detect(context.Background())
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if rec.UpdateNeeded != tt.wantUpdate {
				t.Errorf("UpdateNeeded = %v, want %v", rec.UpdateNeeded, tt.wantUpdate)
			}
			if rec.NewVersion != tt.wantVersion || rec.NewRelease != tt.wantRelease {
				t.Errorf("target = %s-%d, want %s-%d", rec.NewVersion, rec.NewRelease, tt.wantVersion, tt.wantRelease)
			}
			if rec.DownloadLink != tt.wantLink {
				t.Errorf("DownloadLink = %q, want %q", rec.DownloadLink, tt.wantLink)
			}
			if rec.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", rec.Reason, tt.wantReason)
			}
			if rec.CurrentVersion != "0.47.3" || rec.CurrentRelease != 2 {
				t.Errorf("current = %s-%d, want 0.47.3-2", rec.CurrentVersion, rec.CurrentRelease)
			}
			if err := rec.Validate(); err != nil {
				t.Errorf("record does not validate: %v", err)
			}
			if recipes.writes != 0 {
				t.Error("Detect() must not write the recipe")
			}
		})
	}
}

func TestDetectMirrorUnavailable(t *testing.T) {
	logger := &interfaces.RecordingLogger{}
	recipes := &memoryRecipes{path: "PKGBUILD", data: []byte(testRecipe)}
	mirror := &mockMirror{err: entities.ErrMirrorUnavailable}
	upstream := &mockUpstream{identity: entities.BuildIdentity{Version: "0.47.4", SourceLocation: newLink}}

	rec, err := newDetector(upstream, mirror, recipes, logger, DetectConfig{}).Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !rec.UpdateNeeded || rec.NewVersion != "0.47.4" || rec.NewRelease != 1 {
		t.Errorf("record = %+v, want update to 0.47.4-1", rec)
	}
	if rec.MirrorVersion != "" || rec.MirrorRelease != 0 {
		t.Errorf("mirror fields = %q/%d, want empty", rec.MirrorVersion, rec.MirrorRelease)
	}
	if logger.Count("WARN") != 1 {
		t.Errorf("expected one warning, got %d", logger.Count("WARN"))
	}
}

func TestDetectWithoutMirror(t *testing.T) {
	def := testDefinition()
	def.Mirror.URL = ""
	mirror := &mockMirror{}
	recipes := &memoryRecipes{path: "PKGBUILD", data: []byte(testRecipe)}
	upstream := &mockUpstream{identity: entities.BuildIdentity{Version: "0.47.3", SourceLocation: oldLink}}

	d := NewDetectOrchestrator(def, upstream, mirror, recipes, pkgbuild.NewCodec(), nil, DetectConfig{})
	rec, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if rec.UpdateNeeded {
		t.Errorf("unexpected update: %+v", rec)
	}
	if mirror.calls != 0 {
		t.Errorf("mirror fetched %d times, want 0", mirror.calls)
	}
}

func TestDetectErrors(t *testing.T) {
	tests := []struct {
		name     string
		upstream *mockUpstream
		recipes  *memoryRecipes
		wantErr  error
	}{
		{
			name:     "upstream down",
			upstream: &mockUpstream{err: entities.ErrUpstreamUnavailable},
			recipes:  &memoryRecipes{path: "PKGBUILD", data: []byte(testRecipe)},
			wantErr:  entities.ErrUpstreamUnavailable,
		},
		{
			name:     "recipe unreadable",
			upstream: &mockUpstream{identity: entities.BuildIdentity{Version: "1.0.0"}},
			recipes:  &memoryRecipes{path: "PKGBUILD", readErr: errBoom},
			wantErr:  entities.ErrRecipeMalformed,
		},
		{
			name:     "recipe without pkgrel",
			upstream: &mockUpstream{identity: entities.BuildIdentity{Version: "1.0.0"}},
			recipes:  &memoryRecipes{path: "PKGBUILD", data: []byte("pkgver=1.0.0\nsource_x86_64=('https://x/a')\n")},
			wantErr:  entities.ErrRecipeMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDetector(tt.upstream, &mockMirror{}, tt.recipes, nil, DetectConfig{}).Detect(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Detect() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDetectUpstreamWithoutSource(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		version string
		wantErr bool
	}{
		{"text version bump", entities.UpstreamText, "0.47.4", true},
		{"json version bump", entities.UpstreamJSON, "0.47.4", true},
		{"github release version bump", entities.UpstreamGitHubRelease, "0.47.4", true},
		{"same version", entities.UpstreamText, "0.47.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testDefinition()
			def.Upstream.Kind = tt.kind
			recipes := &memoryRecipes{path: "PKGBUILD", data: []byte(testRecipe)}
			mirror := &mockMirror{identity: entities.BuildIdentity{Version: "0.47.3", Release: 2}}

			upstream := &mockUpstream{identity: entities.BuildIdentity{Version: tt.version}}
			d := NewDetectOrchestrator(def, upstream, mirror, recipes, pkgbuild.NewCodec(), nil, DetectConfig{})
			rec, err := d.Detect(context.Background())
			if tt.wantErr {
				if !errors.Is(err, entities.ErrUpstreamUnavailable) {
					t.Fatalf("Detect() error = %v, want ErrUpstreamUnavailable", err)
				}
				if rec != nil {
					t.Errorf("Detect() record = %+v, want nil", rec)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if rec.UpdateNeeded {
				t.Errorf("unexpected update: %+v", rec)
			}
			if rec.DownloadLink != oldLink {
				t.Errorf("DownloadLink = %q, want %q", rec.DownloadLink, oldLink)
			}
		})
	}
}

func TestDetectDowngrade(t *testing.T) {
	upstream := &mockUpstream{identity: entities.BuildIdentity{Version: "0.46.0", SourceLocation: newLink}}

	t.Run("warns by default", func(t *testing.T) {
		logger := &interfaces.RecordingLogger{}
		recipes := &memoryRecipes{path: "PKGBUILD", data: []byte(testRecipe)}
		rec, err := newDetector(upstream, &mockMirror{}, recipes, logger, DetectConfig{}).Detect(context.Background())
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if !rec.Downgrade || !rec.UpdateNeeded {
			t.Errorf("record = %+v, want flagged downgrade update", rec)
		}
		if logger.Count("WARN") != 1 {
			t.Errorf("expected one warning, got %d", logger.Count("WARN"))
		}
	})

	t.Run("refused", func(t *testing.T) {
		recipes := &memoryRecipes{path: "PKGBUILD", data: []byte(testRecipe)}
		rec, err := newDetector(upstream, &mockMirror{}, recipes, nil, DetectConfig{RefuseDowngrade: true}).Detect(context.Background())
		if !errors.Is(err, entities.ErrDowngrade) {
			t.Fatalf("Detect() error = %v, want ErrDowngrade", err)
		}
		if rec == nil || !rec.Downgrade {
			t.Errorf("record = %+v, want downgrade record alongside the error", rec)
		}
	})
}

package main

import (
	"context"
	"io"
	"net/http"

	orchestrators "github.com/ochairo/pkgbump/internal/domain-orchestrators"
	"github.com/ochairo/pkgbump/internal/domain-adapters/gateways"
	"github.com/ochairo/pkgbump/internal/domain/entities"
	"github.com/ochairo/pkgbump/internal/domain/interfaces"
	"github.com/ochairo/pkgbump/internal/external-adapters/logging"
	"github.com/ochairo/pkgbump/internal/external-adapters/pkgbuild"
	"github.com/ochairo/pkgbump/internal/external-adapters/yaml"
	"github.com/spf13/viper"
)

// app carries the per-process state shared by subcommands
type app struct {
	v      *viper.Viper
	cfg    *Config
	logger interfaces.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		v:      newViper(),
		logger: &interfaces.NoOpLogger{},
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

// setup resolves configuration and builds the logger; it runs before every subcommand
func (a *app) setup() error {
	cfg, err := loadConfig(a.v)
	if err != nil {
		return usageError(err)
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Format: cfg.LogFormat,
		Debug:  cfg.Debug,
		Output: a.stderr,
	})
	if err != nil {
		return usageError(err)
	}
	a.logger = logger
	return nil
}

// loadDefinition reads the package definition named by --definition
func (a *app) loadDefinition(ctx context.Context) (*entities.Definition, error) {
	def, err := yaml.NewDefinitionRepository().GetDefinition(ctx, a.cfg.DefinitionPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("definition loaded",
		interfaces.F("path", a.cfg.DefinitionPath),
		interfaces.F("package", def.Name),
		interfaces.F("upstream", def.Upstream.Kind))
	return def, nil
}

func (a *app) metadataFetcher(attempts int) *gateways.HTTPFetcher {
	return gateways.NewHTTPFetcher(
		gateways.WithTimeout(a.cfg.HTTPTimeout),
		gateways.WithRetry(attempts, a.cfg.RetryDelay),
		gateways.WithLogger(a.logger),
	)
}

func (a *app) recipes(def *entities.Definition) *pkgbuild.RecipeRepository {
	return pkgbuild.NewRecipeRepository(def.RecipePath())
}

func (a *app) upstream() *gateways.UpstreamFetcher {
	return gateways.NewUpstreamFetcher(a.metadataFetcher(a.cfg.Retries), a.logger).
		WithGitHubAPI(a.cfg.GitHubAPI)
}

// mirror makes a single attempt; the mirror is advisory
func (a *app) mirror(codec *pkgbuild.Codec) *gateways.MirrorFetcher {
	return gateways.NewMirrorFetcher(a.metadataFetcher(1), codec)
}

func (a *app) detector(def *entities.Definition, refuseDowngrade bool) *orchestrators.DetectOrchestrator {
	codec := pkgbuild.NewCodec()
	return orchestrators.NewDetectOrchestrator(
		def,
		a.upstream(),
		a.mirror(codec),
		a.recipes(def),
		codec,
		a.logger,
		orchestrators.DetectConfig{RefuseDowngrade: refuseDowngrade},
	)
}

func (a *app) updater(def *entities.Definition) *orchestrators.UpdateOrchestrator {
	artifacts := gateways.NewHTTPFetcher(
		gateways.WithTimeout(a.cfg.ArtifactTimeout),
		gateways.WithRetry(a.cfg.Retries, a.cfg.RetryDelay),
		gateways.WithUserAgent(def.Upstream.UserAgent),
		gateways.WithLogger(a.logger),
	)

	return orchestrators.NewUpdateOrchestrator(
		def,
		a.recipes(def),
		pkgbuild.NewCodec(),
		gateways.NewChecksumCalculator(artifacts),
		gateways.NewGPGVerifier(&http.Client{Timeout: a.cfg.HTTPTimeout}, def.Upstream.UserAgent),
		a.logger,
	)
}

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/pkg/charts"
	"github.com/goliatone/go-formflow/pkg/config"
	"github.com/goliatone/go-formflow/pkg/logging"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/nonce"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/source"
	"github.com/goliatone/go-formflow/pkg/source/openapi"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/store/sqlstore"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger logr.Logger
	flush  func()
}

func newRootCmd() *cobra.Command {
	a := &app{logger: logr.Discard(), flush: func() {}}

	root := &cobra.Command{
		Use:           "formflow",
		Short:         "Serve, render and walk multi-step forms",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.flush()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file merged over the defaults")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before FORMFLOW_* overrides")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (overrides config)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: json or console (overrides config)")

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newWalkCmd(a),
		newChartCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{Path: a.configPath, EnvFile: a.envFile})
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	logger, flush, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.flush = flush
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return nil
}

// issuer signs step tokens with the configured secret. Without one a random
// secret is used, so tokens do not survive a restart.
func (a *app) issuer() (*nonce.HMACIssuer, error) {
	secret := strings.TrimSpace(a.cfg.Security.Secret)
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		a.logger.Info("security.secret is empty, using a per-process secret")
	}
	return nonce.NewHMACIssuer(secret, nonce.WithLifetime(a.cfg.Security.NonceLifetime))
}

// openStore returns the configured submission store and its closer.
func (a *app) openStore(ctx context.Context) (store.Submissions, func() error, error) {
	switch a.cfg.Store.Driver {
	case config.DriverSQLite:
		s, err := sqlstore.Open(ctx, a.cfg.Store.DSN, sqlstore.WithLogger(a.logger.WithName("sqlstore")))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return store.NewMemory(), func() error { return nil }, nil
	}
}

// localizer loads the configured translation catalog. Without one labels
// keep their defaults.
func (a *app) localizer() (render.Localizer, error) {
	path := strings.TrimSpace(a.cfg.I18n.Translations)
	if path == "" {
		return render.Localizer{}, nil
	}
	translator, err := render.LoadTranslations(path)
	if err != nil {
		return render.Localizer{}, err
	}
	return render.Localizer{Translator: translator}, nil
}

func (a *app) chartRegistry() (*charts.Registry, error) {
	return formflow.DefaultChartRegistry(a.cfg.Charts.AssetBase)
}

// loadCatalog collects the YAML forms under forms.dir and the forms derived
// from the configured OpenAPI documents.
func (a *app) loadCatalog(ctx context.Context) (*source.Catalog, error) {
	catalog, err := source.NewCatalog()
	if err != nil {
		return nil, err
	}

	dir := a.cfg.Forms.Dir
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		forms, err := source.LoadFS(os.DirFS(dir), a.cfg.Forms.Pattern)
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(forms...); err != nil {
			return nil, err
		}
	} else if dir != "" {
		a.logger.Info("forms directory not found", "dir", dir)
	}

	builder := openapi.New()
	for _, path := range a.cfg.Forms.OpenAPI {
		forms, err := builder.LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(forms...); err != nil {
			return nil, err
		}
	}

	if catalog.Len() == 0 {
		return nil, fmt.Errorf("no forms found in %q or the openapi documents", dir)
	}
	a.logger.Info("forms loaded", "count", catalog.Len())
	return catalog, nil
}

// formFromFile loads the forms of a single YAML or OpenAPI file and picks
// id, or the only form when id is empty.
func formFromFile(ctx context.Context, path, id string, fromOpenAPI bool) (model.Form, error) {
	var (
		forms []model.Form
		err   error
	)
	if fromOpenAPI {
		forms, err = openapi.New().LoadFile(ctx, filepath.Clean(path))
	} else {
		forms, err = source.LoadFile(path)
	}
	if err != nil {
		return model.Form{}, err
	}
	if id == "" {
		if len(forms) != 1 {
			return model.Form{}, fmt.Errorf("%s holds %d forms, pick one with --form", path, len(forms))
		}
		return forms[0], nil
	}
	for _, form := range forms {
		if form.ID == id {
			return form, nil
		}
	}
	return model.Form{}, fmt.Errorf("form %q not found in %s", id, path)
}

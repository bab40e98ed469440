package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	cartrender "github.com/bnema/marketplace-cart/internal/adapters/render/cart"
	tomlrepo "github.com/bnema/marketplace-cart/internal/adapters/repo/toml"
	filestore "github.com/bnema/marketplace-cart/internal/adapters/store/file"
	memorystore "github.com/bnema/marketplace-cart/internal/adapters/store/memory"
	"github.com/bnema/marketplace-cart/internal/application"
	"github.com/bnema/marketplace-cart/internal/logger"
	"github.com/bnema/marketplace-cart/internal/ports"
	"github.com/spf13/viper"
)

const (
	appName       = "mcart"
	configDirName = ".mcart"

	storeBackendKey = "store.backend"
	storeDirKey     = "store.dir"
	logLevelKey     = "log.level"
	logFormatKey    = "log.format"

	backendTOML   = "toml"
	backendFile   = "file"
	backendMemory = "memory"
)

type app struct {
	config       *viper.Viper
	store        ports.KeyValueStore
	catalog      *application.CatalogService
	cartRenderer func(cartrender.Summary, cartrender.RenderOptions) string
}

func wireApp() (*app, error) {
	cfg, err := newConfig()
	if err != nil {
		return nil, err
	}

	store, err := newKeyValueStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire cart store: %w", err)
	}

	catalogRepo, err := tomlrepo.NewCatalogRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire catalog repository: %w", err)
	}

	return &app{
		config:       cfg,
		store:        store,
		catalog:      application.NewCatalogService(catalogRepo),
		cartRenderer: cartrender.Render,
	}, nil
}

// newConfig reads ~/.mcart/config.toml when present. MCART_* environment
// variables override file values, e.g. MCART_STORE_BACKEND=memory.
func newConfig() (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, configDirName)

	cfg := viper.New()
	cfg.SetConfigName("config")
	cfg.SetConfigType("toml")
	cfg.AddConfigPath(configDir)
	cfg.SetEnvPrefix(strings.ToUpper(appName))
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(storeBackendKey, backendTOML)
	cfg.SetDefault(storeDirKey, filepath.Join(configDir, "slots"))
	cfg.SetDefault(logLevelKey, "warn")
	cfg.SetDefault(logFormatKey, "text")

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg, nil
}

func newKeyValueStore(cfg *viper.Viper) (ports.KeyValueStore, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.GetString(storeBackendKey)))
	switch backend {
	case backendTOML:
		return tomlrepo.NewSlotStore(cfg)
	case backendFile:
		dir := cfg.GetString(storeDirKey)
		if dir == "" {
			return nil, errors.New("store directory is empty")
		}
		return filestore.NewStore(dir), nil
	case backendMemory:
		return memorystore.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", backend)
	}
}

func (a *app) newLogger(w io.Writer) *slog.Logger {
	return logger.New(logger.Options{
		Service: appName,
		Level:   a.config.GetString(logLevelKey),
		Format:  a.config.GetString(logFormatKey),
		Writer:  w,
	})
}

func (a *app) newLedger(w io.Writer) *application.Ledger {
	return application.NewLedger(a.store, application.WithLogger(a.newLogger(w)))
}

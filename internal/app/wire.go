package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"devlink/internal/crypto"
	"devlink/internal/domain"
	"devlink/internal/observability/logging"
	"devlink/internal/observability/metrics"
	"devlink/internal/platform"
	"devlink/internal/protocol/linkpayload"
	"devlink/internal/services/identity"
	"devlink/internal/services/linking"
	"devlink/internal/services/registry"
	"devlink/internal/store"
)

// Wire bundles the store, services and observability for the CLI.
type Wire struct {
	Config   *Config
	Log      *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer *prometheus.Registry

	Records  *store.DeviceRecords
	Identity *identity.Service
	Devices  *registry.Service
	Linking  *linking.Service
	QR       *linkpayload.QREncoder

	closers []func() error
}

// Option overrides parts of the graph, mostly for tests.
type Option func(*wireOptions)

type wireOptions struct {
	kv        domain.KeyValueStore
	prims     domain.Primitives
	platforms domain.PlatformProvider
	clock     func() time.Time
	log       *slog.Logger
}

// WithKeyValueStore bypasses backend selection.
func WithKeyValueStore(kv domain.KeyValueStore) Option {
	return func(o *wireOptions) { o.kv = kv }
}

func WithPrimitives(p domain.Primitives) Option {
	return func(o *wireOptions) { o.prims = p }
}

func WithPlatform(p domain.PlatformProvider) Option {
	return func(o *wireOptions) { o.platforms = p }
}

func WithClock(clock func() time.Time) Option {
	return func(o *wireOptions) { o.clock = clock }
}

func WithLogger(log *slog.Logger) Option {
	return func(o *wireOptions) { o.log = log }
}

// NewWire constructs the dependency graph from cfg. Nothing is read from
// storage until Start.
func NewWire(cfg *Config, opts ...Option) (*Wire, error) {
	o := wireOptions{
		prims:     crypto.NewPrimitives(),
		platforms: platform.NewRuntime(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	w := &Wire{Config: cfg, Log: o.log}
	if w.Log == nil {
		log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		if err != nil {
			return nil, err
		}
		w.Log = log
	}

	kv := o.kv
	if kv == nil {
		var err error
		if kv, err = w.openStore(); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if cfg.Store.Passphrase != "" {
		kv = store.NewSealedStore(kv, cfg.Store.Passphrase, store.KeyLocalDevice, store.KeyPendingLink)
	}

	if cfg.Metrics.Enabled {
		w.Gatherer = prometheus.NewRegistry()
		w.Metrics = metrics.New(w.Gatherer)
	}

	w.Records = store.NewDeviceRecords(kv)
	w.QR = linkpayload.NewQREncoder(cfg.QR.Size, cfg.QR.Level)
	w.Identity = identity.New(w.Records, o.prims, o.platforms, o.clock, w.Log.With(slog.String("component", "identity")))
	w.Devices = registry.New(w.Records, w.Identity, o.clock, w.Log.With(slog.String("component", "registry")),
		registry.WithMetrics(w.Metrics))
	w.Linking = linking.New(w.Identity, w.Devices, w.Records, o.prims, o.clock,
		w.Log.With(slog.String("component", "linking")),
		linking.WithTTL(cfg.Link.TTL),
		linking.WithQREncoder(w.QR),
		linking.WithMetrics(w.Metrics),
	)
	return w, nil
}

// openStore selects the key/value backend named in the config.
func (w *Wire) openStore() (domain.KeyValueStore, error) {
	cfg := w.Config
	switch cfg.Store.Backend {
	case "", "file":
		return store.NewFileStore(cfg.Home)

	case "sqlite", "postgres":
		dsn := cfg.Store.DSN
		if dsn == "" && cfg.Store.Backend == "sqlite" {
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return nil, err
			}
			dsn = filepath.Join(cfg.Home, "devlink.db")
		}
		db, err := store.OpenSQL(cfg.Store.Backend, dsn)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s store", cfg.Store.Backend)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, sqlDB.Close)
		return store.NewGormStore(db)

	case "redis":
		client := store.NewRedisClient(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB)
		w.closers = append(w.closers, client.Close)
		return store.NewRedisStore(client, cfg.Store.RedisPrefix), nil

	default:
		return nil, errors.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

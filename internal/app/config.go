package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"devlink/internal/services/linking"
)

// EnvPrefix marks environment variables that override configuration, e.g.
// DEVLINK_STORE_BACKEND=sqlite sets store.backend.
const EnvPrefix = "DEVLINK_"

const defaultHomeDir = ".devlink"

// Config holds runtime wiring options for building the app.
type Config struct {
	// Home is the data directory, e.g. $HOME/.devlink.
	Home    string        `koanf:"home"`
	Store   StoreConfig   `koanf:"store"`
	Link    LinkConfig    `koanf:"link"`
	QR      QRConfig      `koanf:"qr"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type StoreConfig struct {
	Backend string `koanf:"backend" validate:"oneof=file sqlite postgres redis"`
	// DSN is the sqlite path or postgres connection string. An empty sqlite
	// DSN means devlink.db under Home.
	DSN           string `koanf:"dsn"`
	RedisAddr     string `koanf:"redisAddr" validate:"required_if=Backend redis"`
	RedisPassword string `koanf:"redisPassword"`
	RedisDB       int    `koanf:"redisDB" validate:"min=0"`
	RedisPrefix   string `koanf:"redisPrefix"`
	// Passphrase, when set, seals the identity and pending link records.
	Passphrase string `koanf:"passphrase"`
}

type LinkConfig struct {
	TTL time.Duration `koanf:"ttl" validate:"gt=0"`
}

type QRConfig struct {
	Size  int    `koanf:"size" validate:"gt=0"`
	Level string `koanf:"level" validate:"oneof=L M Q H l m q h"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	// Textfile, when set, receives the metrics in Prometheus text format on
	// shutdown, for node_exporter's textfile collector.
	Textfile string `koanf:"textfile"`
}

var defaults = map[string]any{
	"home":              "",
	"store.backend":     "file",
	"store.dsn":         "",
	"store.redisAddr":   "127.0.0.1:6379",
	"store.redisDB":     0,
	"store.redisPrefix": "devlink:",
	"link.ttl":          linking.DefaultTTL.String(),
	"qr.size":           256,
	"qr.level":          "M",
	"log.level":         "info",
	"log.format":        "text",
	"metrics.enabled":   false,
	"metrics.textfile":  "",
}

// LoadConfig layers defaults, the optional YAML file at path and DEVLINK_*
// environment variables. Variables from the given .env files (".env" when
// none are named) are loaded first and never override the real environment.
func LoadConfig(path string, dotenv ...string) (*Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "load %s", f)
		}
	}

	k := koanf.New(".")
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return nil, errors.Wrapf(err, "default %s", key)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	known := make(map[string]string)
	for _, key := range configKeys(reflect.TypeOf(Config{}), "") {
		known[strings.ToLower(key)] = key
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, v string) (string, any) {
			return envKey(key, known), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables")
	}

	cfg := new(Config)
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: strings.EqualFold,
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if cfg.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolve home directory")
		}
		cfg.Home = filepath.Join(dir, defaultHomeDir)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its allowed values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// envKey maps DEVLINK_STORE_REDISADDR onto the known key store.redisAddr.
// Unknown variables are dropped.
func envKey(name string, known map[string]string) string {
	name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return known[strings.ReplaceAll(name, "_", ".")]
}

// configKeys lists the koanf paths of every leaf field in t.
func configKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" || !f.IsExported() {
			continue
		}
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Time{}) {
			keys = append(keys, configKeys(f.Type, prefix+tag+".")...)
			continue
		}
		keys = append(keys, prefix+tag)
	}
	return keys
}

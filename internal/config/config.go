// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads authd configuration.
//
// Sources are layered, later ones overriding earlier ones:
// built-in defaults, an optional YAML file, AUTHD_* environment variables
// (double underscore separates nesting levels), then command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/authd/internal/auth"
)

// MinSecretLength is the shortest accepted token secret, in bytes. It
// matches the output size of HS256.
const MinSecretLength = 32

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "AUTHD_"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config is the full process configuration. It is read once at startup and
// not modified afterwards.
type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Token   TokenConfig   `koanf:"token"`
	Hasher  HasherConfig  `koanf:"hasher"`
	Store   StoreConfig   `koanf:"store"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// MetricsConfig configures the metrics and health listener.
// An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// TokenConfig configures bearer token signing.
type TokenConfig struct {
	Secret    string        `koanf:"secret"`
	Algorithm string        `koanf:"algorithm"`
	TTL       time.Duration `koanf:"ttl"`
	Issuer    string        `koanf:"issuer"`
}

// HasherConfig configures password hashing.
type HasherConfig struct {
	Algorithm string `koanf:"algorithm"`
	Cost      int    `koanf:"cost"`
}

// StoreConfig selects and configures the user store backend.
type StoreConfig struct {
	Driver         string        `koanf:"driver"`
	URL            string        `koanf:"url"`
	Database       string        `koanf:"database"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	ConnectRetries int           `koanf:"connect_retries"`
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"http.addr":                "127.0.0.1:8000",
		"http.read_header_timeout": "10s",
		"http.shutdown_timeout":    "5s",
		"metrics.addr":             "127.0.0.1:9100",
		"log.format":               "json",
		"log.level":                "info",
		"token.algorithm":          "HS256",
		"token.ttl":                "30m",
		"hasher.algorithm":         auth.AlgorithmBcrypt,
		"hasher.cost":              0,
		"store.driver":             DriverPostgres,
		"store.database":           "authd",
		"store.connect_timeout":    "10s",
		"store.connect_retries":    5,
	}
}

// RegisterFlags adds the command-line overrides understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http.addr", "", "API listen address")
	fs.String("metrics.addr", "", "metrics/health listen address (empty = disabled)")
	fs.String("log.format", "", "log format (json or text)")
	fs.String("log.level", "", "log level (debug, info, warn, error)")
	fs.String("store.driver", "", "user store driver (postgres, mongo, memory)")
	fs.String("store.url", "", "user store connection URL")
}

// Load reads configuration from defaults, the YAML file at path (skipped
// when empty), the environment and the changed flags in fs (may be nil).
// The result is validated.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg, err := load(path, fs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStore is Load for commands that only touch the user store. Only the
// store section is validated.
func LoadStore(path string, fs *pflag.FlagSet) (*StoreConfig, error) {
	cfg, err := load(path, fs)
	if err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return &cfg.Store, nil
}

func load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "file").
				With("path", path).
				Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if fs != nil {
		// Unchanged flags only fill keys no earlier source has set.
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	return &cfg, nil
}

// envKey maps AUTHD_TOKEN__SECRET to token.secret.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks the configuration and returns a CONFIG_INVALID error
// describing every invalid field.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Log),
		validation.Field(&c.Token),
		validation.Field(&c.Hasher),
		validation.Field(&c.Store),
	)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return nil
}

// Validate implements validation.Validatable.
func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.ReadHeaderTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Format, validation.In("json", "text")),
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
	)
}

// Validate implements validation.Validatable.
func (c TokenConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Secret, validation.Required, validation.Length(MinSecretLength, 0)),
		validation.Field(&c.Algorithm, validation.Required, validation.In("HS256", "HS384", "HS512")),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (c HasherConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Algorithm, validation.In(auth.AlgorithmBcrypt, auth.AlgorithmArgon2id)),
		validation.Field(&c.Cost, validation.By(bcryptCost)),
	)
}

// bcryptCost accepts zero, meaning the default, or a cost bcrypt supports.
func bcryptCost(value any) error {
	cost, _ := value.(int)
	if cost != 0 && (cost < bcrypt.MinCost || cost > bcrypt.MaxCost) {
		return fmt.Errorf("must be 0 or between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// Validate implements validation.Validatable.
func (c StoreConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverPostgres, DriverMongo, DriverMemory)),
		validation.Field(&c.ConnectTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.ConnectRetries, validation.Min(0)),
	)
	if err != nil {
		return err
	}
	if c.Driver != DriverMemory && c.URL == "" {
		return validation.Errors{"URL": errors.New("cannot be blank unless driver is memory")}
	}
	if c.Driver == DriverMongo && c.Database == "" {
		return validation.Errors{"Database": errors.New("cannot be blank for the mongo driver")}
	}
	return nil
}

// AuthToken returns the immutable token codec configuration.
func (c Config) AuthToken() auth.TokenConfig {
	return auth.TokenConfig{
		Secret:    c.Token.Secret,
		Algorithm: c.Token.Algorithm,
		TTL:       c.Token.TTL,
		Issuer:    c.Token.Issuer,
	}
}

// AuthHasher returns the password hasher configuration.
func (c Config) AuthHasher() auth.HasherConfig {
	return auth.HasherConfig{
		Algorithm: c.Hasher.Algorithm,
		Cost:      c.Hasher.Cost,
	}
}

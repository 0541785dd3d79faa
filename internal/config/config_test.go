// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authd/internal/auth"
	"github.com/holomush/authd/internal/config"
	"github.com/holomush/authd/pkg/errutil"
)

// testSecret is long enough to pass the minimum secret length.
const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithRequiredEnv(t *testing.T) {
	t.Setenv("AUTHD_TOKEN__SECRET", testSecret)
	t.Setenv("AUTHD_STORE__URL", "postgres://localhost/authd")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8000", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadHeaderTimeout)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, testSecret, cfg.Token.Secret)
	assert.Equal(t, "HS256", cfg.Token.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.Token.TTL)
	assert.Equal(t, auth.AlgorithmBcrypt, cfg.Hasher.Algorithm)
	assert.Equal(t, config.DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/authd", cfg.Store.URL)
	assert.Equal(t, 5, cfg.Store.ConnectRetries)
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: "0.0.0.0:8080"
log:
  format: text
token:
  secret: from-file-from-file-from-file-0000
  algorithm: HS512
  ttl: 1h
store:
  driver: memory
`)
	t.Setenv("AUTHD_TOKEN__SECRET", "from-env-from-env-from-env-000000")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--http.addr", "127.0.0.1:9999"}))

	cfg, err := config.Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr, "flag overrides file")
	assert.Equal(t, "text", cfg.Log.Format, "file overrides default")
	assert.Equal(t, "from-env-from-env-from-env-000000", cfg.Token.Secret, "env overrides file")
	assert.Equal(t, "HS512", cfg.Token.Algorithm)
	assert.Equal(t, time.Hour, cfg.Token.TTL)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr, "unset flag keeps default")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: memory\n")

	_, err := config.Load(path, nil)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Contains(t, err.Error(), "Secret")
}

func validConfig() config.Config {
	return config.Config{
		HTTP:   config.HTTPConfig{Addr: "127.0.0.1:8000"},
		Log:    config.LogConfig{Format: "json", Level: "info"},
		Token:  config.TokenConfig{Secret: testSecret, Algorithm: "HS256", TTL: time.Minute},
		Hasher: config.HasherConfig{Algorithm: auth.AlgorithmBcrypt},
		Store:  config.StoreConfig{Driver: config.DriverMemory},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.Config)
		wantField string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "empty http addr", mutate: func(c *config.Config) { c.HTTP.Addr = "" }, wantField: "Addr"},
		{name: "unknown log format", mutate: func(c *config.Config) { c.Log.Format = "xml" }, wantField: "Format"},
		{name: "asymmetric algorithm", mutate: func(c *config.Config) { c.Token.Algorithm = "RS256" }, wantField: "Algorithm"},
		{name: "negative ttl", mutate: func(c *config.Config) { c.Token.TTL = -time.Second }, wantField: "TTL"},
		{name: "unknown hasher", mutate: func(c *config.Config) { c.Hasher.Algorithm = "md5" }, wantField: "Algorithm"},
		{name: "bcrypt cost too high", mutate: func(c *config.Config) { c.Hasher.Cost = 40 }, wantField: "Cost"},
		{name: "bcrypt cost below minimum", mutate: func(c *config.Config) { c.Hasher.Cost = 3 }, wantField: "Cost"},
		{name: "negative bcrypt cost", mutate: func(c *config.Config) { c.Hasher.Cost = -1 }, wantField: "Cost"},
		{name: "default bcrypt cost", mutate: func(c *config.Config) { c.Hasher.Cost = 0 }},
		{name: "minimum bcrypt cost", mutate: func(c *config.Config) { c.Hasher.Cost = 4 }},
		{name: "short secret", mutate: func(c *config.Config) { c.Token.Secret = "s" }, wantField: "Secret"},
		{
			name:      "secret one byte short",
			mutate:    func(c *config.Config) { c.Token.Secret = testSecret[:config.MinSecretLength-1] },
			wantField: "Secret",
		},
		{name: "unknown driver", mutate: func(c *config.Config) { c.Store.Driver = "sqlite" }, wantField: "Driver"},
		{
			name:      "postgres without url",
			mutate:    func(c *config.Config) { c.Store.Driver = config.DriverPostgres },
			wantField: "URL",
		},
		{
			name: "mongo without database",
			mutate: func(c *config.Config) {
				c.Store.Driver = config.DriverMongo
				c.Store.URL = "mongodb://localhost"
			},
			wantField: "Database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestConfig_AuthViews(t *testing.T) {
	cfg := validConfig()
	cfg.Token.Issuer = "authd"
	cfg.Hasher.Cost = 12

	assert.Equal(t, auth.TokenConfig{
		Secret:    testSecret,
		Algorithm: "HS256",
		TTL:       time.Minute,
		Issuer:    "authd",
	}, cfg.AuthToken())
	assert.Equal(t, auth.HasherConfig{Algorithm: auth.AlgorithmBcrypt, Cost: 12}, cfg.AuthHasher())
}

func TestLoadStore_IgnoresTokenSection(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: postgres\n  url: postgres://localhost/authd\n")

	store, err := config.LoadStore(path, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DriverPostgres, store.Driver)
	assert.Equal(t, "postgres://localhost/authd", store.URL)
}

func TestLoadStore_ValidatesStore(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: postgres\n")

	_, err := config.LoadStore(path, nil)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

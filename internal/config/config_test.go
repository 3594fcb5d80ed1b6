package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"app": {"feed_urls": [{"name": "so", "url": "https://stackoverflow.com/feeds/tag/go"}], "concurrency": 2},
		"database": {"username": "reader", "password": "secret", "dbname": "feeds"},
		"parser": {"encoding": "windows-1251"}
	}`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 2, cfg.App.Concurrency)
	assert.Len(t, cfg.App.FeedURLs, 1)
	assert.Equal(t, "windows-1251", cfg.Parser.Encoding)
	assert.Equal(t, "5m", cfg.App.ProcessingInterval)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidJSON(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"app": `))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON")
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := New()
		cfg.Database.Username = "reader"
		return cfg
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no db user", mutate: func(c *Config) { c.Database.Username = "" }, wantErr: "database username"},
		{name: "no feeds", mutate: func(c *Config) { c.App.FeedURLs = nil }, wantErr: "feed_urls"},
		{name: "bad url", mutate: func(c *Config) { c.App.FeedURLs[0].URL = "not a url" }, wantErr: "invalid url"},
		{name: "empty name", mutate: func(c *Config) { c.App.FeedURLs[0].Name = "" }, wantErr: "feed name"},
		{name: "bad interval", mutate: func(c *Config) { c.App.ProcessingInterval = "soon" }, wantErr: "app.processing_interval"},
		{name: "bad host interval", mutate: func(c *Config) { c.Fetcher.HostInterval = "x" }, wantErr: "fetcher.host_interval"},
		{name: "zero concurrency", mutate: func(c *Config) { c.App.Concurrency = 0 }, wantErr: "concurrency"},
		{name: "bad output", mutate: func(c *Config) { c.Logger.Output = "syslog" }, wantErr: "logger.output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, Username: "u", Password: "p@ss", DBName: "feeds", SSLMode: "disable"}

	assert.Equal(t, "postgres://u:p%40ss@db:5433/feeds?sslmode=disable", db.DSN())
}

func TestAppConfig_FeedNames(t *testing.T) {
	app := AppConfig{FeedURLs: []FeedURL{
		{Name: "a", URL: "http://a/feed"},
		{Name: "b", URL: "http://b/feed"},
	}}

	names, urls := app.FeedNames()

	assert.Equal(t, []string{"http://a/feed", "http://b/feed"}, urls)
	assert.Equal(t, "b", names["http://b/feed"])
}

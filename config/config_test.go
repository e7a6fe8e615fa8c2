package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSONConfigGroupedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "9000", "JWTSecret": "s3cret", "PageSize": 20, "AllowedOrigins": ["https://blog.example"]},
		"database": {"DatabaseURI": "sqlite3:blog.db"},
		"media": {"Root": "/srv/media", "MaxUploadMB": 2},
		"log": {"Level": "debug", "Compress": true},
		"register": {"CaptchaEnabled": true, "MaxPerIPPerDay": 3},
		"admin": {"Usernames": ["root", "editor"]}
	}`), 0o600))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, 20, c.PageSize)
	assert.Equal(t, []string{"https://blog.example"}, c.AllowedOrigins)
	assert.Equal(t, "sqlite3:blog.db", c.DatabaseURI)
	assert.Equal(t, "/srv/media", c.MediaRoot)
	assert.Equal(t, 2, c.MaxUploadMB)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)
	assert.True(t, c.RegisterCaptchaEnabled)
	assert.Equal(t, 3, c.RegisterMaxPerIPPerDay)
	assert.Equal(t, []string{"root", "editor"}, c.AdminUsernames)
}

func TestLoadJSONConfigMissingFileIsIgnored(t *testing.T) {
	var c AppConfig
	require.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "absent.json"), &c))
	assert.Equal(t, AppConfig{}, c)
}

func TestLoadJSONConfigRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app": `), 0o600))

	var c AppConfig
	assert.Error(t, loadJSONConfig(path, &c))
}

func TestApplyDefaults(t *testing.T) {
	c := AppConfig{PageSize: 25}
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, 25, c.PageSize)
	assert.Equal(t, 72, c.TokenTTLHours)
	assert.Equal(t, "blogicum_session", c.CookieName)
	assert.Equal(t, "media", c.MediaRoot)
	assert.Empty(t, c.RedisHost, "redis stays disabled unless configured")
	assert.Empty(t, c.GinPath)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "7000")
	t.Setenv("DATABASE_URI", "postgres://blog:pw@db/blog")
	t.Setenv("ADMIN_USERNAMES", " alice , bob,,")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("PAGE_SIZE", "5")

	c := AppConfig{AppPort: "8080", PageSize: 10}
	applyEnvOverrides(&c)

	assert.Equal(t, "7000", c.AppPort)
	assert.Equal(t, "postgres://blog:pw@db/blog", c.DatabaseURI)
	assert.Equal(t, []string{"alice", "bob"}, c.AdminUsernames)
	assert.True(t, c.CookieSecure)
	assert.Equal(t, 5, c.PageSize)
}

func TestDialectorSelection(t *testing.T) {
	cases := []struct {
		name string
		uri  string
		want string
	}{
		{name: "discrete mysql fields", uri: "", want: "mysql"},
		{name: "mysql url", uri: "mysql://blog:pw@localhost/blog", want: "mysql"},
		{name: "postgres url", uri: "postgres://blog:pw@localhost/blog", want: "postgres"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := AppConfig{DatabaseURI: tc.uri}
			applyDefaults(&c)
			d, err := Dialector(c)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Name())
		})
	}
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	_, err := Dialector(AppConfig{DatabaseURI: "sqlserver://sa:pw@localhost/blog"})
	assert.Error(t, err)
}

func TestWithParseTime(t *testing.T) {
	assert.Equal(t, "u@tcp(h)/db?parseTime=True&loc=UTC", withParseTime("u@tcp(h)/db"))
	assert.Equal(t, "u@tcp(h)/db?charset=utf8mb4&parseTime=True&loc=UTC", withParseTime("u@tcp(h)/db?charset=utf8mb4"))
	assert.Equal(t, "u@tcp(h)/db?parseTime=false", withParseTime("u@tcp(h)/db?parseTime=false"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/retry"
)

func clearContentfulEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAccessToken, EnvDeliveryToken, EnvPreviewToken, EnvSpaceID, EnvEnvironment, EnvNodeEnv} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contentbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadContentfulFromEnv(t *testing.T) {
	clearContentfulEnv(t)
	t.Setenv(EnvAccessToken, "cma-token")
	t.Setenv(EnvSpaceID, "space1")

	path := writeConfig(t, "source:\n  type: contentful\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	cf := cfg.Source.Contentful
	assert.Equal(t, "cma-token", cf.AccessToken)
	assert.Equal(t, "space1", cf.SpaceID)
	assert.Equal(t, DefaultEnvironment, cf.Environment)
	assert.Equal(t, DefaultPageSize, cf.PageSize)
	assert.Equal(t, ModeProduction, cfg.Mode)
	assert.Equal(t, DefaultCacheFile, cfg.Target.CacheFile)
	assert.True(t, cfg.ShouldFlattenAssetURLs())
}

func TestLoadExpandsEnvInYAML(t *testing.T) {
	clearContentfulEnv(t)
	t.Setenv("MY_SPACE", "from-expansion")

	path := writeConfig(t, "source:\n  contentful:\n    access_token: tok\n    space_id: ${MY_SPACE}\n    environment: staging\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-expansion", cfg.Source.Contentful.SpaceID)
	assert.Equal(t, "staging", cfg.Source.Contentful.Environment)
}

func TestFileValuesWinOverEnv(t *testing.T) {
	clearContentfulEnv(t)
	t.Setenv(EnvSpaceID, "env-space")

	path := writeConfig(t, "source:\n  contentful:\n    access_token: tok\n    space_id: file-space\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-space", cfg.Source.Contentful.SpaceID)
}

func TestLoadMissingCredentials(t *testing.T) {
	clearContentfulEnv(t)

	path := writeConfig(t, "source:\n  type: contentful\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	t.Setenv(EnvAccessToken, "tok")
	_, err = Load(path)
	require.Error(t, err)
	c, ok := errors.AsClassified(err)
	require.True(t, ok)
	field, _ := c.Context().GetString("field")
	assert.Equal(t, "source.contentful.space_id", field)
}

func TestNodeEnvEnablesDevelopment(t *testing.T) {
	clearContentfulEnv(t)
	t.Setenv(EnvNodeEnv, "development")

	path := writeConfig(t, "source:\n  type: localfs\n  localfs:\n    dir: ./content\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
}

func TestExplicitModeBeatsNodeEnv(t *testing.T) {
	clearContentfulEnv(t)
	t.Setenv(EnvNodeEnv, "development")

	path := writeConfig(t, "mode: production\nsource:\n  type: localfs\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	cfg.ForceDevelopment()
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadMissingFile(t *testing.T) {
	clearContentfulEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoadDefaultPathMissingUsesEnv(t *testing.T) {
	clearContentfulEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv(EnvAccessToken, "tok")
	t.Setenv(EnvSpaceID, "sp")

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, SourceContentful, cfg.Source.Type)
}

func TestDotEnvLoaded(t *testing.T) {
	clearContentfulEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CONTENTFUL_ACCESS_TOKEN=dotenv-token\nCONTENTFUL_SPACE_ID=dotenv-space\n"), 0o600))
	// godotenv only sets variables that are absent; t.Setenv("") leaves them present but empty.
	require.NoError(t, os.Unsetenv(EnvAccessToken))
	require.NoError(t, os.Unsetenv(EnvSpaceID))
	t.Cleanup(func() {
		_ = os.Unsetenv(EnvAccessToken)
		_ = os.Unsetenv(EnvSpaceID)
	})

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", cfg.Source.Contentful.AccessToken)
	assert.Equal(t, "dotenv-space", cfg.Source.Contentful.SpaceID)
}

func TestDotEnvLocalWins(t *testing.T) {
	clearContentfulEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CONTENTFUL_ACCESS_TOKEN=shared-token\nCONTENTFUL_SPACE_ID=shared-space\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"),
		[]byte("CONTENTFUL_ACCESS_TOKEN=local-token\n"), 0o600))
	require.NoError(t, os.Unsetenv(EnvAccessToken))
	require.NoError(t, os.Unsetenv(EnvSpaceID))
	t.Cleanup(func() {
		_ = os.Unsetenv(EnvAccessToken)
		_ = os.Unsetenv(EnvSpaceID)
	})

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, "local-token", cfg.Source.Contentful.AccessToken)
	assert.Equal(t, "shared-space", cfg.Source.Contentful.SpaceID)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"bad mode", "mode: staging\nsource:\n  type: localfs\n", "mode"},
		{"bad source", "source:\n  type: s3\n", "source.type"},
		{"bad retry mode", "source:\n  type: localfs\n  retry:\n    mode: random\n", "source.retry.mode"},
		{"bad duration", "source:\n  type: localfs\ndev:\n  debounce: soon\n", "dev.debounce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			err = Validate(cfg)
			require.Error(t, err)
			c, ok := errors.AsClassified(err)
			require.True(t, ok)
			field, _ := c.Context().GetString("field")
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestRetryPolicyFromConfig(t *testing.T) {
	cfg, err := Parse([]byte("source:\n  type: localfs\n  retry:\n    mode: linear\n    initial: 2s\n    max: 5s\n    max_retries: 0\n"))
	require.NoError(t, err)
	p := cfg.RetryPolicy()
	assert.Equal(t, retry.BackoffLinear, p.Mode)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 5*time.Second, p.Max)
	assert.Equal(t, 0, p.MaxRetries)
}

func TestFlattenAssetURLsExplicitFalse(t *testing.T) {
	cfg, err := Parse([]byte("source:\n  type: localfs\ntarget:\n  flatten_asset_urls: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.ShouldFlattenAssetURLs())
}

func TestDuration(t *testing.T) {
	assert.Equal(t, time.Second, Duration("", time.Second))
	assert.Equal(t, time.Second, Duration("nope", time.Second))
	assert.Equal(t, 3*time.Minute, Duration("3m", time.Second))
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contentbuild.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, SourceContentful, cfg.Source.Type)
	assert.Equal(t, []string{"PageLayout", "PostLayout", "PostFeedLayout", "PostFeedCategoryLayout"}, cfg.Pages.Models)
}

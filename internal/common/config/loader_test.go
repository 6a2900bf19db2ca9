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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: test-app
workers:
  predict-credit-default:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ModelKindForest, cfg.Model.Kind)
	assert.Equal(t, 0.4, cfg.Assessment.DefaultThreshold)
	assert.Equal(t, "credit_model.json", cfg.Artifacts.Model.Path)
	assert.Equal(t, "feature_names.json", cfg.Artifacts.Schema.Path)
	assert.Equal(t, "info", cfg.Logging.Level)

	w := cfg.Workers["predict-credit-default"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_MODEL_URL", "https://artifacts.example.com/model.json")
	path := writeConfig(t, `
artifacts:
  model:
    path: /tmp/model.json
    url: ${TEST_MODEL_URL}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://artifacts.example.com/model.json", cfg.Artifacts.Model.URL)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "remote model needs endpoint",
			body:    "model:\n  kind: remote\n",
			wantErr: "model.endpoint is required",
		},
		{
			name:    "unknown model kind",
			body:    "model:\n  kind: pickle\n",
			wantErr: "model.kind must be",
		},
		{
			name:    "threshold above one",
			body:    "assessment:\n  default_threshold: 1.5\n",
			wantErr: "default_threshold",
		},
		{
			name:    "cache without redis",
			body:    "cache:\n  enabled: true\n",
			wantErr: "cache.redis.address",
		},
		{
			name:    "sns without topic",
			body:    "alerts:\n  enabled: true\n  region: eu-west-1\n  sns:\n    enabled: true\n",
			wantErr: "topic_arn",
		},
		{
			name:    "camunda without broker",
			body:    "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"predict-credit-default": {Enabled: false, MaxJobsActive: 2},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "predict-credit-default"))
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "predict-credit-default").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "unknown").MaxJobsActive)
}

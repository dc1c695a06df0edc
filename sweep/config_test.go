package sweep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porterlabs/pixelsort"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigFillsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(writeConfig(t, "input: in.png\nto: 100\n"))
	require.NoError(t, err)
	assert.Equal(t, "in.png", cfg.Input)
	assert.Equal(t, 100, cfg.To)
	assert.Equal(t, "frame-%04d.png", cfg.Pattern)
	assert.Equal(t, 1, cfg.Step)
	assert.Equal(t, "frames", cfg.OutDir)
	assert.Equal(t, "luminance", cfg.Key)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(writeConfig(t, "input: [unclosed\n"))
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := DefaultConfig()
	valid.Input = "in.png"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing input", mutate: func(c *Config) { c.Input = "" }, wantErr: true},
		{name: "missing out dir", mutate: func(c *Config) { c.OutDir = "" }, wantErr: true},
		{name: "pattern without verb", mutate: func(c *Config) { c.Pattern = "frame.png" }, wantErr: true},
		{name: "pattern with string verb", mutate: func(c *Config) { c.Pattern = "frame-%s.png" }, wantErr: true},
		{name: "zero step", mutate: func(c *Config) { c.Step = 0 }, wantErr: true},
		{name: "inverted range", mutate: func(c *Config) { c.From = 200; c.To = 100 }, wantErr: true},
		{name: "range above key max", mutate: func(c *Config) { c.To = 300 }, wantErr: true},
		{name: "hue range above 255", mutate: func(c *Config) { c.Key = "hue"; c.To = 300 }},
		{name: "unknown key", mutate: func(c *Config) { c.Key = "chroma" }, wantErr: true},
		{name: "unknown axis", mutate: func(c *Config) { c.Axis = "diagonal" }, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfigValidateReportsInvalidThreshold(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Input = "in.png"
	cfg.To = 400
	assert.ErrorIs(t, cfg.Validate(), pixelsort.ErrInvalidThreshold)
}

func TestConfigThresholds(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.From = 0
	cfg.To = 10
	cfg.Step = 4
	assert.Equal(t, []int{0, 4, 8}, cfg.thresholds())

	cfg.From = 5
	cfg.To = 5
	cfg.Step = 1
	assert.Equal(t, []int{5}, cfg.thresholds())
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Axis = "columns"
	cfg.Key = "hue"
	cfg.Descending = true
	cfg.RowWorkers = 3

	opt, err := cfg.options()
	require.NoError(t, err)
	assert.Equal(t, pixelsort.AxisColumns, opt.Axis)
	assert.Equal(t, pixelsort.KeyHue, opt.Key)
	assert.Equal(t, pixelsort.Descending, opt.Direction)
	assert.Equal(t, 3, opt.Workers)
}

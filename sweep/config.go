package sweep

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/porterlabs/pixelsort"
)

// Config drives one threshold sweep over a single input image.
type Config struct {
	// Input is the source image path.
	Input string `yaml:"input"`
	// OutDir receives the frames. Created if missing.
	OutDir string `yaml:"out_dir"`
	// Pattern names each frame and must contain one integer verb, e.g.
	// "frame-%04d.png". Frames are numbered by sweep position, not by
	// threshold, so an encoder can consume them in order.
	Pattern string `yaml:"pattern"`

	// From, To and Step bound the threshold sweep (inclusive).
	From int `yaml:"from"`
	To   int `yaml:"to"`
	Step int `yaml:"step"`

	Axis       string `yaml:"axis"`
	Key        string `yaml:"key"`
	Descending bool   `yaml:"descending"`

	// FrameWorkers caps concurrently rendered frames; RowWorkers is handed
	// to the sorter for scan-line parallelism. Zero means NumCPU for frames
	// and the sorter default for rows.
	FrameWorkers int `yaml:"frame_workers"`
	RowWorkers   int `yaml:"row_workers"`
}

// DefaultConfig sweeps the full luminance threshold range a step at a time.
func DefaultConfig() Config {
	return Config{
		OutDir:  "frames",
		Pattern: "frame-%04d.png",
		From:    0,
		To:      255,
		Step:    1,
		Axis:    "rows",
		Key:     "luminance",
	}
}

// LoadConfig reads a YAML sweep config, filling unset fields from
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first problem that would make the sweep fail or
// produce misnamed frames.
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("sweep config: input is required")
	}
	if c.OutDir == "" {
		return fmt.Errorf("sweep config: out_dir is required")
	}
	if name := fmt.Sprintf(c.Pattern, 0); name == c.Pattern || strings.Contains(name, "%!") {
		return fmt.Errorf("sweep config: pattern %q needs exactly one integer verb", c.Pattern)
	}
	if c.Step <= 0 {
		return fmt.Errorf("sweep config: step must be positive, got %d", c.Step)
	}
	if c.From > c.To {
		return fmt.Errorf("sweep config: from %d exceeds to %d", c.From, c.To)
	}
	if _, err := c.options(); err != nil {
		return fmt.Errorf("sweep config: %w", err)
	}
	key, _ := pixelsort.ParseKey(c.Key)
	if maxV := pixelsort.KeyMax(key); c.From < 0 || c.To > maxV {
		return fmt.Errorf("sweep config: %w: range [%d, %d] outside [0, %d]",
			pixelsort.ErrInvalidThreshold, c.From, c.To, maxV)
	}
	return nil
}

func (c Config) options() (pixelsort.Options, error) {
	opt := pixelsort.DefaultOptions()
	axis, err := pixelsort.ParseAxis(c.Axis)
	if err != nil {
		return opt, err
	}
	key, err := pixelsort.ParseKey(c.Key)
	if err != nil {
		return opt, err
	}
	opt.Axis = axis
	opt.Key = key
	if c.Descending {
		opt.Direction = pixelsort.Descending
	}
	opt.Workers = c.RowWorkers
	return opt, nil
}

// thresholds expands the inclusive From..To range by Step.
func (c Config) thresholds() []int {
	var out []int
	for t := c.From; t <= c.To; t += c.Step {
		out = append(out, t)
	}
	return out
}

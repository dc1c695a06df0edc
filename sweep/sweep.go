// Package sweep renders a threshold sweep in process: one decoded image,
// one sorted frame per threshold, written under deterministic names so a
// downstream encoder can assemble them into a video by frame index.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/porterlabs/pixelsort"
	"github.com/porterlabs/pixelsort/utils"
)

// Run executes the sweep described by cfg. The input is decoded once and
// every threshold produces exactly one frame; the first failing frame aborts
// the run. A nil logger falls back to slog.Default.
func Run(ctx context.Context, cfg Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	opt, err := cfg.options()
	if err != nil {
		return err
	}

	img, err := utils.ReadImage(cfg.Input)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", cfg.OutDir, err)
	}

	thresholds := cfg.thresholds()
	begin := time.Now()
	log.Info("starting sweep",
		"input", cfg.Input,
		"frames", len(thresholds),
		"axis", opt.Axis.String(),
		"key", opt.Key.String())

	workers := cfg.FrameWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool := pond.NewPool(workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for i, t := range thresholds {
		i, t := i, t
		group.SubmitErr(func() error {
			frame, err := pixelsort.Sort(img, t, opt)
			if err != nil {
				return fmt.Errorf("frame %d (threshold %d): %w", i, t, err)
			}
			name := filepath.Join(cfg.OutDir, fmt.Sprintf(cfg.Pattern, i))
			if err := utils.SaveImage(frame, name); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			log.Debug("frame written", "index", i, "threshold", t, "path", name)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	log.Info("sweep finished", "frames", len(thresholds), "elapsed", time.Since(begin))
	return nil
}

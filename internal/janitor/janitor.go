package janitor

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"audio-converter/internal/logging"
	"audio-converter/internal/metrics"
)

// Janitor periodically deletes MP3 files from a directory once they are
// older than the configured TTL. Operators download results shortly
// after converting; the janitor keeps the disk from filling up with
// files nobody will fetch again.
type Janitor struct {
	dir      string
	ttl      time.Duration
	interval time.Duration

	stop chan struct{}
	done chan struct{}

	now func() time.Time
}

// New creates a Janitor for dir. A zero or negative ttl disables it.
func New(dir string, ttl, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{
		dir:      dir,
		ttl:      ttl,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Enabled reports whether the janitor will do anything.
func (j *Janitor) Enabled() bool {
	return j.ttl > 0
}

// Start runs the sweep loop until Stop is called. It returns
// immediately when the janitor is disabled.
func (j *Janitor) Start() {
	if !j.Enabled() {
		close(j.done)
		return
	}

	logging.Info("Janitor started: removing files older than %v from %s every %v", j.ttl, j.dir, j.interval)

	go func() {
		defer close(j.done)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				removed, err := j.Sweep()
				if err != nil {
					logging.Error("Janitor sweep failed: %v", err)
					continue
				}
				if removed > 0 {
					logging.Info("Janitor removed %d expired file(s)", removed)
				}
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for any in-progress sweep to finish.
func (j *Janitor) Stop() {
	select {
	case <-j.stop:
	default:
		close(j.stop)
	}
	<-j.done
}

// Sweep removes expired MP3 files and returns how many were deleted.
// Non-MP3 entries and subdirectories are left alone.
func (j *Janitor) Sweep() (int, error) {
	metrics.JanitorRunsTotal.Inc()

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return 0, err
	}

	cutoff := j.now().Add(-j.ttl)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp3") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logging.Warn("Janitor failed to remove %s: %v", path, err)
			continue
		}
		logging.Debug("Janitor removed %s (age %v)", entry.Name(), j.now().Sub(info.ModTime()).Round(time.Second))
		removed++
	}

	metrics.JanitorFilesRemoved.Add(float64(removed))
	return removed, nil
}

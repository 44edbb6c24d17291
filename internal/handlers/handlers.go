package handlers

import (
	"context"
	"time"

	"audio-converter/internal/converter"
	"audio-converter/internal/history"
	"audio-converter/internal/session"
	"audio-converter/internal/startup"
)

// Converter is the engine interface the handlers drive. Tests substitute
// a fake so HTTP behavior can be exercised without ffmpeg.
type Converter interface {
	Convert(ctx context.Context, req converter.Request) (*converter.Result, error)
}

// Handlers carries the dependencies of the HTTP surface.
type Handlers struct {
	cfg      *startup.Config
	sessions *session.Store
	engine   Converter
	history  *history.Store // nil disables history recording

	// jobs bounds concurrent conversions when configured; nil = unlimited
	jobs chan struct{}

	started time.Time
}

// New creates the handler set.
func New(cfg *startup.Config, sessions *session.Store, engine Converter, hist *history.Store) *Handlers {
	var jobs chan struct{}
	if cfg.MaxConcurrentJobs > 0 {
		jobs = make(chan struct{}, cfg.MaxConcurrentJobs)
	}
	return &Handlers{
		cfg:      cfg,
		sessions: sessions,
		engine:   engine,
		history:  hist,
		jobs:     jobs,
		started:  time.Now(),
	}
}

package converter

import (
	"context"
	"fmt"
	"os"

	"audio-converter/internal/ffmpeg"
	"audio-converter/internal/logging"
	"audio-converter/internal/planner"
)

// Driver is the subset of the ffmpeg driver the engine needs. Tests
// substitute a fake to exercise the two-phase logic without a real
// subprocess.
type Driver interface {
	Probe(ctx context.Context, path string) (*ffmpeg.AudioInfo, error)
	Encode(ctx context.Context, input, output string, params ffmpeg.EncodeParams) error
}

// Request describes one conversion job.
type Request struct {
	SourcePath string
	OutputPath string

	// PreferredBitrateKbps is the phase-1 bitrate. Zero means "auto":
	// the planner picks the phase-1 bitrate from the probed duration.
	PreferredBitrateKbps int

	SizeCeilingBytes int64
	Params           ffmpeg.EncodeParams
}

// Result is the outcome of a successful conversion.
type Result struct {
	OutputPath       string
	FinalBitrateKbps int
	FinalSizeBytes   int64
	DurationSeconds  int
}

// Engine drives conversions through a Driver and a planner.
type Engine struct {
	driver  Driver
	planner *planner.Planner
}

// New creates a conversion engine.
func New(driver Driver, p *planner.Planner) *Engine {
	return &Engine{driver: driver, planner: p}
}

// Convert produces an MP3 at req.OutputPath whose size does not exceed
// req.SizeCeilingBytes, using at most two encode passes. On any failure
// a partial output is removed before returning.
func (e *Engine) Convert(ctx context.Context, req Request) (*Result, error) {
	info, err := e.driver.Probe(ctx, req.SourcePath)
	if err != nil {
		return nil, &Error{Kind: ProbeFailed, Err: err}
	}
	if info.DurationSeconds <= 0 {
		return nil, &Error{Kind: ProbeFailed, Err: fmt.Errorf("source has zero duration")}
	}

	params := req.Params
	if req.PreferredBitrateKbps > 0 {
		params.BitrateKbps = e.planner.Clamp(req.PreferredBitrateKbps)
	} else {
		params.BitrateKbps = e.planner.Plan(info.DurationSeconds, req.SizeCeilingBytes)
	}

	logging.Info("converting %s (%ds) at %d kbps, ceiling %d bytes",
		req.SourcePath, info.DurationSeconds, params.BitrateKbps, req.SizeCeilingBytes)

	size, err := e.encodeAndMeasure(ctx, req, params)
	if err != nil {
		return nil, err
	}

	if size <= req.SizeCeilingBytes {
		return &Result{
			OutputPath:       req.OutputPath,
			FinalBitrateKbps: params.BitrateKbps,
			FinalSizeBytes:   size,
			DurationSeconds:  info.DurationSeconds,
		}, nil
	}

	// Phase 2: replan from the measured duration and encode once more.
	if err := os.Remove(req.OutputPath); err != nil {
		return nil, &Error{Kind: EncodeFailed, Err: fmt.Errorf("removing oversized output: %w", err)}
	}

	raw := e.planner.Raw(info.DurationSeconds, req.SizeCeilingBytes)
	if raw < e.planner.FloorKbps {
		return nil, &Error{Kind: TooLong, Err: fmt.Errorf("fitting %ds under %d bytes needs %d kbps, below the %d kbps floor",
			info.DurationSeconds, req.SizeCeilingBytes, raw, e.planner.FloorKbps)}
	}

	params.BitrateKbps = e.planner.Clamp(raw)
	logging.Info("output overran ceiling (%d bytes), re-encoding %s at %d kbps", size, req.SourcePath, params.BitrateKbps)

	size, err = e.encodeAndMeasure(ctx, req, params)
	if err != nil {
		return nil, err
	}

	if size > req.SizeCeilingBytes {
		e.removePartial(req.OutputPath)
		return nil, &Error{Kind: CannotFit, Err: fmt.Errorf("replanned output still %d bytes over the ceiling", size-req.SizeCeilingBytes)}
	}

	return &Result{
		OutputPath:       req.OutputPath,
		FinalBitrateKbps: params.BitrateKbps,
		FinalSizeBytes:   size,
		DurationSeconds:  info.DurationSeconds,
	}, nil
}

// encodeAndMeasure runs one encode pass and returns the output size.
// A failed pass removes whatever the encoder left behind.
func (e *Engine) encodeAndMeasure(ctx context.Context, req Request, params ffmpeg.EncodeParams) (int64, error) {
	if err := e.driver.Encode(ctx, req.SourcePath, req.OutputPath, params); err != nil {
		e.removePartial(req.OutputPath)
		return 0, &Error{Kind: EncodeFailed, Err: err}
	}

	st, err := os.Stat(req.OutputPath)
	if err != nil {
		return 0, &Error{Kind: EncodeFailed, Err: fmt.Errorf("measuring output: %w", err)}
	}
	return st.Size(), nil
}

func (e *Engine) removePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove partial output %s: %v", path, err)
	}
}

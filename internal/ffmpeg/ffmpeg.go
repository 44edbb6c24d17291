package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"audio-converter/internal/logging"
)

// Default per-invocation timeouts.
const (
	DefaultProbeTimeout  = 30 * time.Second
	DefaultEncodeTimeout = 600 * time.Second
)

// AudioInfo holds metadata probed from a source file.
type AudioInfo struct {
	DurationSeconds int
	Format          string
	BitrateBps      int64
	SampleRateHz    int
	Channels        int
	SizeBytes       int64
}

// EncodeParams are the inputs to a single encoder invocation.
type EncodeParams struct {
	BitrateKbps       int
	Channels          int
	SampleRateHz      int
	NormalizeLoudness bool
}

// DefaultEncodeParams returns the encoder defaults for speech audio:
// mono, 44.1 kHz, loudness normalized toward -16 LUFS.
func DefaultEncodeParams() EncodeParams {
	return EncodeParams{
		Channels:          1,
		SampleRateHz:      44100,
		NormalizeLoudness: true,
	}
}

// loudnormFilter targets integrated loudness of -16 LUFS with a true
// peak of -1.5 dBTP and a loudness range of 11 LU.
const loudnormFilter = "loudnorm=I=-16:TP=-1.5:LRA=11"

// Driver invokes ffmpeg and ffprobe with bounded timeouts.
type Driver struct {
	ffmpegPath    string
	ffprobePath   string
	probeTimeout  time.Duration
	encodeTimeout time.Duration
}

// Config holds driver construction options. Empty paths are resolved
// from PATH; zero timeouts use the defaults.
type Config struct {
	FFmpegPath    string
	FFprobePath   string
	ProbeTimeout  time.Duration
	EncodeTimeout time.Duration
}

// New creates a Driver, resolving the ffmpeg/ffprobe binaries.
func New(cfg Config) (*Driver, error) {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		var err error
		ffmpegPath, err = exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
		}
	}

	ffprobePath := cfg.FFprobePath
	if ffprobePath == "" {
		var err error
		ffprobePath, err = exec.LookPath("ffprobe")
		if err != nil {
			return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
		}
	}

	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	encodeTimeout := cfg.EncodeTimeout
	if encodeTimeout <= 0 {
		encodeTimeout = DefaultEncodeTimeout
	}

	return &Driver{
		ffmpegPath:    ffmpegPath,
		ffprobePath:   ffprobePath,
		probeTimeout:  probeTimeout,
		encodeTimeout: encodeTimeout,
	}, nil
}

// Probe extracts format and first-audio-stream metadata from path.
func (d *Driver) Probe(ctx context.Context, path string) (*AudioInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, d.probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, d.classifyProbeErr(ctx, path, err, stderr.String())
	}

	info, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		var perr *ProbeError
		if errors.As(err, &perr) {
			perr.Path = path
			return nil, perr
		}
		return nil, &ProbeError{Kind: ProbeParse, Path: path, Err: err}
	}

	logging.Debug("probed %s: %ds, %s, %d Hz, %d ch", path, info.DurationSeconds, info.Format, info.SampleRateHz, info.Channels)
	return info, nil
}

// Duration returns the duration of path in whole seconds.
func (d *Driver) Duration(ctx context.Context, path string) (int, error) {
	info, err := d.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.DurationSeconds, nil
}

// Encode transcodes input into an MP3 at output. The output directory is
// created if missing and any existing output file is overwritten. On
// success the output exists and is non-empty; on failure the file is
// left for the caller to clean up.
func (d *Driver) Encode(ctx context.Context, input, output string, params EncodeParams) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return &EncodeError{Kind: EncodeTool, Output: output, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, d.encodeTimeout)
	defer cancel()

	args := buildEncodeArgs(input, output, params)
	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Debug("encoding %s -> %s at %d kbps", input, output, params.BitrateKbps)

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return &EncodeError{Kind: EncodeTimeout, Output: output, Stderr: truncateStderr(stderr.String()), Err: ctx.Err()}
		}
		return &EncodeError{Kind: EncodeTool, Output: output, Stderr: truncateStderr(stderr.String()), Err: err}
	}

	st, err := os.Stat(output)
	if err != nil {
		return &EncodeError{Kind: EncodeOutputMissing, Output: output, Stderr: truncateStderr(stderr.String()), Err: err}
	}
	if st.Size() == 0 {
		return &EncodeError{Kind: EncodeOutputEmpty, Output: output, Stderr: truncateStderr(stderr.String())}
	}

	return nil
}

// buildEncodeArgs assembles the ffmpeg argument list for an MP3 encode.
func buildEncodeArgs(input, output string, params EncodeParams) []string {
	args := []string{
		"-y",
		"-i", input,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", params.BitrateKbps),
		"-ac", fmt.Sprintf("%d", params.Channels),
		"-ar", fmt.Sprintf("%d", params.SampleRateHz),
	}
	if params.NormalizeLoudness {
		args = append(args, "-af", loudnormFilter)
	}
	return append(args, output)
}

func (d *Driver) classifyProbeErr(ctx context.Context, path string, err error, stderr string) *ProbeError {
	snippet := truncateStderr(strings.TrimSpace(stderr))
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return &ProbeError{Kind: ProbeTimeout, Path: path, Stderr: snippet, Err: ctx.Err()}
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return &ProbeError{Kind: ProbeNotFound, Path: path, Stderr: snippet, Err: err}
	default:
		return &ProbeError{Kind: ProbeTool, Path: path, Stderr: snippet, Err: err}
	}
}

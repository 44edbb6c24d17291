package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"audio-converter/internal/ffmpeg"
	"audio-converter/internal/planner"
)

// fakeDriver scripts probe results and per-pass output sizes so the
// two-phase logic can be tested without ffmpeg.
type fakeDriver struct {
	info     *ffmpeg.AudioInfo
	probeErr error

	// outputSizes[i] is the file size written by encode pass i.
	outputSizes []int64
	encodeErrs  []error
	pass        int

	bitrates []int // bitrate of each pass, recorded
}

func (f *fakeDriver) Probe(_ context.Context, _ string) (*ffmpeg.AudioInfo, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.info, nil
}

func (f *fakeDriver) Encode(_ context.Context, _, output string, params ffmpeg.EncodeParams) error {
	i := f.pass
	f.pass++
	f.bitrates = append(f.bitrates, params.BitrateKbps)

	if i < len(f.encodeErrs) && f.encodeErrs[i] != nil {
		return f.encodeErrs[i]
	}

	size := int64(0)
	if i < len(f.outputSizes) {
		size = f.outputSizes[i]
	}
	return os.WriteFile(output, make([]byte, size), 0o644)
}

func newEngine(d Driver) *Engine {
	return New(d, planner.New(16, 128))
}

func request(t *testing.T, ceiling int64, preferred int) Request {
	t.Helper()
	dir := t.TempDir()
	return Request{
		SourcePath:           filepath.Join(dir, "in.wav"),
		OutputPath:           filepath.Join(dir, "out.mp3"),
		PreferredBitrateKbps: preferred,
		SizeCeilingBytes:     ceiling,
		Params:               ffmpeg.DefaultEncodeParams(),
	}
}

func TestConvertSinglePassFits(t *testing.T) {
	d := &fakeDriver{
		info:        &ffmpeg.AudioInfo{DurationSeconds: 1800},
		outputSizes: []int64{900},
	}
	req := request(t, 1000, 64)

	res, err := newEngine(d).Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	if res.FinalBitrateKbps != 64 {
		t.Errorf("FinalBitrateKbps = %d, want 64", res.FinalBitrateKbps)
	}
	if res.FinalSizeBytes != 900 {
		t.Errorf("FinalSizeBytes = %d, want 900", res.FinalSizeBytes)
	}
	if res.DurationSeconds != 1800 {
		t.Errorf("DurationSeconds = %d, want 1800", res.DurationSeconds)
	}
	if d.pass != 1 {
		t.Errorf("encode passes = %d, want 1", d.pass)
	}
}

func TestConvertExactCeilingAcceptedFirstPass(t *testing.T) {
	d := &fakeDriver{
		info:        &ffmpeg.AudioInfo{DurationSeconds: 1800},
		outputSizes: []int64{1000},
	}
	req := request(t, 1000, 64)

	res, err := newEngine(d).Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if d.pass != 1 {
		t.Errorf("encode passes = %d, want 1", d.pass)
	}
	if res.FinalSizeBytes != 1000 {
		t.Errorf("FinalSizeBytes = %d, want 1000", res.FinalSizeBytes)
	}
}

func TestConvertSecondPassAfterOverrun(t *testing.T) {
	// 600 s under 4 MiB: planner yields (4*2^20*8)/600/1024 = 54 kbps.
	ceiling := int64(4 * 1024 * 1024)
	d := &fakeDriver{
		info:        &ffmpeg.AudioInfo{DurationSeconds: 600},
		outputSizes: []int64{ceiling + 1, ceiling - 100},
	}
	req := request(t, ceiling, 64)

	res, err := newEngine(d).Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	if d.pass != 2 {
		t.Fatalf("encode passes = %d, want 2", d.pass)
	}
	if d.bitrates[0] != 64 {
		t.Errorf("phase-1 bitrate = %d, want 64", d.bitrates[0])
	}
	if d.bitrates[1] != 54 {
		t.Errorf("phase-2 bitrate = %d, want 54", d.bitrates[1])
	}
	if res.FinalBitrateKbps != 54 {
		t.Errorf("FinalBitrateKbps = %d, want 54", res.FinalBitrateKbps)
	}
	if res.FinalSizeBytes > ceiling {
		t.Errorf("FinalSizeBytes = %d exceeds ceiling %d", res.FinalSizeBytes, ceiling)
	}
}

func TestConvertAutoBitrate(t *testing.T) {
	// Preferred 0 means the planner picks phase 1 from the duration.
	ceiling := int64(4 * 1024 * 1024)
	d := &fakeDriver{
		info:        &ffmpeg.AudioInfo{DurationSeconds: 600},
		outputSizes: []int64{ceiling - 1},
	}
	req := request(t, ceiling, 0)

	res, err := newEngine(d).Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if d.bitrates[0] != 54 {
		t.Errorf("auto phase-1 bitrate = %d, want 54", d.bitrates[0])
	}
	if res.FinalBitrateKbps != 54 {
		t.Errorf("FinalBitrateKbps = %d, want 54", res.FinalBitrateKbps)
	}
}

func TestConvertPreferredBitrateClamped(t *testing.T) {
	d := &fakeDriver{
		info:        &ffmpeg.AudioInfo{DurationSeconds: 60},
		outputSizes: []int64{100},
	}
	req := request(t, 1<<20, 512)

	res, err := newEngine(d).Convert(context.Background(), req)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if res.FinalBitrateKbps != 128 {
		t.Errorf("FinalBitrateKbps = %d, want clamped 128", res.FinalBitrateKbps)
	}
}

func TestConvertTooLong(t *testing.T) {
	// 12 hours under 4 MiB needs well under the 16 kbps floor.
	ceiling := int64(4 * 1024 * 1024)
	d := &fakeDriver{
		info:        &ffmpeg.AudioInfo{DurationSeconds: 12 * 3600},
		outputSizes: []int64{ceiling + 1},
	}
	req := request(t, ceiling, 64)

	_, err := newEngine(d).Convert(context.Background(), req)
	kind, ok := KindOf(err)
	if !ok || kind != TooLong {
		t.Fatalf("expected TooLong, got %v", err)
	}

	// No output may survive a rejection.
	if _, err := os.Stat(req.OutputPath); !os.IsNotExist(err) {
		t.Errorf("rejected job left output file behind")
	}
}

func TestConvertCannotFit(t *testing.T) {
	ceiling := int64(4 * 1024 * 1024)
	d := &fakeDriver{
		info:        &ffmpeg.AudioInfo{DurationSeconds: 600},
		outputSizes: []int64{ceiling + 1, ceiling + 1},
	}
	req := request(t, ceiling, 64)

	_, err := newEngine(d).Convert(context.Background(), req)
	kind, ok := KindOf(err)
	if !ok || kind != CannotFit {
		t.Fatalf("expected CannotFit, got %v", err)
	}
	if _, err := os.Stat(req.OutputPath); !os.IsNotExist(err) {
		t.Errorf("CannotFit left output file behind")
	}
}

func TestConvertProbeFailure(t *testing.T) {
	d := &fakeDriver{
		probeErr: &ffmpeg.ProbeError{Kind: ffmpeg.ProbeTool, Path: "in.wav"},
	}
	req := request(t, 1000, 64)

	_, err := newEngine(d).Convert(context.Background(), req)
	kind, ok := KindOf(err)
	if !ok || kind != ProbeFailed {
		t.Fatalf("expected ProbeFailed, got %v", err)
	}

	var perr *ffmpeg.ProbeError
	if !errors.As(err, &perr) {
		t.Error("driver error should remain unwrappable")
	}
}

func TestConvertZeroDurationRejected(t *testing.T) {
	d := &fakeDriver{info: &ffmpeg.AudioInfo{DurationSeconds: 0}}
	req := request(t, 1000, 64)

	_, err := newEngine(d).Convert(context.Background(), req)
	kind, ok := KindOf(err)
	if !ok || kind != ProbeFailed {
		t.Fatalf("expected ProbeFailed for zero duration, got %v", err)
	}
	if d.pass != 0 {
		t.Errorf("encoder invoked despite zero duration")
	}
}

func TestConvertEncodeFailureCleansPartial(t *testing.T) {
	encErr := &ffmpeg.EncodeError{Kind: ffmpeg.EncodeTool, Stderr: "corrupt input"}
	d := &fakeDriver{
		info:       &ffmpeg.AudioInfo{DurationSeconds: 600},
		encodeErrs: []error{encErr},
	}
	req := request(t, 1000, 64)

	// Simulate a partial file left by the failed encoder.
	if err := os.WriteFile(req.OutputPath, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := newEngine(d).Convert(context.Background(), req)
	kind, ok := KindOf(err)
	if !ok || kind != EncodeFailed {
		t.Fatalf("expected EncodeFailed, got %v", err)
	}
	if _, err := os.Stat(req.OutputPath); !os.IsNotExist(err) {
		t.Errorf("partial output not removed after encoder failure")
	}
}

func TestKindOf(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf must reject non-conversion errors")
	}
	kind, ok := KindOf(&Error{Kind: CannotFit})
	if !ok || kind != CannotFit {
		t.Errorf("KindOf = %v, %v", kind, ok)
	}
}

package ffmpeg

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// probeOutput mirrors the subset of ffprobe's JSON document we consume.
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
	BitRate    string `json:"bit_rate"`
	Size       string `json:"size"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// parseProbeOutput decodes ffprobe JSON into an AudioInfo. The first
// stream of type "audio" supplies sample rate and channel count.
func parseProbeOutput(data []byte) (*AudioInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ProbeError{Kind: ProbeParse, Err: err}
	}

	var audio *probeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "audio" {
			audio = &out.Streams[i]
			break
		}
	}
	if audio == nil {
		return nil, &ProbeError{Kind: ProbeNoAudio}
	}

	durationSec, err := parseDurationSeconds(out.Format.Duration)
	if err != nil {
		return nil, &ProbeError{Kind: ProbeParse, Err: err}
	}

	info := &AudioInfo{
		DurationSeconds: durationSec,
		Format:          out.Format.FormatName,
		Channels:        audio.Channels,
	}

	// bit_rate, size and sample_rate arrive as strings and may be absent
	if out.Format.BitRate != "" {
		if v, err := strconv.ParseInt(out.Format.BitRate, 10, 64); err == nil {
			info.BitrateBps = v
		}
	}
	if out.Format.Size != "" {
		if v, err := strconv.ParseInt(out.Format.Size, 10, 64); err == nil {
			info.SizeBytes = v
		}
	}
	if audio.SampleRate != "" {
		if v, err := strconv.Atoi(audio.SampleRate); err == nil {
			info.SampleRateHz = v
		}
	}

	return info, nil
}

func parseDurationSeconds(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("missing duration")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return int(math.Round(f)), nil
}

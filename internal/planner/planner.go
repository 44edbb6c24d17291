package planner

import (
	"audio-converter/internal/logging"
)

const (
	// DefaultFloorKbps is the lowest bitrate considered acceptable quality.
	DefaultFloorKbps = 16
	// DefaultCapKbps is the highest bitrate worth spending on speech audio.
	DefaultCapKbps = 128

	// fallbackKbps is returned when the duration is unusable.
	fallbackKbps = 64
)

// Planner chooses encode bitrates within a fixed [floor, cap] range.
type Planner struct {
	FloorKbps int
	CapKbps   int
}

// New creates a Planner with the given bounds. Non-positive bounds fall
// back to the defaults.
func New(floorKbps, capKbps int) *Planner {
	if floorKbps <= 0 {
		floorKbps = DefaultFloorKbps
	}
	if capKbps <= 0 {
		capKbps = DefaultCapKbps
	}
	return &Planner{FloorKbps: floorKbps, CapKbps: capKbps}
}

// Raw returns the unclamped bitrate in kbps that would exactly fill
// ceilingBytes over durationSeconds. Returns fallbackKbps for a
// non-positive duration.
func (p *Planner) Raw(durationSeconds int, ceilingBytes int64) int {
	if durationSeconds <= 0 {
		logging.Warn("planner called with non-positive duration %d, using %d kbps", durationSeconds, fallbackKbps)
		return fallbackKbps
	}
	bitsPerSecond := ceilingBytes * 8 / int64(durationSeconds)
	return int(bitsPerSecond / 1024)
}

// Plan returns the bitrate in kbps for a file of durationSeconds that
// must fit under ceilingBytes, clamped to [FloorKbps, CapKbps].
func (p *Planner) Plan(durationSeconds int, ceilingBytes int64) int {
	return p.Clamp(p.Raw(durationSeconds, ceilingBytes))
}

// Clamp forces kbps into the planner's [floor, cap] range.
func (p *Planner) Clamp(kbps int) int {
	if kbps < p.FloorKbps {
		return p.FloorKbps
	}
	if kbps > p.CapKbps {
		return p.CapKbps
	}
	return kbps
}

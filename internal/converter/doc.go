// Package converter orchestrates the adaptive two-phase transcode that
// guarantees an MP3 output under a byte ceiling.
//
// Phase 1 encodes at the preferred bitrate and measures the result. If
// the output overruns the ceiling, the engine deletes it, asks the
// planner for a bitrate that fits the measured duration, and encodes
// exactly once more. Files too long to fit at acceptable quality are
// rejected rather than iteratively shrunk.
package converter

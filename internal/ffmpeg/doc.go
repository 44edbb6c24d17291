// Package ffmpeg wraps the external ffmpeg/ffprobe binaries behind a
// small driver with context-bound timeouts and typed errors.
//
// The driver exposes three operations: Probe extracts duration and
// format metadata from a source file via ffprobe's JSON output, Duration
// is a narrower convenience over Probe, and Encode produces an MP3
// (libmp3lame) at a requested average bitrate, optionally running the
// loudnorm filter.
//
// Each invocation spawns its own subprocess; the package keeps no
// process-wide pool. Stderr is captured and truncated to a short snippet
// so diagnostics can be logged without flooding.
package ffmpeg

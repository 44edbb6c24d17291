package ffmpeg

import "fmt"

// stderrSnippetLen bounds how much subprocess stderr is carried in errors.
const stderrSnippetLen = 200

// ProbeErrorKind classifies ffprobe failures.
type ProbeErrorKind int

const (
	// ProbeNotFound means the probe binary is missing from the system.
	ProbeNotFound ProbeErrorKind = iota
	// ProbeTimeout means the probe exceeded its deadline.
	ProbeTimeout
	// ProbeParse means ffprobe output could not be decoded.
	ProbeParse
	// ProbeNoAudio means the file carries no audio stream.
	ProbeNoAudio
	// ProbeTool means ffprobe exited non-zero.
	ProbeTool
)

func (k ProbeErrorKind) String() string {
	switch k {
	case ProbeNotFound:
		return "not_found"
	case ProbeTimeout:
		return "timeout"
	case ProbeParse:
		return "parse_error"
	case ProbeNoAudio:
		return "no_audio_stream"
	case ProbeTool:
		return "tool_error"
	default:
		return "unknown"
	}
}

// ProbeError reports a failed probe of a source file.
type ProbeError struct {
	Kind   ProbeErrorKind
	Path   string
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("probe %s: %s: %s", e.Path, e.Kind, e.Stderr)
	}
	if e.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("probe %s: %s", e.Path, e.Kind)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// EncodeErrorKind classifies ffmpeg encode failures.
type EncodeErrorKind int

const (
	// EncodeTimeout means the encode exceeded its deadline.
	EncodeTimeout EncodeErrorKind = iota
	// EncodeTool means ffmpeg exited non-zero.
	EncodeTool
	// EncodeOutputMissing means ffmpeg reported success but wrote nothing.
	EncodeOutputMissing
	// EncodeOutputEmpty means the output file exists but has zero bytes.
	EncodeOutputEmpty
)

func (k EncodeErrorKind) String() string {
	switch k {
	case EncodeTimeout:
		return "timeout"
	case EncodeTool:
		return "tool_error"
	case EncodeOutputMissing:
		return "output_missing"
	case EncodeOutputEmpty:
		return "output_empty"
	default:
		return "unknown"
	}
}

// EncodeError reports a failed encode invocation.
type EncodeError struct {
	Kind   EncodeErrorKind
	Output string
	Stderr string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("encode %s: %s: %s", e.Output, e.Kind, e.Stderr)
	}
	if e.Err != nil {
		return fmt.Sprintf("encode %s: %s: %v", e.Output, e.Kind, e.Err)
	}
	return fmt.Sprintf("encode %s: %s", e.Output, e.Kind)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// truncateStderr trims subprocess stderr to a bounded snippet.
func truncateStderr(s string) string {
	if len(s) <= stderrSnippetLen {
		return s
	}
	return s[:stderrSnippetLen] + "..."
}

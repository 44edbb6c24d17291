package handlers

import "fmt"

// BitrateChoice is the parsed form of the upload form's bitrate field:
// either a fixed bitrate or "auto", where the planner decides.
type BitrateChoice struct {
	Auto bool
	Kbps int
}

// parseBitrateChoice accepts exactly the values the upload form offers.
func parseBitrateChoice(value string) (BitrateChoice, error) {
	switch value {
	case "", "auto":
		return BitrateChoice{Auto: true}, nil
	case "64":
		return BitrateChoice{Kbps: 64}, nil
	case "48":
		return BitrateChoice{Kbps: 48}, nil
	case "32":
		return BitrateChoice{Kbps: 32}, nil
	default:
		return BitrateChoice{}, fmt.Errorf("unsupported bitrate %q", value)
	}
}

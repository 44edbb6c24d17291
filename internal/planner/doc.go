// Package planner computes the MP3 bitrate that fits an audio file of a
// known duration under a byte ceiling.
//
// The planner is a pure function of duration and ceiling: the bits that
// would exactly fill the ceiling are spread over the duration and the
// result is clamped to the configured [floor, cap] range. It holds no
// state beyond its bounds and performs no I/O.
package planner

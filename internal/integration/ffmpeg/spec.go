package ffmpeg

import (
	"strconv"
	"time"

	"github.com/farcloser/consonance/internal/types"
)

const (
	name = "ffmpeg"
	// Decoding a full album-length file from a slow disk can take a while.
	timeout = 5 * time.Minute
)

// codec returns the raw PCM codec and muxer for a bit depth (s16le, s24le, s32le).
func codec(bitDepth types.BitDepth) string {
	//nolint:gosec // bit depth is a small constant
	return "pcm_s" + strconv.Itoa(int(bitDepth)) + "le"
}

func muxer(bitDepth types.BitDepth) string {
	//nolint:gosec // bit depth is a small constant
	return "s" + strconv.Itoa(int(bitDepth)) + "le"
}

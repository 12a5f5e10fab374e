package fetch

import (
	"github.com/m3rciful/mediabot/internal/media"
)

const (
	StrategyPrimary  = "primary"
	StrategyFallback = "fallback"
)

// Formats holds the normalisation targets of the primary strategy.
type Formats struct {
	AudioCodec     string
	AudioBitrate   string
	VideoContainer string
}

// Strategy is a format request plus optional post-processing.
type Strategy struct {
	Name   string
	Format string
	// ExtractAudio, when set, transcodes the result to this codec at AudioQuality.
	ExtractAudio string
	AudioQuality string
	// MergeContainer, when set, remuxes separate streams into this container.
	MergeContainer string
}

// Plan returns the primary and fallback strategies for mode.
// The fallback drops post-processing so restricted sources still succeed.
func Plan(mode media.Mode, f Formats) (primary, fallback Strategy) {
	if mode == media.Video {
		primary = Strategy{
			Name:           StrategyPrimary,
			Format:         "bestvideo+bestaudio/best",
			MergeContainer: f.VideoContainer,
		}
		fallback = Strategy{Name: StrategyFallback, Format: "best"}
		return primary, fallback
	}
	primary = Strategy{
		Name:         StrategyPrimary,
		Format:       "bestaudio/best",
		ExtractAudio: f.AudioCodec,
		AudioQuality: f.AudioBitrate,
	}
	fallback = Strategy{Name: StrategyFallback, Format: "bestaudio"}
	return primary, fallback
}

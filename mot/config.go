package mot

import (
	"github.com/pkg/errors"
)

// Matcher names accepted by Config.Matcher.
const (
	MatcherHungarian = "hungarian"
	MatcherGreedy    = "greedy"
)

// ErrInvalidConfig is the cause of every Validate failure.
var ErrInvalidConfig = errors.New("invalid tracker config")

// Default tuning values.
var (
	DefaultTrackThresh = 0.6
	DefaultTrackBuffer = 30
	DefaultMatchThresh = 0.8
	DefaultMinBoxArea  = 100.0
	DefaultFrameRate   = 30.0
)

// Config holds the association tuning of one tracker.
type Config struct {
	// TrackThresh splits detections into high (>=) and low confidence sets.
	TrackThresh float64 `json:"track_thresh"`
	// TrackBuffer is the number of consecutive lost frames tolerated before removal.
	TrackBuffer int `json:"track_buffer"`
	// MatchThresh is the minimum IoU for a track/detection pair to be accepted.
	MatchThresh float64 `json:"match_thresh"`
	// MinBoxArea is the minimum area of a detection that may start a new track.
	MinBoxArea float64 `json:"min_box_area"`
	// FrameRate sets the default prediction horizon of 1/FrameRate seconds.
	FrameRate float64 `json:"frame_rate"`
	// Matcher is either "hungarian" or "greedy".
	Matcher string `json:"matcher"`
	// UsePrediction matches against boxes extrapolated with the track velocity rather than the
	// last observed boxes.
	UsePrediction bool `json:"use_prediction"`
}

// DefaultConfig returns the standard ByteTrack tuning.
func DefaultConfig() Config {
	return Config{
		TrackThresh: DefaultTrackThresh,
		TrackBuffer: DefaultTrackBuffer,
		MatchThresh: DefaultMatchThresh,
		MinBoxArea:  DefaultMinBoxArea,
		FrameRate:   DefaultFrameRate,
		Matcher:     MatcherHungarian,
	}
}

// Validate checks that every threshold is usable.
func (cfg Config) Validate() error {
	if cfg.TrackThresh < 0 || cfg.TrackThresh > 1 {
		return errors.Wrapf(ErrInvalidConfig, "track_thresh must be between 0.0 and 1.0, got %v", cfg.TrackThresh)
	}
	if cfg.TrackBuffer < 0 {
		return errors.Wrapf(ErrInvalidConfig, "track_buffer cannot be less than 0, got %d", cfg.TrackBuffer)
	}
	if cfg.MatchThresh <= 0 || cfg.MatchThresh > 1 {
		return errors.Wrapf(ErrInvalidConfig, "match_thresh must be in (0.0, 1.0], got %v", cfg.MatchThresh)
	}
	if cfg.MinBoxArea < 0 {
		return errors.Wrapf(ErrInvalidConfig, "min_box_area cannot be less than 0, got %v", cfg.MinBoxArea)
	}
	if cfg.FrameRate <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "frame_rate must be a positive number, got %v", cfg.FrameRate)
	}
	switch cfg.Matcher {
	case MatcherHungarian, MatcherGreedy:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown matcher %q", cfg.Matcher)
	}
	return nil
}

// Horizon is the default prediction horizon in seconds.
func (cfg Config) Horizon() float64 {
	return 1 / cfg.FrameRate
}

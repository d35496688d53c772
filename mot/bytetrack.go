package mot

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
)

// removedCapacity bounds how many removed tracks are kept for lookups.
const removedCapacity = 100

// ByteTracker associates detections to tracks in two stages: high confidence detections are
// matched against every live track first, then tracks left over are given a second chance
// against the low confidence detections. It is not safe for concurrent use.
type ByteTracker struct {
	cfg       Config
	matcher   Matcher
	relations Relations
	logger    logging.Logger

	frameID       int
	nextID        int
	lastTimestamp float64

	tracked      []*Track
	lost         []*Track
	removed      []*Track
	removedCount int
}

// NewByteTracker validates cfg and returns an empty tracker.
func NewByteTracker(cfg Config, relations Relations, logger logging.Logger) (*ByteTracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := relations.Validate(); err != nil {
		return nil, err
	}
	matcher, err := NewMatcher(cfg.Matcher)
	if err != nil {
		return nil, err
	}
	return &ByteTracker{
		cfg:       cfg,
		matcher:   matcher,
		relations: relations,
		logger:    logger,
	}, nil
}

// Config returns the tuning of the tracker.
func (bt *ByteTracker) Config() Config {
	return bt.cfg
}

// Update runs one frame through the tracker and returns the live tracks (New, Tracked and Lost),
// ordered by id.
func (bt *ByteTracker) Update(dets []Detection, timestamp float64) ([]*Track, error) {
	bt.frameID++
	if bt.frameID > 1 && timestamp < bt.lastTimestamp {
		bt.logger.Warnw("timestamp went backwards, velocities will be skipped",
			"frame", bt.frameID, "timestamp", timestamp, "previous", bt.lastTimestamp)
	}
	bt.lastTimestamp = timestamp

	var high, low []Detection
	for _, d := range dets {
		if !d.Box.IsFinite() || math.IsNaN(d.Confidence) {
			bt.logger.Warnw("skipping malformed detection", "frame", bt.frameID, "class", d.ClassName)
			continue
		}
		if d.Confidence >= bt.cfg.TrackThresh {
			high = append(high, d)
		} else {
			low = append(low, d)
		}
	}

	pool := make([]*Track, 0, len(bt.tracked)+len(bt.lost))
	pool = append(pool, bt.tracked...)
	pool = append(pool, bt.lost...)
	matched := make([]bool, len(pool))

	// stage 1: every live track against high confidence detections
	boxes := bt.matchBoxes(pool, timestamp)
	firstMatches, err := bt.matcher.Match(IoUMatrix(boxes, high), bt.cfg.MatchThresh)
	if err != nil {
		return nil, errors.Wrapf(err, "first association stage failed on frame %d", bt.frameID)
	}
	highUsed := make([]bool, len(high))
	for _, m := range firstMatches {
		pool[m.Track].Update(high[m.Detection], bt.frameID)
		matched[m.Track] = true
		highUsed[m.Detection] = true
	}

	// stage 2: tracks that were live before this frame against low confidence detections
	var second []int
	for i, tr := range pool {
		if !matched[i] && tr.IsActive() {
			second = append(second, i)
		}
	}
	secondBoxes := make([]Box, len(second))
	for k, i := range second {
		secondBoxes[k] = boxes[i]
	}
	secondMatches, err := bt.matcher.Match(IoUMatrix(secondBoxes, low), bt.cfg.MatchThresh)
	if err != nil {
		return nil, errors.Wrapf(err, "second association stage failed on frame %d", bt.frameID)
	}
	for _, m := range secondMatches {
		i := second[m.Track]
		pool[i].Update(low[m.Detection], bt.frameID)
		matched[i] = true
	}

	for i, tr := range pool {
		if !matched[i] {
			tr.MarkLost()
		}
	}

	bt.tracked = bt.tracked[:0:0]
	bt.lost = bt.lost[:0:0]
	for _, tr := range pool {
		switch {
		case tr.State != StateLost:
			bt.tracked = append(bt.tracked, tr)
		case tr.FramesLost > bt.cfg.TrackBuffer:
			bt.remove(tr)
		default:
			tr.Derived = nil
			bt.lost = append(bt.lost, tr)
		}
	}

	for j, d := range high {
		if highUsed[j] || !bt.canStartTrack(d) {
			continue
		}
		bt.nextID++
		tr := newTrack(bt.nextID, d, bt.frameID)
		bt.tracked = append(bt.tracked, tr)
		bt.logger.Debugw("new track", "id", tr.ID, "category", tr.Category, "frame", bt.frameID)
	}

	sortByID(bt.tracked)
	sortByID(bt.lost)
	bt.relations.Apply(bt.tracked)
	return bt.Tracks(), nil
}

// matchBoxes returns the lookup box of each track for this association pass. With prediction on,
// every track is extrapolated to the frame timestamp, falling back to the default horizon when
// no time has elapsed.
func (bt *ByteTracker) matchBoxes(tracks []*Track, timestamp float64) []Box {
	boxes := make([]Box, len(tracks))
	for i, tr := range tracks {
		if !bt.cfg.UsePrediction {
			boxes[i] = tr.Box
			continue
		}
		dt := timestamp - tr.LastTimestamp()
		if dt <= 0 {
			dt = bt.cfg.Horizon()
		}
		boxes[i] = tr.Predict(dt)
	}
	return boxes
}

// canStartTrack rejects degenerate boxes and boxes smaller than MinBoxArea.
func (bt *ByteTracker) canStartTrack(d Detection) bool {
	area := d.Box.Area()
	return area > 0 && area >= bt.cfg.MinBoxArea
}

func (bt *ByteTracker) remove(tr *Track) {
	tr.MarkRemoved()
	tr.Derived = nil
	bt.removedCount++
	if len(bt.removed) == removedCapacity {
		bt.removed = bt.removed[1:]
	}
	bt.removed = append(bt.removed, tr)
	bt.logger.Debugw("removed track", "id", tr.ID, "category", tr.Category, "frames_lost", tr.FramesLost)
}

func sortByID(tracks []*Track) {
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
}

// Tracks returns the New, Tracked and Lost tracks ordered by id.
func (bt *ByteTracker) Tracks() []*Track {
	out := make([]*Track, 0, len(bt.tracked)+len(bt.lost))
	out = append(out, bt.tracked...)
	out = append(out, bt.lost...)
	sortByID(out)
	return out
}

// Tracked returns the New and Tracked tracks.
func (bt *ByteTracker) Tracked() []*Track {
	return append([]*Track(nil), bt.tracked...)
}

// Lost returns the tracks waiting to be matched again or removed.
func (bt *ByteTracker) Lost() []*Track {
	return append([]*Track(nil), bt.lost...)
}

// Removed returns the most recently removed tracks, oldest first.
func (bt *ByteTracker) Removed() []*Track {
	return append([]*Track(nil), bt.removed...)
}

// RemovedCount is the number of tracks removed since the tracker was created.
func (bt *ByteTracker) RemovedCount() int {
	return bt.removedCount
}

// TotalCreated is the number of tracks ever created. Ids run from 1 to TotalCreated.
func (bt *ByteTracker) TotalCreated() int {
	return bt.nextID
}

// FrameID is the number of frames processed.
func (bt *ByteTracker) FrameID() int {
	return bt.frameID
}

// Get looks up a live or recently removed track by id.
func (bt *ByteTracker) Get(id int) (*Track, bool) {
	for _, group := range [][]*Track{bt.tracked, bt.lost, bt.removed} {
		for _, tr := range group {
			if tr.ID == id {
				return tr, true
			}
		}
	}
	return nil, false
}

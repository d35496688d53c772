package mot

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// State is the lifecycle state of a track.
type State string

// Track lifecycle: New -> Tracked -> Lost -> Removed. Lost tracks return to Tracked when matched
// again; Removed is terminal.
const (
	StateNew     State = "new"
	StateTracked State = "tracked"
	StateLost    State = "lost"
	StateRemoved State = "removed"
)

// HistoryCapacity is the number of observations each track keeps.
const HistoryCapacity = 30

// Vec2 is a 2D vector, used for velocity and acceleration.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Norm returns the length of the vector.
func (v Vec2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// HistoryPoint is one past observation of a track.
type HistoryPoint struct {
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
	Timestamp  float64 `json:"timestamp"`
	Velocity   Vec2    `json:"velocity"`
}

// history is a fixed-length queue of observations; the oldest point is dropped when full.
type history struct {
	points []HistoryPoint
	size   int
}

func newHistory(size int) *history {
	return &history{
		points: make([]HistoryPoint, 0, size),
		size:   size,
	}
}

func (h *history) append(p HistoryPoint) {
	if len(h.points) == h.size {
		h.points = h.points[1:]
	}
	h.points = append(h.points, p)
}

func (h *history) last() HistoryPoint {
	return h.points[len(h.points)-1]
}

// Track is a persistent identity for one physical object.
type Track struct {
	ID           int
	Category     Category
	ClassName    string
	State        State
	Box          Box
	Confidence   float64
	Velocity     Vec2
	Acceleration Vec2

	FramesTracked int
	FramesLost    int
	FirstFrame    int
	LastFrame     int

	// Derived is recomputed after every frame; nil for categories without relations.
	Derived Derived

	predicted *Box
	history   *history
}

func newTrack(id int, det Detection, frameID int) *Track {
	tr := &Track{
		ID:            id,
		Category:      det.Category,
		ClassName:     det.ClassName,
		State:         StateNew,
		Box:           det.Box,
		Confidence:    det.Confidence,
		FramesTracked: 1,
		FirstFrame:    frameID,
		LastFrame:     frameID,
		history:       newHistory(HistoryCapacity),
	}
	tr.history.append(HistoryPoint{Box: det.Box, Confidence: det.Confidence, Timestamp: det.Timestamp})
	return tr
}

// Update applies a matched detection to the track and refreshes its kinematic estimate from the
// two most recent observations. The category of the track never changes.
func (tr *Track) Update(det Detection, frameID int) {
	prev := tr.history.last()
	if dt := det.Timestamp - prev.Timestamp; dt > 0 {
		cx, cy := det.Box.Center()
		px, py := prev.Box.Center()
		vel := Vec2{(cx - px) / dt, (cy - py) / dt}
		// the first observation carries no velocity estimate to difference against
		if len(tr.history.points) >= 2 {
			tr.Acceleration = Vec2{(vel.X - prev.Velocity.X) / dt, (vel.Y - prev.Velocity.Y) / dt}
		}
		tr.Velocity = vel
	}
	tr.Box = det.Box
	tr.Confidence = det.Confidence
	tr.history.append(HistoryPoint{
		Box:        det.Box,
		Confidence: det.Confidence,
		Timestamp:  det.Timestamp,
		Velocity:   tr.Velocity,
	})
	tr.FramesTracked++
	tr.FramesLost = 0
	tr.LastFrame = frameID
	tr.State = StateTracked
	tr.predicted = nil
}

// MarkLost records a frame without a matching detection. Kinematics are left untouched.
func (tr *Track) MarkLost() {
	tr.State = StateLost
	tr.FramesLost++
}

// MarkRemoved retires the track for good.
func (tr *Track) MarkRemoved() {
	tr.State = StateRemoved
}

// IsActive reports whether the track takes part in matching as a live track (New or Tracked).
func (tr *Track) IsActive() bool {
	return tr.State == StateNew || tr.State == StateTracked
}

// Predict returns the box translated by v*dt + a*dt^2/2. Only the auxiliary predicted box is
// stored; Box is not modified.
func (tr *Track) Predict(dt float64) Box {
	dx := tr.Velocity.X*dt + 0.5*tr.Acceleration.X*dt*dt
	dy := tr.Velocity.Y*dt + 0.5*tr.Acceleration.Y*dt*dt
	pred := tr.Box.Translate(dx, dy)
	tr.predicted = &pred
	return pred
}

// Predicted returns the last prediction made for the track, if any.
func (tr *Track) Predicted() (Box, bool) {
	if tr.predicted == nil {
		return Box{}, false
	}
	return *tr.predicted, true
}

// LastTimestamp is the timestamp of the latest matched observation.
func (tr *Track) LastTimestamp() float64 {
	return tr.history.last().Timestamp
}

// History returns a copy of the observation buffer, oldest first.
func (tr *Track) History() []HistoryPoint {
	out := make([]HistoryPoint, len(tr.history.points))
	copy(out, tr.history.points)
	return out
}

// HistoryLen returns the number of buffered observations.
func (tr *Track) HistoryLen() int {
	return len(tr.history.points)
}

// MeanSpeed averages the speed of the last n observations. The first observation of a track has
// no velocity estimate and is never counted, so at least two observations are required.
func (tr *Track) MeanSpeed(n int) (float64, bool) {
	pts := tr.history.points
	if len(pts) < 2 || n <= 0 {
		return 0, false
	}
	start := len(pts) - n
	if start < 1 {
		start = 1
	}
	speeds := make([]float64, 0, len(pts)-start)
	for _, p := range pts[start:] {
		speeds = append(speeds, p.Velocity.Norm())
	}
	return stat.Mean(speeds, nil), true
}

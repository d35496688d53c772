package mot

import (
	"math"

	"github.com/pkg/errors"
)

// Movement is a coarse label for how fast a player moves.
type Movement string

// Movement labels, slowest first.
const (
	MovementUnknown Movement = "unknown"
	MovementStatic  Movement = "static"
	MovementWalking Movement = "walking"
	MovementJogging Movement = "jogging"
	MovementRunning Movement = "running"
)

// FlightPhase describes the vertical motion of a ball in image coordinates, where y grows
// downwards.
type FlightPhase string

// Flight phases.
const (
	FlightUnknown    FlightPhase = "unknown"
	FlightAscending  FlightPhase = "ascending"
	FlightDescending FlightPhase = "descending"
	FlightHorizontal FlightPhase = "horizontal"
)

// Severity grades a close contact between two players.
type Severity string

// Contact severities.
const (
	SeverityNone   Severity = ""
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Derived holds the relational fields of a track. The concrete type is fixed by the track
// category: *PlayerDerived for players, *BallDerived for balls.
type Derived interface {
	category() Category
}

// Interaction is the distance from a player to one other player.
type Interaction struct {
	OtherID      int      `json:"other_id"`
	Distance     float64  `json:"distance"`
	CloseContact bool     `json:"close_contact"`
	Severity     Severity `json:"severity,omitempty"`
}

// PlayerDerived are the relational fields of a player track.
type PlayerDerived struct {
	Zone          string        `json:"zone"`
	Movement      Movement      `json:"movement"`
	MeanSpeed     float64       `json:"mean_speed"`
	HasPossession bool          `json:"has_possession"`
	Interactions  []Interaction `json:"interactions"`
}

func (*PlayerDerived) category() Category { return CategoryPlayer }

// Trajectory is the recent motion of a ball.
type Trajectory struct {
	Phase FlightPhase `json:"phase"`
	Speed float64     `json:"speed"`
	// Direction is atan2(vy, vx) in radians.
	Direction float64 `json:"direction"`
}

// BallDerived are the relational fields of a ball track.
type BallDerived struct {
	Zone       string     `json:"zone"`
	Trajectory Trajectory `json:"trajectory"`
	// PossessionCandidate is the id of the closest player within the possession distance;
	// nil means a loose ball.
	PossessionCandidate *int `json:"possession_candidate"`
	// NearestPlayerDistance is -1 when there are no players.
	NearestPlayerDistance float64 `json:"nearest_player_distance"`
}

func (*BallDerived) category() Category { return CategoryBall }

// PlayerData returns the player fields of a player track.
func (tr *Track) PlayerData() (*PlayerDerived, bool) {
	pd, ok := tr.Derived.(*PlayerDerived)
	return pd, ok
}

// BallData returns the ball fields of a ball track.
func (tr *Track) BallData() (*BallDerived, bool) {
	bd, ok := tr.Derived.(*BallDerived)
	return bd, ok
}

// SpeedBands are the exclusive upper speed bounds, in box units per second, of the static,
// walking and jogging labels. Anything faster is running.
type SpeedBands struct {
	Static  float64 `json:"static"`
	Walking float64 `json:"walking"`
	Jogging float64 `json:"jogging"`
}

// FieldExtent is the size of the playing area in box units. A zero extent disables zones.
type FieldExtent struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Relations derives cross-track fields after every frame. Results are best effort: missing
// history produces unknown labels, never errors.
type Relations struct {
	PossessionDistance float64
	CollisionDistance  float64
	SpeedBands         SpeedBands
	MovementWindow     int
	TrajectoryWindow   int
	VerticalTolerance  float64
	Field              FieldExtent
}

// Default relation settings.
var (
	DefaultPossessionDistance = 50.0
	DefaultCollisionDistance  = 30.0
	DefaultSpeedBands         = SpeedBands{Static: 10, Walking: 60, Jogging: 150}
)

// DefaultRelations returns the relation settings used when a sport does not override them.
func DefaultRelations() Relations {
	return Relations{
		PossessionDistance: DefaultPossessionDistance,
		CollisionDistance:  DefaultCollisionDistance,
		SpeedBands:         DefaultSpeedBands,
		MovementWindow:     5,
		TrajectoryWindow:   3,
		VerticalTolerance:  1,
	}
}

// Validate rejects negative distances and unordered speed bands.
func (r Relations) Validate() error {
	if r.PossessionDistance < 0 {
		return errors.Wrapf(ErrInvalidConfig, "possession distance cannot be less than 0, got %v", r.PossessionDistance)
	}
	if r.CollisionDistance < 0 {
		return errors.Wrapf(ErrInvalidConfig, "collision distance cannot be less than 0, got %v", r.CollisionDistance)
	}
	b := r.SpeedBands
	if b.Static < 0 || b.Walking < b.Static || b.Jogging < b.Walking {
		return errors.Wrapf(ErrInvalidConfig, "speed bands must be non-negative and increasing, got %+v", b)
	}
	return nil
}

// Apply recomputes the derived fields of every track. Only New and Tracked tracks should be
// passed in.
func (r Relations) Apply(tracks []*Track) {
	var players, balls []*Track
	for _, tr := range tracks {
		switch tr.Category {
		case CategoryPlayer:
			players = append(players, tr)
		case CategoryBall:
			balls = append(balls, tr)
		default:
			tr.Derived = nil
		}
	}

	playerData := make([]*PlayerDerived, len(players))
	for i, p := range players {
		pd := &PlayerDerived{
			Zone:     r.zone(p.Box),
			Movement: MovementUnknown,
		}
		if speed, ok := p.MeanSpeed(r.MovementWindow); ok {
			pd.MeanSpeed = speed
			pd.Movement = r.classifyMovement(speed)
		}
		playerData[i] = pd
		p.Derived = pd
	}

	for i := range players {
		for j := i + 1; j < len(players); j++ {
			d := Distance(players[i].Box, players[j].Box)
			contact, severity := r.contact(d)
			playerData[i].Interactions = append(playerData[i].Interactions,
				Interaction{OtherID: players[j].ID, Distance: d, CloseContact: contact, Severity: severity})
			playerData[j].Interactions = append(playerData[j].Interactions,
				Interaction{OtherID: players[i].ID, Distance: d, CloseContact: contact, Severity: severity})
		}
	}

	for _, b := range balls {
		bd := &BallDerived{
			Zone:                  r.zone(b.Box),
			Trajectory:            r.trajectory(b),
			NearestPlayerDistance: -1,
		}
		nearest := -1
		for i, p := range players {
			d := Distance(b.Box, p.Box)
			if nearest == -1 || d < bd.NearestPlayerDistance {
				nearest, bd.NearestPlayerDistance = i, d
			}
		}
		if nearest >= 0 && bd.NearestPlayerDistance < r.PossessionDistance {
			id := players[nearest].ID
			bd.PossessionCandidate = &id
			playerData[nearest].HasPossession = true
		}
		b.Derived = bd
	}
}

func (r Relations) contact(distance float64) (bool, Severity) {
	switch {
	case distance < r.CollisionDistance/2:
		return true, SeverityHigh
	case distance < r.CollisionDistance:
		return true, SeverityMedium
	default:
		return false, SeverityNone
	}
}

func (r Relations) classifyMovement(speed float64) Movement {
	switch {
	case speed < r.SpeedBands.Static:
		return MovementStatic
	case speed < r.SpeedBands.Walking:
		return MovementWalking
	case speed < r.SpeedBands.Jogging:
		return MovementJogging
	default:
		return MovementRunning
	}
}

func (r Relations) trajectory(tr *Track) Trajectory {
	traj := Trajectory{
		Phase:     FlightUnknown,
		Speed:     tr.Velocity.Norm(),
		Direction: math.Atan2(tr.Velocity.Y, tr.Velocity.X),
	}
	pts := tr.history.points
	if r.TrajectoryWindow < 2 || len(pts) < r.TrajectoryWindow {
		return traj
	}
	window := pts[len(pts)-r.TrajectoryWindow:]
	_, firstY := window[0].Box.Center()
	_, lastY := window[len(window)-1].Box.Center()
	switch dy := lastY - firstY; {
	case dy < -r.VerticalTolerance:
		traj.Phase = FlightAscending
	case dy > r.VerticalTolerance:
		traj.Phase = FlightDescending
	default:
		traj.Phase = FlightHorizontal
	}
	return traj
}

// zone splits the field width into thirds.
func (r Relations) zone(b Box) string {
	if r.Field.Width <= 0 {
		return "unknown"
	}
	cx, _ := b.Center()
	switch {
	case cx < r.Field.Width/3:
		return "defensive_third"
	case cx < 2*r.Field.Width/3:
		return "middle_third"
	default:
		return "attacking_third"
	}
}

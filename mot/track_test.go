package mot

import (
	"testing"

	"go.viam.com/test"
)

const frameDt = 1.0 / 30

func playerAt(x, y, ts float64) Detection {
	return NewDetection(Box{x, y, x + 20, y + 20}, 0.9, 0, "player", ts)
}

func TestTrackKinematics(t *testing.T) {
	tr := newTrack(1, playerAt(0, 0, 0), 1)
	test.That(t, tr.State, test.ShouldEqual, StateNew)
	test.That(t, tr.FramesTracked, test.ShouldEqual, 1)
	test.That(t, tr.Velocity, test.ShouldResemble, Vec2{})

	tr.Update(playerAt(3, 0, 1), 2)
	test.That(t, tr.State, test.ShouldEqual, StateTracked)
	test.That(t, tr.Velocity, test.ShouldResemble, Vec2{3, 0})
	// no earlier velocity estimate to difference against
	test.That(t, tr.Acceleration, test.ShouldResemble, Vec2{})

	tr.Update(playerAt(8, 2, 2), 3)
	test.That(t, tr.Velocity, test.ShouldResemble, Vec2{5, 2})
	test.That(t, tr.Acceleration, test.ShouldResemble, Vec2{2, 2})
	test.That(t, tr.FramesTracked, test.ShouldEqual, 3)
	test.That(t, tr.LastFrame, test.ShouldEqual, 3)
	test.That(t, tr.FirstFrame, test.ShouldEqual, 1)

	pred := tr.Predict(1)
	// v*dt + a*dt^2/2 = (5+1, 2+1)
	test.That(t, pred, test.ShouldResemble, Box{14, 5, 34, 25})
	test.That(t, tr.Box, test.ShouldResemble, Box{8, 2, 28, 22})
	got, ok := tr.Predicted()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldResemble, pred)

	// a matched update clears the prediction
	tr.Update(playerAt(8, 2, 3), 4)
	_, ok = tr.Predicted()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestTrackZeroDtKeepsVelocity(t *testing.T) {
	tr := newTrack(1, playerAt(0, 0, 1), 1)
	tr.Update(playerAt(2, 0, 2), 2)
	tr.Update(playerAt(50, 0, 2), 3)
	test.That(t, tr.Velocity, test.ShouldResemble, Vec2{2, 0})
	test.That(t, tr.Box, test.ShouldResemble, Box{50, 0, 70, 20})
}

func TestTrackLostKeepsKinematics(t *testing.T) {
	tr := newTrack(1, playerAt(0, 0, 0), 1)
	tr.Update(playerAt(3, 0, 1), 2)
	tr.MarkLost()
	tr.MarkLost()
	test.That(t, tr.State, test.ShouldEqual, StateLost)
	test.That(t, tr.FramesLost, test.ShouldEqual, 2)
	test.That(t, tr.FramesTracked, test.ShouldEqual, 2)
	test.That(t, tr.Velocity, test.ShouldResemble, Vec2{3, 0})
	test.That(t, tr.IsActive(), test.ShouldBeFalse)

	tr.Update(playerAt(9, 0, 3), 5)
	test.That(t, tr.FramesLost, test.ShouldEqual, 0)
	test.That(t, tr.State, test.ShouldEqual, StateTracked)
}

func TestTrackHistoryIsBounded(t *testing.T) {
	tr := newTrack(1, playerAt(0, 0, 0), 1)
	for i := 1; i < 45; i++ {
		tr.Update(playerAt(float64(i), 0, float64(i)*frameDt), i+1)
	}
	test.That(t, tr.HistoryLen(), test.ShouldEqual, HistoryCapacity)
	hist := tr.History()
	test.That(t, hist[0].Box.X1, test.ShouldEqual, 15.0)
	test.That(t, hist[len(hist)-1].Box.X1, test.ShouldEqual, 44.0)

	// the copy does not alias the buffer
	hist[0].Confidence = 0
	test.That(t, tr.History()[0].Confidence, test.ShouldEqual, 0.9)
}

func TestMeanSpeed(t *testing.T) {
	tr := newTrack(1, playerAt(0, 0, 0), 1)
	_, ok := tr.MeanSpeed(5)
	test.That(t, ok, test.ShouldBeFalse)

	tr.Update(playerAt(10, 0, 1), 2)
	tr.Update(playerAt(30, 0, 2), 3)
	speed, ok := tr.MeanSpeed(5)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, speed, test.ShouldEqual, 15.0)

	speed, ok = tr.MeanSpeed(1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, speed, test.ShouldEqual, 20.0)
}

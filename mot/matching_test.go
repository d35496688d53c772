package mot

import (
	"testing"

	"go.viam.com/test"
)

func TestMatchersRespectThreshold(t *testing.T) {
	iou := [][]float64{
		{0.95, 0.10},
		{0.20, 0.50},
	}
	for _, m := range []Matcher{HungarianMatcher{}, GreedyMatcher{}} {
		matches, err := m.Match(iou, 0.8)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(matches), test.ShouldEqual, 1)
		test.That(t, matches[0], test.ShouldResemble, Match{Track: 0, Detection: 0, IoU: 0.95})
	}
}

func TestHungarianBeatsGreedy(t *testing.T) {
	// greedy takes (0,0) and strands row 1; the optimal assignment crosses over
	iou := [][]float64{
		{0.90, 0.85},
		{0.85, 0.10},
	}
	greedy, err := GreedyMatcher{}.Match(iou, 0.8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(greedy), test.ShouldEqual, 1)

	optimal, err := HungarianMatcher{}.Match(iou, 0.8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(optimal), test.ShouldEqual, 2)
	pairs := map[int]int{}
	for _, m := range optimal {
		pairs[m.Track] = m.Detection
	}
	test.That(t, pairs[0], test.ShouldEqual, 1)
	test.That(t, pairs[1], test.ShouldEqual, 0)
}

func TestMatchersRectangular(t *testing.T) {
	iou := [][]float64{
		{0.1, 0.9, 0.0},
	}
	for _, m := range []Matcher{HungarianMatcher{}, GreedyMatcher{}} {
		matches, err := m.Match(iou, 0.5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(matches), test.ShouldEqual, 1)
		test.That(t, matches[0].Detection, test.ShouldEqual, 1)
	}

	tall := [][]float64{{0.0}, {0.7}, {0.6}}
	for _, m := range []Matcher{HungarianMatcher{}, GreedyMatcher{}} {
		matches, err := m.Match(tall, 0.5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(matches), test.ShouldEqual, 1)
		test.That(t, matches[0].Track, test.ShouldEqual, 1)
	}
}

func TestMatchersEmpty(t *testing.T) {
	for _, m := range []Matcher{HungarianMatcher{}, GreedyMatcher{}} {
		matches, err := m.Match(nil, 0.5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, matches, test.ShouldBeEmpty)

		matches, err = m.Match([][]float64{{}, {}}, 0.5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, matches, test.ShouldBeEmpty)
	}
}

func TestNewMatcher(t *testing.T) {
	m, err := NewMatcher(MatcherGreedy)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m, test.ShouldHaveSameTypeAs, GreedyMatcher{})

	m, err = NewMatcher("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m, test.ShouldHaveSameTypeAs, HungarianMatcher{})

	_, err = NewMatcher("auction")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIoUMatrix(t *testing.T) {
	dets := []Detection{
		NewDetection(Box{0, 0, 10, 10}, 0.9, 0, "player", 0),
		NewDetection(Box{50, 50, 60, 60}, 0.9, 0, "player", 0),
	}
	mtx := IoUMatrix([]Box{{0, 0, 10, 10}}, dets)
	test.That(t, len(mtx), test.ShouldEqual, 1)
	test.That(t, mtx[0], test.ShouldResemble, []float64{1, 0})
}

package mot

import (
	"sort"

	hg "github.com/charles-haynes/munkres"
	"github.com/pkg/errors"
)

// Match pairs a row (track) index with a column (detection) index of an IoU matrix.
type Match struct {
	Track     int
	Detection int
	IoU       float64
}

// Matcher assigns tracks to detections. Every returned pair has IoU >= thresh, and no row or
// column is used twice.
type Matcher interface {
	Match(iou [][]float64, thresh float64) ([]Match, error)
}

// NewMatcher returns the matcher registered under name.
func NewMatcher(name string) (Matcher, error) {
	switch name {
	case MatcherHungarian, "":
		return HungarianMatcher{}, nil
	case MatcherGreedy:
		return GreedyMatcher{}, nil
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown matcher %q", name)
	}
}

// IoUMatrix computes the IoU of every (track box, detection) pair. Rows are tracks.
func IoUMatrix(trackBoxes []Box, dets []Detection) [][]float64 {
	mtx := make([][]float64, len(trackBoxes))
	for i, tb := range trackBoxes {
		row := make([]float64, len(dets))
		for j, d := range dets {
			row[j] = IoU(tb, d.Box)
		}
		mtx[i] = row
	}
	return mtx
}

func dims(mtx [][]float64) (int, int) {
	if len(mtx) == 0 {
		return 0, 0
	}
	return len(mtx), len(mtx[0])
}

// HungarianMatcher solves the assignment with Munkres' method. Each eligible pair costs 1-IoU and
// an ineligible pair costs more than any set of eligible ones, so the solver maximizes the
// number of accepted matches first and their total IoU second.
type HungarianMatcher struct{}

// Match implements Matcher.
func (HungarianMatcher) Match(iou [][]float64, thresh float64) ([]Match, error) {
	h, w := dims(iou)
	if h == 0 || w == 0 {
		return nil, nil
	}
	// the solver always assigns min(h, w) pairs, so ineligible pairs are priced above any
	// full set of eligible ones
	ineligible := float64(min(h, w)) + 1
	cost := make([][]float64, h)
	for i, row := range iou {
		cost[i] = make([]float64, w)
		for j, v := range row {
			cost[i][j] = ineligible
			if v >= thresh {
				cost[i][j] = 1 - v
			}
		}
	}
	HA, err := hg.NewHungarianAlgorithm(cost)
	if err != nil {
		return nil, errors.Wrap(err, "cannot build assignment problem")
	}
	assignment := HA.Execute()
	matches := make([]Match, 0, min(h, w))
	for i, j := range assignment {
		if j < 0 || j >= w || i >= h {
			continue
		}
		if iou[i][j] >= thresh {
			matches = append(matches, Match{Track: i, Detection: j, IoU: iou[i][j]})
		}
	}
	return matches, nil
}

// GreedyMatcher accepts pairs in order of decreasing IoU while both members are unclaimed.
// Ties keep the row-major scan order of the matrix.
type GreedyMatcher struct{}

// Match implements Matcher.
func (GreedyMatcher) Match(iou [][]float64, thresh float64) ([]Match, error) {
	h, w := dims(iou)
	if h == 0 || w == 0 {
		return nil, nil
	}
	candidates := make([]Match, 0, h*w)
	for i, row := range iou {
		for j, v := range row {
			if v >= thresh {
				candidates = append(candidates, Match{Track: i, Detection: j, IoU: v})
			}
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].IoU > candidates[b].IoU
	})
	usedTracks := make(map[int]struct{})
	usedDets := make(map[int]struct{})
	var matches []Match
	for _, c := range candidates {
		if _, ok := usedTracks[c.Track]; ok {
			continue
		}
		if _, ok := usedDets[c.Detection]; ok {
			continue
		}
		usedTracks[c.Track] = struct{}{}
		usedDets[c.Detection] = struct{}{}
		matches = append(matches, c)
	}
	return matches, nil
}

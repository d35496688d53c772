// Package mot implements multi-object tracking for sports video: detections are associated to
// persistent tracks with a two stage (high/low confidence) ByteTrack style matcher.
// This file contains the box geometry used for association.
package mot

import (
	"image"
	"math"
)

// Box is an axis aligned bounding box with corners (X1, Y1) and (X2, Y2).
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// BoxFromRect converts an integer image rectangle to a Box.
func BoxFromRect(r image.Rectangle) Box {
	return Box{float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y)}
}

// Rect rounds the box to an image rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(math.Round(b.X1)), int(math.Round(b.Y1)), int(math.Round(b.X2)), int(math.Round(b.Y2)))
}

// Center returns the center point of the box.
func (b Box) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Width is never negative; an inverted box has width 0.
func (b Box) Width() float64 {
	return math.Max(0, b.X2-b.X1)
}

// Height is never negative; an inverted box has height 0.
func (b Box) Height() float64 {
	return math.Max(0, b.Y2-b.Y1)
}

// Area returns the box area, 0 for degenerate boxes.
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// IsFinite reports whether all four edges are finite numbers.
func (b Box) IsFinite() bool {
	for _, v := range [4]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Translate moves both corners by (dx, dy) without changing the size.
func (b Box) Translate(dx, dy float64) Box {
	return Box{b.X1 + dx, b.Y1 + dy, b.X2 + dx, b.Y2 + dy}
}

// IoU returns the intersection over union of 2 boxes. Boxes that do not overlap, or whose
// union has no area, have an IoU of 0.
func IoU(a, b Box) float64 {
	w := math.Min(a.X2, b.X2) - math.Max(a.X1, b.X1)
	h := math.Min(a.Y2, b.Y2) - math.Max(a.Y1, b.Y1)
	if w <= 0 || h <= 0 {
		return 0
	}
	inter := w * h
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Distance returns the distance between the centers of two boxes.
func Distance(a, b Box) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(ax-bx, ay-by)
}

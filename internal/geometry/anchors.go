// Package geometry computes named anchor points on matched screen regions.
package geometry

// Point is a 2D screen coordinate in pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Box is an axis-aligned bounding box in screen coordinates.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Anchor names a reference point on a box.
type Anchor string

const (
	Center       Anchor = "center"
	TopLeft      Anchor = "top_left"
	TopRight     Anchor = "top_right"
	BottomLeft   Anchor = "bottom_left"
	BottomRight  Anchor = "bottom_right"
	TopCenter    Anchor = "top_center"
	BottomCenter Anchor = "bottom_center"
	LeftCenter   Anchor = "left_center"
	RightCenter  Anchor = "right_center"
)

// AnchorSet holds the nine named anchor points of a box.
type AnchorSet struct {
	Center       Point `json:"center"`
	TopLeft      Point `json:"top_left"`
	TopRight     Point `json:"top_right"`
	BottomLeft   Point `json:"bottom_left"`
	BottomRight  Point `json:"bottom_right"`
	TopCenter    Point `json:"top_center"`
	BottomCenter Point `json:"bottom_center"`
	LeftCenter   Point `json:"left_center"`
	RightCenter  Point `json:"right_center"`
}

// Anchors derives the nine anchor points of b. Integer division truncates,
// matching the coordinates a caller would compute from the raw box.
func Anchors(b Box) AnchorSet {
	cx := b.X + b.W/2
	cy := b.Y + b.H/2
	return AnchorSet{
		Center:       Point{cx, cy},
		TopLeft:      Point{b.X, b.Y},
		TopRight:     Point{b.X + b.W, b.Y},
		BottomLeft:   Point{b.X, b.Y + b.H},
		BottomRight:  Point{b.X + b.W, b.Y + b.H},
		TopCenter:    Point{cx, b.Y},
		BottomCenter: Point{cx, b.Y + b.H},
		LeftCenter:   Point{b.X, cy},
		RightCenter:  Point{b.X + b.W, cy},
	}
}

// At returns the anchor point by name, false if the name is not one of the nine.
func (s AnchorSet) At(name Anchor) (Point, bool) {
	switch name {
	case Center:
		return s.Center, true
	case TopLeft:
		return s.TopLeft, true
	case TopRight:
		return s.TopRight, true
	case BottomLeft:
		return s.BottomLeft, true
	case BottomRight:
		return s.BottomRight, true
	case TopCenter:
		return s.TopCenter, true
	case BottomCenter:
		return s.BottomCenter, true
	case LeftCenter:
		return s.LeftCenter, true
	case RightCenter:
		return s.RightCenter, true
	}
	return Point{}, false
}

// ValidAnchor reports whether name is one of the nine anchor names.
func ValidAnchor(name Anchor) bool {
	_, ok := AnchorSet{}.At(name)
	return ok
}

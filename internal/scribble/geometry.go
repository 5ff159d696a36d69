package scribble

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// ArrowLength is the length of each arrowhead stroke as a page fraction.
const ArrowLength = 0.04

// ArrowAngle is the angle between the shaft and each arrowhead stroke.
const ArrowAngle = math.Pi / 6

func ccw(a, b, c vec.Vec2) bool {
	return (c.Y-a.Y)*(b.X-a.X) > (b.Y-a.Y)*(c.X-a.X)
}

// SegmentsIntersect reports whether segments AB and CD cross.
func SegmentsIntersect(a, b, c, d vec.Vec2) bool {
	return ccw(a, c, d) != ccw(b, c, d) && ccw(a, b, c) != ccw(a, b, d)
}

// Intersects is the eraser and touch-selection hit test. Segments are
// crossed by the motion from last to p; every other kind is hit when p
// lies within its bounding box.
func Intersects(last, p vec.Vec2, s Scribble) bool {
	box := Bounds(s)
	seg, ok := s.(*Segment)
	if !ok {
		return Contains(box, p)
	}
	move := rect.Rect{
		LLx: math.Min(last.X, p.X), LLy: math.Min(last.Y, p.Y),
		URx: math.Max(last.X, p.X), URy: math.Max(last.Y, p.Y),
	}
	if !overlaps(box, move) {
		return false
	}
	for i := 0; i+1 < len(seg.Points); i++ {
		if SegmentsIntersect(p, last, seg.Points[i], seg.Points[i+1]) {
			return true
		}
	}
	return false
}

// Contains reports whether p lies within r, edges included.
func Contains(r rect.Rect, p vec.Vec2) bool {
	r = normalize(r)
	return r.LLx <= p.X && p.X <= r.URx && r.LLy <= p.Y && p.Y <= r.URy
}

// AnyPointIn reports whether at least one point of s lies in the
// rectangle spanned by the corners a and b, in any order.
func AnyPointIn(s Scribble, a, b vec.Vec2) bool {
	r := normalize(rect.Rect{LLx: a.X, LLy: a.Y, URx: b.X, URy: b.Y})
	base := s.Attrs()
	for _, p := range base.Points {
		if Contains(r, p) {
			return true
		}
	}
	switch s.(type) {
	case *Text, *Latex, *Image:
		box := Bounds(s)
		for _, p := range []vec.Vec2{
			{X: box.LLx, Y: box.LLy}, {X: box.URx, Y: box.LLy},
			{X: box.LLx, Y: box.URy}, {X: box.URx, Y: box.URy},
		} {
			if Contains(r, p) {
				return true
			}
		}
	}
	return false
}

// Arrowhead returns the two barb end points for a line ending at the last
// point of pts, oriented along the final segment.
func Arrowhead(pts []vec.Vec2) (vec.Vec2, vec.Vec2, bool) {
	if len(pts) < 2 {
		return vec.Vec2{}, vec.Vec2{}, false
	}
	from, to := pts[len(pts)-2], pts[len(pts)-1]
	if from == to {
		return vec.Vec2{}, vec.Vec2{}, false
	}
	angle := math.Atan2(to.Y-from.Y, to.X-from.X)
	barb := func(a float64) vec.Vec2 {
		return vec.Vec2{
			X: to.X - ArrowLength*math.Cos(a),
			Y: to.Y - ArrowLength*math.Sin(a),
		}
	}
	return barb(angle + ArrowAngle), barb(angle - ArrowAngle), true
}

func pointsBox(pts []vec.Vec2) rect.Rect {
	if len(pts) == 0 {
		return rect.Rect{}
	}
	r := rect.Rect{LLx: pts[0].X, LLy: pts[0].Y, URx: pts[0].X, URy: pts[0].Y}
	for _, p := range pts[1:] {
		r = extend(r, p)
	}
	return r
}

func extend(r rect.Rect, p vec.Vec2) rect.Rect {
	r.LLx = math.Min(r.LLx, p.X)
	r.LLy = math.Min(r.LLy, p.Y)
	r.URx = math.Max(r.URx, p.X)
	r.URy = math.Max(r.URy, p.Y)
	return r
}

func normalize(r rect.Rect) rect.Rect {
	if r.LLx > r.URx {
		r.LLx, r.URx = r.URx, r.LLx
	}
	if r.LLy > r.URy {
		r.LLy, r.URy = r.URy, r.LLy
	}
	return r
}

func overlaps(a, b rect.Rect) bool {
	return a.LLx <= b.URx && b.LLx <= a.URx && a.LLy <= b.URy && b.LLy <= a.URy
}

package playback

import (
	"iter"
	"slices"

	"dialectical-topology/internal/dataset"
)

const (
	// DefaultMaxTime is the playback length used when there are no points.
	DefaultMaxTime = 6300.0

	// DefaultTailDuration pads the last point when it has no duration.
	DefaultTailDuration = 120.0
)

// State classifies a point relative to the playback clock.
type State int

const (
	All State = iota
	Future
	Current
	Past
)

func (s State) String() string {
	switch s {
	case All:
		return "all"
	case Future:
		return "future"
	case Current:
		return "current"
	case Past:
		return "past"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Point is the temporal view of a landscape segment.
type Point struct {
	ID        int             `json:"id"`
	Speaker   dataset.Speaker `json:"speaker"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Z         float64         `json:"z"`
	StartTime float64         `json:"start_time"`
	Duration  float64         `json:"duration"`
}

// End is the last instant of the point. Negative durations count as zero.
func (p Point) End() float64 {
	if p.Duration < 0 {
		return p.StartTime
	}
	return p.StartTime + p.Duration
}

// FromLandscape converts landscape points.
func FromLandscape(points []dataset.LandscapePoint) []Point {
	out := make([]Point, len(points))
	for i, lp := range points {
		out[i] = Point{
			ID:        lp.ID,
			Speaker:   lp.Speaker,
			X:         lp.X,
			Y:         lp.Y,
			Z:         lp.Z,
			StartTime: lp.Time,
			Duration:  lp.Duration,
		}
	}
	return out
}

// Classify places p before, at or after clock time t.
func Classify(p Point, t float64) State {
	switch {
	case p.StartTime > t:
		return Future
	case t <= p.End():
		return Current
	default:
		return Past
	}
}

// MaxTime is the playback length for a dataset: the start of the latest point
// plus its duration, or plus DefaultTailDuration when it has none.
func MaxTime(points []Point) float64 {
	if len(points) == 0 {
		return DefaultMaxTime
	}
	last := points[0]
	for _, p := range points[1:] {
		if p.StartTime > last.StartTime {
			last = p
		}
	}
	d := last.Duration
	if d == 0 {
		d = DefaultTailDuration
	}
	return last.StartTime + d
}

// CurrentPoint returns the first point, in dataset order, that is Current at t.
func CurrentPoint(points []Point, t float64) (Point, bool) {
	for _, p := range points {
		if Classify(p, t) == Current {
			return p, true
		}
	}
	return Point{}, false
}

// BySpeaker keeps the points of one speaker. A nil speaker keeps everything.
func BySpeaker(points []Point, speaker *dataset.Speaker) []Point {
	if speaker == nil {
		return points
	}
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Speaker == *speaker {
			out = append(out, p)
		}
	}
	return out
}

// Revealed yields the points with StartTime <= t in ascending StartTime
// order. Each iteration recomputes the set from points, which is never
// modified.
func Revealed(points []Point, t float64) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		visible := make([]Point, 0, len(points))
		for _, p := range points {
			if p.StartTime <= t {
				visible = append(visible, p)
			}
		}
		slices.SortStableFunc(visible, func(a, b Point) int {
			switch {
			case a.StartTime < b.StartTime:
				return -1
			case a.StartTime > b.StartTime:
				return 1
			}
			return 0
		})
		for _, p := range visible {
			if !yield(p) {
				return
			}
		}
	}
}

// Segment joins two temporally adjacent revealed points.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Trajectory yields the line segments between consecutive revealed points.
func Trajectory(points []Point, t float64) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		var prev Point
		first := true
		for p := range Revealed(points, t) {
			if !first {
				if !yield(Segment{From: prev, To: p}) {
					return
				}
			}
			prev, first = p, false
		}
	}
}

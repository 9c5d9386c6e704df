// Package geometry projects worldview and flow data onto the 2D coordinates
// used by the SVG renderers.
package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dialectical-topology/internal/dataset"
)

// Vec2 is an SVG coordinate.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RingFractions are the radii, as fractions of the full radius, of the radar grid circles.
var RingFractions = []float64{0.25, 0.5, 0.75, 1}

// radarAngle is the angle of axis i of n; axis 0 points straight up.
func radarAngle(i, n int) float64 {
	return float64(i)/float64(n)*2*math.Pi - math.Pi/2
}

// Radar places one vertex per dimension at distance position*radius from
// center. Dimensions without a position for speaker sit at the centre.
func Radar(dims []dataset.Dimension, speaker dataset.Speaker, center, radius float64) []Vec2 {
	n := len(dims)
	out := make([]Vec2, 0, n)
	for i, d := range dims {
		pos, _ := d.PositionOf(speaker)
		r := pos.Position * radius
		a := radarAngle(i, n)
		out = append(out, Vec2{X: center + r*math.Cos(a), Y: center + r*math.Sin(a)})
	}
	return out
}

// Axis is one spoke of the radar grid.
type Axis struct {
	End   Vec2   `json:"end"`
	Label Vec2   `json:"label"`
	Name  string `json:"name"`
}

// RadarAxes returns the spokes for dims, with label anchors labelOffset
// beyond the outer ring.
func RadarAxes(dims []dataset.Dimension, center, radius, labelOffset float64) []Axis {
	n := len(dims)
	out := make([]Axis, 0, n)
	for i, d := range dims {
		a := radarAngle(i, n)
		out = append(out, Axis{
			End:   Vec2{X: center + radius*math.Cos(a), Y: center + radius*math.Sin(a)},
			Label: Vec2{X: center + (radius+labelOffset)*math.Cos(a), Y: center + (radius+labelOffset)*math.Sin(a)},
			Name:  d.Label,
		})
	}
	return out
}

// RadarRings returns the radii of the grid circles.
func RadarRings(radius float64) []float64 {
	out := make([]float64, len(RingFractions))
	for i, f := range RingFractions {
		out[i] = radius * f
	}
	return out
}

// Path renders points as an SVG path: "M x y L x y ...", with " Z" appended
// when closed. No points yield an empty string.
func Path(points []Vec2, closed bool) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(num(p.X))
		b.WriteString(" ")
		b.WriteString(num(p.Y))
	}
	if closed {
		b.WriteString(" Z")
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RadarChart is the complete geometry of the worldview radar.
type RadarChart struct {
	Size          float64   `json:"size"`
	Center        float64   `json:"center"`
	Radius        float64   `json:"radius"`
	Rings         []float64 `json:"rings"`
	Axes          []Axis    `json:"axes"`
	Marcus        []Vec2    `json:"marcus"`
	Demartini     []Vec2    `json:"demartini"`
	MarcusPath    string    `json:"marcus_path"`
	DemartiniPath string    `json:"demartini_path"`
}

// DefaultRadarSize is the width and height of the radar canvas.
const DefaultRadarSize = 280

// NewRadarChart lays out a radar of the given size: the radius is 40% of the
// canvas and labels sit 20 units past the outer ring.
func NewRadarChart(dims []dataset.Dimension, size float64) RadarChart {
	center := size / 2
	radius := size * 0.4
	marcus := Radar(dims, dataset.SpeakerMarcus, center, radius)
	demartini := Radar(dims, dataset.SpeakerDemartini, center, radius)
	return RadarChart{
		Size:          size,
		Center:        center,
		Radius:        radius,
		Rings:         RadarRings(radius),
		Axes:          RadarAxes(dims, center, radius, 20),
		Marcus:        marcus,
		Demartini:     demartini,
		MarcusPath:    Path(marcus, true),
		DemartiniPath: Path(demartini, true),
	}
}

// Spectrum is the bar layout of one dimension, in percent of the bar width.
type Spectrum struct {
	DimensionID string              `json:"dimension_id"`
	Label       string              `json:"label"`
	Left        string              `json:"left"`
	Right       string              `json:"right"`
	Marcus      float64             `json:"marcus"`
	Demartini   float64             `json:"demartini"`
	Gap         float64             `json:"gap"`
	GapLabel    string              `json:"gap_label"`
	BarLeft     float64             `json:"bar_left"`
	BarWidth    float64             `json:"bar_width"`
	Severity    dataset.GapSeverity `json:"severity"`
	Bridging    dataset.Bridging    `json:"bridging"`
}

// NewSpectrum computes the spectrum bar of d.
func NewSpectrum(d dataset.Dimension) Spectrum {
	marcus := d.Positions.Marcus.Position * 100
	demartini := d.Positions.Demartini.Position * 100
	gap := d.GapAnalysis.GapSize * 100
	return Spectrum{
		DimensionID: d.ID,
		Label:       d.Label,
		Left:        d.Spectrum.Left.Label,
		Right:       d.Spectrum.Right.Label,
		Marcus:      marcus,
		Demartini:   demartini,
		Gap:         gap,
		GapLabel:    fmt.Sprintf("Gap: %d%%", int(math.Round(gap))),
		BarLeft:     math.Min(marcus, demartini),
		BarWidth:    math.Abs(marcus - demartini),
		Severity:    dataset.SeverityOfGap(gap),
		Bridging:    d.GapAnalysis.BridgingPotential,
	}
}

// MinPhaseWidth is the narrowest phase bar, in percent.
const MinPhaseWidth = 2.0

// PhaseBar is the placement of a flow phase on the timeline, in percent.
type PhaseBar struct {
	PhaseID string           `json:"phase_id"`
	Left    float64          `json:"left"`
	Width   float64          `json:"width"`
	Mood    dataset.MoodTone `json:"mood"`
	Color   string           `json:"color"`
}

// NewPhaseBar places p on a timeline of maxTime seconds. A non-positive
// maxTime yields a zero-left bar of minimum width.
func NewPhaseBar(p dataset.FlowPhase, maxTime float64) PhaseBar {
	var left, width float64
	if maxTime > 0 {
		left = p.StartTime / maxTime * 100
		width = (p.EndTime - p.StartTime) / maxTime * 100
	}
	mood := p.MoodTone()
	return PhaseBar{
		PhaseID: p.ID,
		Left:    left,
		Width:   math.Max(width, MinPhaseWidth),
		Mood:    mood,
		Color:   mood.Tone().Hex(),
	}
}

// Arc is the emotional arc in a 100x100 view box.
type Arc struct {
	Points []Vec2 `json:"points"`
	Line   string `json:"line"`
	Fill   string `json:"fill"`
}

// NewArc maps trajectory samples to x = time/maxTime*100 and
// y = 100 - intensity*100. The fill path closes the line down to the bottom
// edge. An empty trajectory or non-positive maxTime yields an empty arc.
func NewArc(trajectory []dataset.ArcPoint, maxTime float64) Arc {
	if len(trajectory) == 0 || maxTime <= 0 {
		return Arc{}
	}
	pts := make([]Vec2, len(trajectory))
	for i, p := range trajectory {
		pts[i] = Vec2{X: p.Time / maxTime * 100, Y: 100 - p.Intensity*100}
	}
	line := Path(pts, false)
	last, first := pts[len(pts)-1], pts[0]
	fill := fmt.Sprintf("%s L %s 100 L %s 100 Z", line, num(last.X), num(first.X))
	return Arc{Points: pts, Line: line, Fill: fill}
}

// FlowLayout bundles the flow lens geometry.
type FlowLayout struct {
	Duration    float64    `json:"duration"`
	Phases      []PhaseBar `json:"phases"`
	Arc         Arc        `json:"arc"`
	Inflections []Marker   `json:"inflections"`
}

// Marker is an inflection point placed on the timeline, in percent.
type Marker struct {
	ID    string  `json:"id"`
	Left  float64 `json:"left"`
	Label string  `json:"label"`
	Time  string  `json:"time"`
}

// NewFlowLayout lays out the flow lens against the flow's total duration.
func NewFlowLayout(f *dataset.Flow) FlowLayout {
	d := f.Duration()
	out := FlowLayout{
		Duration: d,
		Phases:   make([]PhaseBar, 0, len(f.Phases)),
		Arc:      NewArc(f.EmotionalArc.Trajectory, d),
	}
	for _, p := range f.Phases {
		out.Phases = append(out.Phases, NewPhaseBar(p, d))
	}
	for _, ip := range f.InflectionPoints {
		var left float64
		if d > 0 {
			left = ip.Timestamp / d * 100
		}
		out.Inflections = append(out.Inflections, Marker{
			ID:    ip.ID,
			Left:  left,
			Label: ip.Label,
			Time:  dataset.FormatTime(ip.Timestamp),
		})
	}
	return out
}

package topology

import (
	"errors"
	"fmt"
	"sync"

	"dialectical-topology/internal/dataset"
	"dialectical-topology/internal/playback"
)

// ViewID uniquely identifies a mounted view.
type ViewID string

// Mode selects how the landscape lens shows points.
type Mode int

const (
	// ModeStatic shows every point with no clock.
	ModeStatic Mode = iota
	// ModeTemporal reveals points as the playback clock advances.
	ModeTemporal
)

func (m Mode) String() string {
	if m == ModeTemporal {
		return "temporal"
	}
	return "static"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "static":
		*m = ModeStatic
	case "temporal":
		*m = ModeTemporal
	default:
		return fmt.Errorf("%w %q", ErrUnknownMode, b)
	}
	return nil
}

var (
	// ErrViewNotFound is returned for ids that are not mounted.
	ErrViewNotFound = errors.New("view not found")
	// ErrUnknownLens is returned when mounting a lens that does not exist.
	ErrUnknownLens = errors.New("unknown lens")
	// ErrUnknownCommand is returned for unrecognised command actions.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownMode is returned for view modes other than static and temporal.
	ErrUnknownMode = errors.New("unknown mode")
	// ErrNoPlayback is returned for clock commands on lenses without a timeline.
	ErrNoPlayback = errors.New("lens has no playback")
	// ErrStaticMode is returned when playing a view in static mode.
	ErrStaticMode = errors.New("view is in static mode")
)

// View is the state of one mounted lens. Every field after mu is guarded by it.
type View struct {
	ID   ViewID
	Lens dataset.Lens

	mu            sync.Mutex
	mode          Mode
	speaker       *dataset.Speaker
	selectedPoint *int
	selectedClaim string
	points        []playback.Point
	clock         *playback.Clock
	driver        *playback.Driver
	// gen changes whenever the driver is started or stopped; a tick
	// scheduled under an older gen is dropped.
	gen    uint64
	closed bool
}

// Playable reports whether the view has a timeline.
func (v *View) Playable() bool {
	return v.clock != nil
}

// Action names a view command.
type Action string

const (
	ActionPlay   Action = "play"
	ActionPause  Action = "pause"
	ActionToggle Action = "toggle"
	ActionReset  Action = "reset"
	ActionSeek   Action = "seek"
	ActionSpeed  Action = "speed"
	ActionMode   Action = "mode"
	ActionFilter Action = "filter"
	ActionSelect Action = "select"
)

// Command is a user interaction applied to a view. Only the fields used by
// Action are read. This also matches the JSON body of the command endpoints.
type Command struct {
	Action  Action  `json:"-"`
	Time    float64 `json:"time"`
	Speed   float64 `json:"speed"`
	Mode    Mode    `json:"mode"`
	Speaker string  `json:"speaker"`
	PointID *int    `json:"point_id"`
	ClaimID string  `json:"claim_id"`
}

// PointFrame is a landscape point with its temporal state and colour.
type PointFrame struct {
	playback.Point
	State playback.State `json:"state"`
	Color string         `json:"color"`
}

// Frame is everything a renderer needs to draw a view at one instant.
type Frame struct {
	ViewID        ViewID             `json:"id"`
	Lens          dataset.Lens       `json:"lens"`
	Mode          Mode               `json:"mode"`
	Clock         *playback.Snapshot `json:"clock,omitempty"`
	TimeLabel     string             `json:"time_label,omitempty"`
	Speaker       *dataset.Speaker   `json:"speaker_filter"`
	SelectedPoint *int               `json:"selected_point_id"`
	SelectedClaim string             `json:"selected_claim_id,omitempty"`
	Points        []PointFrame       `json:"points,omitempty"`
	Current       *playback.Point    `json:"current,omitempty"`
	Trajectory    []playback.Segment `json:"trajectory,omitempty"`
}

// MountResult is returned when a view is created.
type MountResult struct {
	ID      ViewID       `json:"id"`
	Lens    dataset.Lens `json:"lens"`
	MaxTime float64      `json:"max_time"`
}

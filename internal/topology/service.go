package topology

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"dialectical-topology/internal/dataset"
	"dialectical-topology/internal/fixture"
	"dialectical-topology/internal/geometry"
	"dialectical-topology/internal/platform/metrics"
	"dialectical-topology/internal/playback"
)

var (
	// ErrInvalidArgument is returned for command arguments that cannot be applied.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPointNotFound is returned when selecting a point the view does not show.
	ErrPointNotFound = errors.New("point not found")
)

// Options configures a Service. Zero values select the defaults.
type Options struct {
	// Clock drives playback tickers; nil uses the real clock.
	Clock clockwork.Clock
	// TickInterval is the wall-clock period between playback ticks.
	TickInterval time.Duration
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// Service owns the mounted views: it creates them from fixtures, applies
// commands to them and renders their frames.
type Service struct {
	repo     Repository
	loader   *fixture.Loader
	clock    clockwork.Clock
	interval time.Duration
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewService returns a Service that tracks views in repo and reads fixtures
// through loader.
func NewService(repo Repository, loader *fixture.Loader, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = playback.DefaultTickInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		repo:     repo,
		loader:   loader,
		clock:    opts.Clock,
		interval: opts.TickInterval,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Mount loads the fixture of lens and registers a new view over it. A load
// failure is returned as a *fixture.LoadError and no view is created.
func (s *Service) Mount(ctx context.Context, lens dataset.Lens) (MountResult, error) {
	if !slices.Contains(dataset.Lenses, lens) {
		return MountResult{}, fmt.Errorf("%w %q", ErrUnknownLens, lens)
	}
	data, err := s.loader.Lens(ctx, lens)
	if err != nil {
		return MountResult{}, err
	}

	v := &View{ID: ViewID(uuid.NewString()), Lens: lens, mode: ModeStatic}
	if ls, ok := data.(*dataset.Landscape); ok {
		v.points = playback.FromLandscape(ls.Points)
		v.clock = playback.NewClock(playback.MaxTime(v.points))
		v.driver = playback.NewDriver(s.clock, s.interval)
	}
	s.repo.Add(v)
	s.updateActiveViews()

	res := MountResult{ID: v.ID, Lens: lens}
	if v.clock != nil {
		res.MaxTime = v.clock.MaxTime()
	}
	s.log.Info("view mounted",
		slog.String("view_id", string(v.ID)),
		slog.String("lens", string(lens)),
		slog.Float64("max_time", res.MaxTime))
	return res, nil
}

// Unmount removes a view and cancels its timer. It returns once no tick of
// the view can run anymore.
func (s *Service) Unmount(id ViewID) error {
	v, ok := s.repo.Remove(id)
	if !ok {
		return ErrViewNotFound
	}
	s.release(v)
	s.updateActiveViews()
	s.log.Info("view unmounted", slog.String("view_id", string(id)))
	return nil
}

// Shutdown unmounts every view.
func (s *Service) Shutdown() {
	for _, id := range s.repo.IDs() {
		if v, ok := s.repo.Remove(id); ok {
			s.release(v)
		}
	}
	s.updateActiveViews()
}

func (s *Service) release(v *View) {
	v.mu.Lock()
	v.closed = true
	if v.driver != nil {
		v.driver.Stop()
	}
	v.mu.Unlock()

	// The tick goroutine takes v.mu, so wait outside it.
	if v.driver != nil {
		v.driver.Wait()
	}
}

// Command applies cmd to the view.
func (s *Service) Command(ctx context.Context, id ViewID, cmd Command) error {
	v, ok := s.repo.Get(id)
	if !ok {
		return ErrViewNotFound
	}

	// The claim lookup may hit the data source; do it before locking.
	if cmd.Action == ActionSelect && cmd.ClaimID != "" {
		if err := s.checkClaim(ctx, cmd.ClaimID); err != nil {
			return err
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewNotFound
	}

	switch cmd.Action {
	case ActionPlay:
		return s.playLocked(v)
	case ActionPause:
		if !v.Playable() {
			return ErrNoPlayback
		}
		s.pauseLocked(v)
	case ActionToggle:
		if !v.Playable() {
			return ErrNoPlayback
		}
		if v.clock.Running() {
			s.pauseLocked(v)
			return nil
		}
		return s.playLocked(v)
	case ActionReset:
		if !v.Playable() {
			return ErrNoPlayback
		}
		v.clock.Reset()
		s.stopLocked(v)
	case ActionSeek:
		if !v.Playable() {
			return ErrNoPlayback
		}
		if math.IsNaN(cmd.Time) {
			return fmt.Errorf("%w: time is not a number", ErrInvalidArgument)
		}
		v.clock.Seek(cmd.Time)
	case ActionSpeed:
		if !v.Playable() {
			return ErrNoPlayback
		}
		return v.clock.SetSpeed(cmd.Speed)
	case ActionMode:
		if !v.Playable() {
			return ErrNoPlayback
		}
		v.mode = cmd.Mode
		if v.mode == ModeStatic {
			s.pauseLocked(v)
		}
	case ActionFilter:
		return s.filterLocked(v, cmd.Speaker)
	case ActionSelect:
		return s.selectLocked(v, cmd)
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Action)
	}
	return nil
}

func (s *Service) playLocked(v *View) error {
	if !v.Playable() {
		return ErrNoPlayback
	}
	if v.mode != ModeTemporal {
		return ErrStaticMode
	}
	if v.clock.Play() {
		v.gen++
		v.driver.Start(s.tick(v, v.gen))
	}
	return nil
}

func (s *Service) pauseLocked(v *View) {
	v.clock.Pause()
	s.stopLocked(v)
}

func (s *Service) stopLocked(v *View) {
	v.gen++
	v.driver.Stop()
}

// tick advances the clock of v once per driver tick. A goroutine of an
// earlier driver run may still be waiting on v.mu after a pause and play;
// gen tells its ticks apart from the current run's.
func (s *Service) tick(v *View, gen uint64) playback.TickFunc {
	return func(dt time.Duration) bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.closed || v.gen != gen || !v.clock.Running() {
			return false
		}
		finished := v.clock.Tick(dt)
		if s.metrics != nil {
			s.metrics.IncPlaybackTicks()
		}
		if finished {
			if s.metrics != nil {
				s.metrics.IncPlaybacksFinished()
			}
			s.log.Info("playback finished",
				slog.String("view_id", string(v.ID)),
				slog.Float64("max_time", v.clock.MaxTime()))
			return false
		}
		return true
	}
}

func (s *Service) filterLocked(v *View, tag string) error {
	if tag == "" || tag == "all" {
		v.speaker = nil
		return nil
	}
	sp, err := dataset.ParseSpeaker(tag)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	v.speaker = &sp
	return nil
}

func (s *Service) selectLocked(v *View, cmd Command) error {
	if cmd.PointID == nil && cmd.ClaimID == "" {
		v.selectedPoint = nil
		v.selectedClaim = ""
		return nil
	}
	if cmd.PointID != nil {
		id := *cmd.PointID
		if !slices.ContainsFunc(v.points, func(p playback.Point) bool { return p.ID == id }) {
			return fmt.Errorf("%w: %d", ErrPointNotFound, id)
		}
		v.selectedPoint = &id
	}
	if cmd.ClaimID != "" {
		v.selectedClaim = cmd.ClaimID
	}
	return nil
}

func (s *Service) checkClaim(ctx context.Context, id string) error {
	claims, err := s.loader.Claims(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(claims.Claims, func(c dataset.Claim) bool { return c.ID == id }) {
		return fmt.Errorf("%w: unknown claim %q", ErrInvalidArgument, id)
	}
	return nil
}

// Frame renders the view at its current clock time. Static views show every
// point; temporal views classify points against the clock and reveal the
// trajectory up to it.
func (s *Service) Frame(id ViewID) (Frame, error) {
	v, ok := s.repo.Get(id)
	if !ok {
		return Frame{}, ErrViewNotFound
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return Frame{}, ErrViewNotFound
	}

	f := Frame{
		ViewID:        v.ID,
		Lens:          v.Lens,
		Mode:          v.mode,
		Speaker:       v.speaker,
		SelectedPoint: v.selectedPoint,
		SelectedClaim: v.selectedClaim,
	}
	if !v.Playable() {
		return f, nil
	}

	snap := v.clock.Snapshot()
	f.Clock = &snap
	f.TimeLabel = dataset.FormatTime(snap.CurrentTime) + " / " + dataset.FormatTime(snap.MaxTime)

	visible := playback.BySpeaker(v.points, v.speaker)
	horizon := math.Inf(1)
	if v.mode == ModeTemporal {
		horizon = snap.CurrentTime
		if cur, ok := playback.CurrentPoint(v.points, snap.CurrentTime); ok {
			f.Current = &cur
		}
	}

	f.Points = make([]PointFrame, 0, len(visible))
	for _, p := range visible {
		st := playback.All
		if v.mode == ModeTemporal {
			st = playback.Classify(p, snap.CurrentTime)
		}
		f.Points = append(f.Points, PointFrame{Point: p, State: st, Color: p.Speaker.Tone().Hex()})
	}
	f.Trajectory = slices.Collect(playback.Trajectory(visible, horizon))
	return f, nil
}

// Lens returns the normalised dataset rendered by lens.
func (s *Service) Lens(ctx context.Context, lens dataset.Lens) (any, error) {
	if !slices.Contains(dataset.Lenses, lens) {
		return nil, fmt.Errorf("%w %q", ErrUnknownLens, lens)
	}
	return s.loader.Lens(ctx, lens)
}

// Raw returns the bytes of a known fixture file.
func (s *Service) Raw(ctx context.Context, name string) ([]byte, error) {
	if !dataset.IsFile(name) {
		return nil, &fixture.LoadError{File: name, Kind: fixture.KindNotFound, Err: ErrInvalidArgument}
	}
	return s.loader.Raw(ctx, name)
}

// Radar lays out the worldview radar on a square canvas of size units.
func (s *Service) Radar(ctx context.Context, size float64) (geometry.RadarChart, error) {
	o, err := s.loader.Ontology(ctx)
	if err != nil {
		return geometry.RadarChart{}, err
	}
	if !(size > 0) {
		size = geometry.DefaultRadarSize
	}
	return geometry.NewRadarChart(o.Dimensions, size), nil
}

// Spectra lays out one spectrum bar per worldview dimension.
func (s *Service) Spectra(ctx context.Context) ([]geometry.Spectrum, error) {
	o, err := s.loader.Ontology(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]geometry.Spectrum, 0, len(o.Dimensions))
	for _, d := range o.Dimensions {
		out = append(out, geometry.NewSpectrum(d))
	}
	return out, nil
}

// FlowLayout lays out the phases, inflection points and emotional arc of the
// flow lens.
func (s *Service) FlowLayout(ctx context.Context) (geometry.FlowLayout, error) {
	f, err := s.loader.Flow(ctx)
	if err != nil {
		return geometry.FlowLayout{}, err
	}
	return geometry.NewFlowLayout(f), nil
}

// ActiveViewCount returns the number of mounted views.
func (s *Service) ActiveViewCount() int {
	return s.repo.ActiveViewCount()
}

func (s *Service) updateActiveViews() {
	if s.metrics != nil {
		s.metrics.SetActiveViews(s.repo.ActiveViewCount())
	}
}

package topology

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialectical-topology/internal/dataset"
	"dialectical-topology/internal/fixture"
	"dialectical-topology/internal/playback"
)

func mountTemporal(t *testing.T, svc *Service) ViewID {
	t.Helper()
	ctx := context.Background()
	res, err := svc.Mount(ctx, dataset.LensLandscape)
	require.NoError(t, err)
	require.NoError(t, svc.Command(ctx, res.ID, Command{Action: ActionMode, Mode: ModeTemporal}))
	return res.ID
}

func now(t *testing.T, svc *Service, id ViewID) float64 {
	t.Helper()
	f, err := svc.Frame(id)
	require.NoError(t, err)
	require.NotNil(t, f.Clock)
	return f.Clock.CurrentTime
}

// tick advances fc by one interval once the view's ticker is registered and
// waits for the clock to move.
func tick(t *testing.T, fc *clockwork.FakeClock, svc *Service, id ViewID) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	before := now(t, svc, id)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool { return now(t, svc, id) != before }, 2*time.Second, time.Millisecond)
}

func counterValue(t *testing.T, svc *Service, name string) float64 {
	t.Helper()
	mfs, err := svc.metrics.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestService_Mount(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClock(), testFixtures())
	ctx := context.Background()

	res, err := svc.Mount(ctx, dataset.LensLandscape)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 160.0, res.MaxTime)

	other, err := svc.Mount(ctx, dataset.LensClaims)
	require.NoError(t, err)
	assert.NotEqual(t, res.ID, other.ID)
	assert.Zero(t, other.MaxTime)
	assert.Equal(t, 2, svc.ActiveViewCount())

	f, err := svc.Frame(res.ID)
	require.NoError(t, err)
	assert.Equal(t, ModeStatic, f.Mode)
	assert.Equal(t, playback.Stopped, f.Clock.Status)
	assert.Equal(t, "0:00 / 2:40", f.TimeLabel)
}

func TestService_Mount_unknownLens(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClock(), testFixtures())
	_, err := svc.Mount(context.Background(), dataset.Lens("wiki"))
	assert.True(t, errors.Is(err, ErrUnknownLens))
	assert.Zero(t, svc.ActiveViewCount())
}

func TestService_Mount_loadFailure(t *testing.T) {
	files := testFixtures()
	delete(files, dataset.FileLandscape)
	svc := newTestService(t, clockwork.NewFakeClock(), files)

	_, err := svc.Mount(context.Background(), dataset.LensLandscape)
	var le *fixture.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, dataset.FileLandscape, le.File)
	assert.Zero(t, svc.ActiveViewCount(), "failed mount leaves no view")
}

func TestService_playTicksFourSecondsAtDefaultSpeed(t *testing.T) {
	fc := clockwork.NewFakeClock()
	svc := newTestService(t, fc, testFixtures())
	id := mountTemporal(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionPlay}))
	tick(t, fc, svc, id)
	assert.InDelta(t, 4.0, now(t, svc, id), 1e-9)

	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionSpeed, Speed: 16}))
	tick(t, fc, svc, id)
	assert.InDelta(t, 20.0, now(t, svc, id), 1e-9)

	assert.Equal(t, 2.0, counterValue(t, svc, "topology_playback_ticks_total"))
}

func TestService_playsUntilMaxTimeThenStops(t *testing.T) {
	fc := clockwork.NewFakeClock()
	svc := newTestService(t, fc, testFixtures())
	id := mountTemporal(t, svc)
	ctx := context.Background()

	// 40 seconds per tick reaches 160 on the fourth tick.
	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionSpeed, Speed: 40}))
	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionPlay}))

	prev := 0.0
	for i := 0; i < 4; i++ {
		tick(t, fc, svc, id)
		cur := now(t, svc, id)
		assert.Greater(t, cur, prev, "time is monotonic while running")
		prev = cur
	}

	f, err := svc.Frame(id)
	require.NoError(t, err)
	assert.Equal(t, 160.0, f.Clock.CurrentTime)
	assert.False(t, f.Clock.Running)
	assert.Equal(t, 1.0, f.Clock.Progress)
	assert.Equal(t, 4.0, counterValue(t, svc, "topology_playback_ticks_total"))
	assert.Equal(t, 1.0, counterValue(t, svc, "topology_playbacks_finished_total"))

	// Finished playback cannot restart without rewinding.
	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionPlay}))
	f, _ = svc.Frame(id)
	assert.False(t, f.Clock.Running)

	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionReset}))
	f, _ = svc.Frame(id)
	assert.Zero(t, f.Clock.CurrentTime)
	assert.Equal(t, playback.Stopped, f.Clock.Status)
}

func TestService_pauseAndStaticModeStopTheClock(t *testing.T) {
	fc := clockwork.NewFakeClock()
	svc := newTestService(t, fc, testFixtures())
	id := mountTemporal(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionToggle}))
	tick(t, fc, svc, id)
	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionToggle}))

	f, _ := svc.Frame(id)
	assert.Equal(t, playback.Paused, f.Clock.Status)
	paused := f.Clock.CurrentTime
	fc.Advance(time.Second)
	assert.Equal(t, paused, now(t, svc, id), "no ticks apply while paused")

	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionPlay}))
	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionMode, Mode: ModeStatic}))
	f, _ = svc.Frame(id)
	assert.False(t, f.Clock.Running, "switching to static pauses")

	err := svc.Command(ctx, id, Command{Action: ActionPlay})
	assert.True(t, errors.Is(err, ErrStaticMode))
}

func TestService_staleTickAfterPausePlayIsDropped(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClock(), testFixtures())
	id := mountTemporal(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionPlay}))
	v, ok := svc.repo.Get(id)
	require.True(t, ok)
	v.mu.Lock()
	stale := svc.tick(v, v.gen)
	v.mu.Unlock()

	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionPause}))
	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionPlay}))

	assert.False(t, stale(100*time.Millisecond), "tick of the earlier run stops itself")
	assert.Zero(t, now(t, svc, id))
	assert.Zero(t, counterValue(t, svc, "topology_playback_ticks_total"))

	v.mu.Lock()
	current := svc.tick(v, v.gen)
	v.mu.Unlock()
	assert.True(t, current(100*time.Millisecond))
	assert.InDelta(t, 4.0, now(t, svc, id), 1e-9)
}

func TestService_seekClampsAndKeepsRunningState(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClock(), testFixtures())
	id := mountTemporal(t, svc)
	ctx := context.Background()

	for _, tc := range []struct {
		seek, want float64
	}{
		{-5, 0},
		{75, 75},
		{10000, 160},
	} {
		require.NoError(t, svc.Command(ctx, id, Command{Action: ActionSeek, Time: tc.seek}))
		assert.Equal(t, tc.want, now(t, svc, id), "seek %v", tc.seek)
	}
}

func TestService_speedMustBePositive(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClock(), testFixtures())
	id := mountTemporal(t, svc)

	for _, s := range []float64{0, -1} {
		err := svc.Command(context.Background(), id, Command{Action: ActionSpeed, Speed: s})
		assert.True(t, errors.Is(err, playback.ErrInvalidSpeed), "speed %v", s)
	}
	f, _ := svc.Frame(id)
	assert.Equal(t, playback.DefaultSpeed, f.Clock.Speed)
}

func TestService_Frame_temporalStates(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClock(), testFixtures())
	id := mountTemporal(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionSeek, Time: 15}))
	f, err := svc.Frame(id)
	require.NoError(t, err)

	states := map[int]playback.State{}
	for _, p := range f.Points {
		states[p.ID] = p.State
	}
	assert.Equal(t, map[int]playback.State{1: playback.Past, 2: playback.Current, 3: playback.Future}, states)
	require.NotNil(t, f.Current)
	assert.Equal(t, 2, f.Current.ID)
	require.Len(t, f.Trajectory, 1)
	assert.Equal(t, 1, f.Trajectory[0].From.ID)
	assert.Equal(t, 2, f.Trajectory[0].To.ID)
	assert.Equal(t, "0:15 / 2:40", f.TimeLabel)
}

func TestService_Frame_staticShowsEverything(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClock(), testFixtures())
	res, err := svc.Mount(context.Background(), dataset.LensLandscape)
	require.NoError(t, err)

	f, err := svc.Frame(res.ID)
	require.NoError(t, err)
	require.Len(t, f.Points, 3)
	for _, p := range f.Points {
		assert.Equal(t, playback.All, p.State)
	}
	assert.Nil(t, f.Current)
	assert.Len(t, f.Trajectory, 2)
	assert.Equal(t, dataset.ToneMarcus.Hex(), f.Points[0].Color)
}

func TestService_filterAndSelect(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClock(), testFixtures())
	res, err := svc.Mount(context.Background(), dataset.LensLandscape)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Command(ctx, res.ID, Command{Action: ActionFilter, Speaker: "marcus"}))
	f, _ := svc.Frame(res.ID)
	require.Len(t, f.Points, 2)
	require.NotNil(t, f.Speaker)
	assert.Equal(t, dataset.SpeakerMarcus, *f.Speaker)

	err = svc.Command(ctx, res.ID, Command{Action: ActionFilter, Speaker: "plato"})
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	require.NoError(t, svc.Command(ctx, res.ID, Command{Action: ActionFilter, Speaker: ""}))
	f, _ = svc.Frame(res.ID)
	assert.Len(t, f.Points, 3)
	assert.Nil(t, f.Speaker)

	two := 2
	require.NoError(t, svc.Command(ctx, res.ID, Command{Action: ActionSelect, PointID: &two}))
	require.NoError(t, svc.Command(ctx, res.ID, Command{Action: ActionSelect, ClaimID: "M1"}))
	f, _ = svc.Frame(res.ID)
	require.NotNil(t, f.SelectedPoint)
	assert.Equal(t, 2, *f.SelectedPoint)
	assert.Equal(t, "M1", f.SelectedClaim)

	missing := 99
	err = svc.Command(ctx, res.ID, Command{Action: ActionSelect, PointID: &missing})
	assert.True(t, errors.Is(err, ErrPointNotFound))
	err = svc.Command(ctx, res.ID, Command{Action: ActionSelect, ClaimID: "X9"})
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	require.NoError(t, svc.Command(ctx, res.ID, Command{Action: ActionSelect}))
	f, _ = svc.Frame(res.ID)
	assert.Nil(t, f.SelectedPoint)
	assert.Empty(t, f.SelectedClaim)
}

func TestService_Command_errors(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClock(), testFixtures())
	ctx := context.Background()

	err := svc.Command(ctx, "missing", Command{Action: ActionPlay})
	assert.True(t, errors.Is(err, ErrViewNotFound))

	res, err := svc.Mount(ctx, dataset.LensFlow)
	require.NoError(t, err)
	for _, a := range []Action{ActionPlay, ActionPause, ActionSeek, ActionSpeed, ActionMode} {
		err = svc.Command(ctx, res.ID, Command{Action: a, Speed: 1})
		assert.True(t, errors.Is(err, ErrNoPlayback), string(a))
	}
	err = svc.Command(ctx, res.ID, Command{Action: "rewind"})
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestService_UnmountCancelsTimer(t *testing.T) {
	fc := clockwork.NewFakeClock()
	svc := newTestService(t, fc, testFixtures())
	id := mountTemporal(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Command(ctx, id, Command{Action: ActionPlay}))
	tick(t, fc, svc, id)

	require.NoError(t, svc.Unmount(id))
	assert.Zero(t, svc.ActiveViewCount())
	_, err := svc.Frame(id)
	assert.True(t, errors.Is(err, ErrViewNotFound))
	assert.True(t, errors.Is(svc.Unmount(id), ErrViewNotFound))

	// Nothing is scheduled any more.
	ctx2, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, fc.BlockUntilContext(ctx2, 1))
}

func TestService_concurrentCommandsAndTicks(t *testing.T) {
	fc := clockwork.NewFakeClock()
	svc := newTestService(t, fc, testFixtures())
	id := mountTemporal(t, svc)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				switch (i + j) % 4 {
				case 0:
					_ = svc.Command(ctx, id, Command{Action: ActionPlay})
				case 1:
					_ = svc.Command(ctx, id, Command{Action: ActionPause})
				case 2:
					_ = svc.Command(ctx, id, Command{Action: ActionSeek, Time: float64(j)})
				case 3:
					_, _ = svc.Frame(id)
				}
				fc.Advance(100 * time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	f, err := svc.Frame(id)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, f.Clock.CurrentTime, 0.0)
	assert.LessOrEqual(t, f.Clock.CurrentTime, f.Clock.MaxTime)
	require.NoError(t, svc.Unmount(id))
}

func TestService_geometry(t *testing.T) {
	svc := newTestService(t, clockwork.NewFakeClock(), testFixtures())
	ctx := context.Background()

	radar, err := svc.Radar(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(280), radar.Size)
	assert.Len(t, radar.Axes, 2)

	bars, err := svc.Spectra(ctx)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "Gap: 60%", bars[0].GapLabel)
	assert.Equal(t, dataset.GapHigh, bars[0].Severity)

	layout, err := svc.FlowLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, layout.Duration)
	require.Len(t, layout.Inflections, 1)
	assert.Equal(t, 25.0, layout.Inflections[0].Left)
}

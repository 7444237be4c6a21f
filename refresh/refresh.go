// Package refresh drives the periodic work behind live displays: the 30 s
// departure refresh, the 10 s countdown re-render, and the debounced map
// interaction handlers. Tasks belong to a Scheduler and die with it.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tartu-transit/buscore/derive"
	"github.com/tartu-transit/buscore/transit"
)

const (
	// DepartureInterval is how often the active nearby/favorites query is
	// re-run.
	DepartureInterval = 30 * time.Second

	// CountdownInterval re-renders countdown labels against the wall clock.
	CountdownInterval = 10 * time.Second

	// restartDistanceMeters is how far the location must move before the
	// departure refresh restarts. GPS drift must not reset intervals.
	restartDistanceMeters = 100
)

// Scheduler owns periodic tasks for one view's lifetime. Close cancels all
// of them.
type Scheduler struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
	stops  []func()
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Every runs fn every interval until the returned stop function is called
// or the Scheduler is closed. The first run happens after one interval.
func (s *Scheduler) Every(interval time.Duration, fn func()) (stop func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stops = append(s.stops, cancel)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return cancel
}

// Close cancels every task and waits for their goroutines to exit.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	stops := s.stops
	s.stops = nil
	s.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	s.wg.Wait()
}

// DepartureRefresh restarts its interval only when the trigger key changes:
// a location step over 100 m (detected through 3-decimal coordinate
// rounding, ~110 m per step) or a favorites-list change.
type DepartureRefresh struct {
	sched *Scheduler
	fn    func()

	mu       sync.Mutex
	key      string
	stop     func()
	interval time.Duration
}

// NewDepartureRefresh wires fn to the scheduler at DepartureInterval.
func NewDepartureRefresh(s *Scheduler, fn func()) *DepartureRefresh {
	return &DepartureRefresh{sched: s, fn: fn, interval: DepartureInterval}
}

// Sync recomputes the trigger key from the current position and favorites
// count; when it differs from the running task's key the task is restarted
// and fn runs once immediately.
func (r *DepartureRefresh) Sync(pos transit.LatLon, favoritesCount int) {
	key := fmt.Sprintf("%.3f_%.3f_%d", pos.Lat, pos.Lon, favoritesCount)

	r.mu.Lock()
	if key == r.key {
		r.mu.Unlock()
		return
	}
	if r.stop != nil {
		r.stop()
	}
	r.key = key
	r.stop = r.sched.Every(r.interval, r.fn)
	r.mu.Unlock()

	r.fn()
}

// Stop cancels the running task without forgetting the key.
func (r *DepartureRefresh) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		r.stop()
		r.stop = nil
		r.key = ""
	}
}

// Debouncer delays a callback until the input has been quiet for the
// configured window. Each Trigger resets the window.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer returns a Debouncer with the given quiescence window. The
// map viewport handler uses 300 ms.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the quiescence window, cancelling any pending
// invocation.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel drops any pending invocation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// MoveGate admits a map-move refetch only after a quiet period and a
// minimum movement from the last admitted center. It keeps panning from
// hammering the endpoint.
type MoveGate struct {
	quiet     time.Duration
	minMeters float64
	now       func() time.Time

	mu       sync.Mutex
	last     transit.LatLon
	lastSet  bool
	lastTime time.Time
}

// NewMoveGate returns a gate with the given quiet period and minimum
// movement. The map refetch path uses 500 ms and a zoom-dependent radius.
func NewMoveGate(quiet time.Duration, minMeters float64) *MoveGate {
	return &MoveGate{quiet: quiet, minMeters: minMeters, now: time.Now}
}

// Admit reports whether a refetch centered on pos should proceed, and
// records pos as the new reference when it does.
func (g *MoveGate) Admit(pos transit.LatLon) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.lastSet {
		g.last, g.lastSet, g.lastTime = pos, true, now
		return true
	}
	if now.Sub(g.lastTime) < g.quiet {
		return false
	}
	if derive.Haversine(g.last.Lat, g.last.Lon, pos.Lat, pos.Lon) < g.minMeters {
		return false
	}
	g.last, g.lastTime = pos, now
	return true
}

// Package location abstracts the device positioning facility. A Provider
// supplies raw fixes; the Source filters them and holds the last known
// position for consumers that need a point before the first fix arrives.
package location

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tartu-transit/buscore/derive"
	"github.com/tartu-transit/buscore/transit"
)

// driftThresholdMeters is the minimum movement between two fixes before the
// newer one is propagated. Fixes inside the threshold are positioning noise.
const driftThresholdMeters = 10

// Fix is one position report from the platform.
type Fix struct {
	Lat      float64
	Lon      float64
	Accuracy float64 // meters, 0 when unknown
	Time     time.Time
}

// Provider is the platform positioning facility. Current blocks for a
// single high-accuracy fix; Watch streams fixes until the returned stop
// function is called or ctx is done.
type Provider interface {
	Current(ctx context.Context) (Fix, error)
	Watch(ctx context.Context) (<-chan Fix, func())
}

// Source wraps a Provider with drift filtering and a fallback point. All
// methods are safe for concurrent use.
type Source struct {
	provider Provider
	fallback transit.LatLon

	mu        sync.Mutex
	last      *Fix
	lastErr   error
	stopWatch func()
	watchDone chan struct{}
}

// NewSource returns a Source that reports fallback until the first fix.
func NewSource(p Provider, fallback transit.LatLon) *Source {
	return &Source{provider: p, fallback: fallback}
}

// Last returns the most recent propagated position, or the fallback point
// when no fix has arrived yet.
func (s *Source) Last() transit.LatLon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return s.fallback
	}
	return transit.LatLon{Lat: s.last.Lat, Lon: s.last.Lon}
}

// Err returns the error from the most recent failed acquisition, cleared by
// the next successful fix.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// GetOnce acquires a single fix, updates the last known position and
// returns it. On failure the previous position (or fallback) is returned
// alongside the error.
func (s *Source) GetOnce(ctx context.Context) (transit.LatLon, error) {
	fix, err := s.provider.Current(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		if s.last == nil {
			return s.fallback, err
		}
		return transit.LatLon{Lat: s.last.Lat, Lon: s.last.Lon}, err
	}
	s.lastErr = nil
	s.last = &fix
	return transit.LatLon{Lat: fix.Lat, Lon: fix.Lon}, nil
}

// StartWatch begins continuous tracking. Fixes that moved less than the
// drift threshold from the last propagated one are dropped. Starting a
// watch while another is active replaces it.
func (s *Source) StartWatch(ctx context.Context) {
	s.mu.Lock()
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	fixes, stop := s.provider.Watch(ctx)
	done := make(chan struct{})
	s.stopWatch = stop
	s.watchDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for fix := range fixes {
			s.propagate(fix)
		}
	}()
}

// StopWatch cancels the active watch, if any, and waits for its consumer
// goroutine to drain.
func (s *Source) StopWatch() {
	s.mu.Lock()
	stop := s.stopWatch
	done := s.watchDone
	s.stopWatch = nil
	s.watchDone = nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if done != nil {
		<-done
	}
}

func (s *Source) propagate(fix Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil {
		d := derive.Haversine(s.last.Lat, s.last.Lon, fix.Lat, fix.Lon)
		if d < driftThresholdMeters {
			return
		}
	}
	s.lastErr = nil
	s.last = &fix
}

// FixedProvider always reports the same point. Useful for the CLI and for
// environments without positioning hardware.
type FixedProvider struct {
	Point transit.LatLon
}

func (p FixedProvider) Current(ctx context.Context) (Fix, error) {
	return Fix{Lat: p.Point.Lat, Lon: p.Point.Lon, Time: time.Now()}, nil
}

func (p FixedProvider) Watch(ctx context.Context) (<-chan Fix, func()) {
	ch := make(chan Fix, 1)
	fix, err := p.Current(ctx)
	if err != nil {
		log.Printf("location: fixed provider: %v", err)
	} else {
		ch <- fix
	}
	close(ch)
	return ch, func() {}
}

package sim

import (
	"context"
	"runtime"
	"time"

	"arenasrv/logging"
	"arenasrv/logging/simulation"
)

const (
	// TickRate is the fixed simulation rate (§5).
	TickRate = 20
	// TickInterval is Δt expressed as a duration: 50ms.
	TickInterval = time.Second / TickRate
	// Dt is Δt expressed in seconds, the unit every physics formula in
	// §4.4 is written against.
	Dt = float64(TickInterval) / float64(time.Second)
	// maxCatchUpTicks bounds how many ticks a single accumulator drain can
	// run, so a long stall (GC pause, debugger breakpoint, slow host)
	// doesn't make the simulation spiral trying to repay lost time.
	maxCatchUpTicks = 5
)

// TickFunc advances the simulation by exactly one fixed timestep.
type TickFunc func(now time.Time)

// Scheduler drives TickFunc at a fixed rate using an accumulator (§5):
// wall-clock time between wakeups is banked, and whole Δt-sized chunks are
// repaid up to the catch-up cap before any chunk is dropped.
type Scheduler struct {
	clock     logging.Clock
	tick      TickFunc
	publisher logging.Publisher
	tickCount uint64
}

func NewScheduler(clock logging.Clock, tick TickFunc) *Scheduler {
	if clock == nil {
		clock = logging.SystemClock{}
	}
	return &Scheduler{clock: clock, tick: tick, publisher: logging.NopPublisher()}
}

// SetPublisher attaches a logging router so lag events can be reported
// when the catch-up cap is hit. Optional.
func (s *Scheduler) SetPublisher(publisher logging.Publisher) {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	s.publisher = publisher
}

// Run blocks, advancing the simulation in fixed Dt-second steps, until ctx
// is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	last := s.clock.Now()
	var accumulator time.Duration

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			accumulator += now.Sub(last)
			last = now

			steps := 0
			for accumulator >= TickInterval && steps < maxCatchUpTicks {
				s.tick(now)
				s.tickCount++
				accumulator -= TickInterval
				steps++
				runtime.Gosched()
			}
			if steps == maxCatchUpTicks {
				dropped := accumulator
				accumulator = 0
				simulation.TickLagDropped(ctx, s.publisher, s.tickCount, simulation.TickLagDroppedPayload{
					CatchUpTicks:  maxCatchUpTicks,
					DroppedMillis: dropped.Milliseconds(),
				})
			}
		}
	}
}

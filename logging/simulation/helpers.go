// Package simulation publishes scheduler health events through the
// logging router (§4.3, §7).
package simulation

import (
	"context"

	"arenasrv/logging"
)

// EventTickLagDropped is emitted when the fixed-tick scheduler hits its
// catch-up cap and drops the remaining accumulated time instead of
// repaying it.
const EventTickLagDropped logging.EventType = "simulation.tick_lag_dropped"

// TickLagDroppedPayload captures how far behind the scheduler fell before
// it gave up repaying the backlog.
type TickLagDroppedPayload struct {
	CatchUpTicks  int   `json:"catchUpTicks"`
	DroppedMillis int64 `json:"droppedMillis"`
}

// TickLagDropped publishes a warning when the scheduler drops surplus
// ticks rather than let the simulation spiral trying to repay lost time.
func TickLagDropped(ctx context.Context, pub logging.Publisher, tick uint64, payload TickLagDroppedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickLagDropped,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

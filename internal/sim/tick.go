// README: Tick orchestrator; movement, batch dispatch, acceptance in order.
package sim

import "dispatchsim/internal/types"

// TickResult reports what one tick did: the new tick number, the surviving
// assignments, acceptance outcomes, and a state summary.
type TickResult struct {
	Tick            int                    `json:"tick"`
	Dispatched      map[types.ID]types.ID  `json:"dispatched"`
	DispatchedCount int                    `json:"dispatched_count"`
	Accepted        int                    `json:"accepted"`
	Rejected        int                    `json:"rejected"`
	Summary         Summary                `json:"summary"`
}

// AdvanceTick advances the world by exactly one tick: the counter is
// incremented, every driver moves one step, all dispatchable rides are batch
// dispatched oldest first, and each fresh assignment is resolved through the
// acceptance protocol (rejections cascade through fallback dispatch inline).
// The whole tick executes under the world lock, so external observers see it
// as atomic.
func (w *World) AdvanceTick() TickResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.currentTick++
	w.processAllDriverMovements()

	assignments := w.batchDispatch()

	res := TickResult{
		Tick:       w.currentTick,
		Dispatched: make(map[types.ID]types.ID),
	}
	for _, a := range assignments {
		if w.autoProcessAcceptance(a.DriverID, a.RideID) {
			res.Accepted++
		} else {
			res.Rejected++
		}
		// Record whatever assignment survived acceptance: the original
		// driver, a fallback replacement, or nothing at all.
		if ride, ok := w.rides[a.RideID]; ok &&
			ride.Status == RideAssigned && ride.AssignedDriverID != nil {
			res.Dispatched[a.RideID] = *ride.AssignedDriverID
		}
	}
	res.DispatchedCount = len(res.Dispatched)
	res.Summary = w.summary()

	w.log.Printf("tick %d: %d dispatched, %d accepted, %d rejected",
		res.Tick, res.DispatchedCount, res.Accepted, res.Rejected)
	return res
}

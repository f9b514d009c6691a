// README: Dispatch engine; finds, ranks, and assigns drivers to ride requests.
package sim

import (
	"sort"

	"dispatchsim/internal/geo"
	"dispatchsim/internal/types"
)

// Assignment pairs a ride with the driver dispatch chose for it.
type Assignment struct {
	RideID   types.ID `json:"ride_id"`
	DriverID types.ID `json:"driver_id"`
}

// eligibleDrivers filters the available pool for a ride: the driver must not
// have rejected it, and the pickup point must be within the driver's current
// search radius. Rides older than GlobalSearchAfterTicks waive the radius
// check so stale requests become visible everywhere. Callers must hold w.mu.
func (w *World) eligibleDrivers(ride *RideRequest) []*Driver {
	globalSearch := w.cfg.GlobalSearchAfterTicks > 0 &&
		w.currentTick-ride.CreatedTick >= w.cfg.GlobalSearchAfterTicks

	var eligible []*Driver
	for _, d := range w.availableDrivers() {
		if ride.HasRejected(d.ID) {
			continue
		}
		if !globalSearch && !geo.WithinRadius(d.Pos, ride.Pickup, d.SearchRadius) {
			continue
		}
		eligible = append(eligible, d)
	}
	return eligible
}

// rankDrivers orders eligible drivers by the composite dispatch score
//
//	fairnessWeight * completed_rides * 10 + distance(driver, pickup)
//
// ascending. Ties break by completed rides, then distance, then id, so the
// ranking is total and deterministic.
func rankDrivers(eligible []*Driver, ride *RideRequest, fairnessWeight float64) []*Driver {
	type scored struct {
		driver    *Driver
		composite float64
		distance  int
	}
	ranked := make([]scored, 0, len(eligible))
	for _, d := range eligible {
		dist := geo.Distance(d.Pos, ride.Pickup)
		ranked = append(ranked, scored{
			driver:    d,
			composite: fairnessWeight*float64(d.CompletedRides)*10 + float64(dist),
			distance:  dist,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.composite != b.composite {
			return a.composite < b.composite
		}
		if a.driver.CompletedRides != b.driver.CompletedRides {
			return a.driver.CompletedRides < b.driver.CompletedRides
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		return a.driver.ID < b.driver.ID
	})

	out := make([]*Driver, len(ranked))
	for i, s := range ranked {
		out[i] = s.driver
	}
	return out
}

// DispatchRide attempts to assign the best eligible driver to the ride.
// Failure to find a driver is a normal outcome, not an error: the ride is
// left untouched and (false, "") is returned.
func (w *World) DispatchRide(rideID types.ID) (bool, types.ID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dispatchRide(rideID)
}

func (w *World) dispatchRide(rideID types.ID) (bool, types.ID) {
	ride, ok := w.rides[rideID]
	if !ok {
		w.log.Printf("dispatch: ride %s not found", rideID)
		return false, ""
	}
	if ride.Status != RideWaiting {
		return false, ""
	}
	if ride.IsInCooldown(w.currentTick) {
		return false, ""
	}

	eligible := w.eligibleDrivers(ride)
	if len(eligible) == 0 {
		return false, ""
	}

	best := rankDrivers(eligible, ride, w.cfg.FairnessPenalty)[0]

	_ = ride.Assign(best.ID)
	_ = best.transition(DriverAssigned)
	rid := ride.ID
	best.CurrentRideID = &rid
	best.resetIdleState(w.cfg.InitialSearchRadius)

	w.log.Printf("dispatched ride %s to driver %s", rideID, best.ID)
	return true, best.ID
}

// BatchDispatch assigns drivers to every dispatchable ride, oldest first.
// It returns the ride-to-driver map of successful assignments.
func (w *World) BatchDispatch() map[types.ID]types.ID {
	w.mu.Lock()
	defer w.mu.Unlock()

	dispatched := make(map[types.ID]types.ID)
	for _, a := range w.batchDispatch() {
		dispatched[a.RideID] = a.DriverID
	}
	return dispatched
}

// batchDispatch processes waiting, non-cooldown rides strictly in created
// tick order (FIFO across requests). Each success removes a driver from the
// available pool, so the ordering decides who wins contested drivers.
// Callers must hold w.mu.
func (w *World) batchDispatch() []Assignment {
	waiting := w.waitingRides()
	sort.Slice(waiting, func(i, j int) bool {
		if waiting[i].CreatedTick != waiting[j].CreatedTick {
			return waiting[i].CreatedTick < waiting[j].CreatedTick
		}
		return waiting[i].ID < waiting[j].ID
	})

	var assignments []Assignment
	for _, ride := range waiting {
		if ok, driverID := w.dispatchRide(ride.ID); ok {
			assignments = append(assignments, Assignment{RideID: ride.ID, DriverID: driverID})
		}
	}
	w.log.Printf("batch dispatch: %d of %d waiting rides assigned", len(assignments), len(waiting))
	return assignments
}

// attemptFallbackDispatch retries assignment right after a rejection. The
// rejection is recorded, the ride's cooldown is suspended for the retry, and
// restored if no replacement driver is found. When every currently available
// driver is in the rejected set the ride is marked failed. Callers must hold
// w.mu.
func (w *World) attemptFallbackDispatch(rideID, rejectedDriverID types.ID) (bool, types.ID) {
	ride, ok := w.rides[rideID]
	if !ok {
		w.log.Printf("fallback dispatch: ride %s not found", rideID)
		return false, ""
	}

	ride.AddRejection(rejectedDriverID, w.currentTick, w.cfg.RejectionCooldownTicks)
	if ride.Status == RideAssigned {
		_ = ride.Release()
	}

	originalCooldown := ride.CooldownUntilTick
	ride.CooldownUntilTick = nil

	ok, driverID := w.dispatchRide(rideID)
	if !ok {
		ride.CooldownUntilTick = originalCooldown

		allRejected := true
		for _, d := range w.availableDrivers() {
			if !ride.HasRejected(d.ID) {
				allRejected = false
				break
			}
		}
		if allRejected {
			_ = ride.Fail()
			w.log.Printf("ride %s failed: all available drivers rejected", rideID)
		}
	}
	return ok, driverID
}

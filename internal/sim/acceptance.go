// README: Acceptance protocol; resolves driver accept/reject and fallback.
package sim

import (
	"math"

	"dispatchsim/internal/geo"
	"dispatchsim/internal/types"
)

// ShouldAccept is the deterministic acceptance rule: a driver accepts iff it
// is available and the pickup point is within its current search radius. A
// driver tentatively assigned to the ride under evaluation counts as
// available for that ride, so the rule can be applied after dispatch has
// already flagged the driver.
func ShouldAccept(d *Driver, r *RideRequest) bool {
	switch d.Status {
	case DriverAvailable:
	case DriverAssigned:
		if d.CurrentRideID == nil || *d.CurrentRideID != r.ID {
			return false
		}
	default:
		return false
	}
	return geo.WithinRadius(d.Pos, r.Pickup, d.SearchRadius)
}

// ProcessResponse applies a driver's accept/reject decision for a ride it is
// assigned to. It returns false without mutating anything when the driver or
// ride is missing, when the ride is not in assigned status, or when the
// responding driver is not the assigned one (stale or duplicate responses).
//
// A rejection reverts driver and ride, records the rejection with its
// cooldown, and immediately attempts fallback dispatch; the fallback runs to
// completion before this call returns.
func (w *World) ProcessResponse(driverID, rideID types.ID, accepted bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.processResponse(driverID, rideID, accepted)
}

func (w *World) processResponse(driverID, rideID types.ID, accepted bool) bool {
	driver, ok := w.drivers[driverID]
	if !ok {
		w.log.Printf("response: driver %s not found", driverID)
		return false
	}
	ride, ok := w.rides[rideID]
	if !ok {
		w.log.Printf("response: ride %s not found", rideID)
		return false
	}
	if ride.Status != RideAssigned || ride.AssignedDriverID == nil || *ride.AssignedDriverID != driverID {
		w.log.Printf("response: driver %s is not assigned to ride %s", driverID, rideID)
		return false
	}

	if accepted {
		driver.Status = DriverAssigned
		rid := ride.ID
		driver.CurrentRideID = &rid
		driver.resetIdleState(w.cfg.InitialSearchRadius)
		// Ride stays assigned; movement handles the pickup transition.
		w.log.Printf("driver %s accepted ride %s", driverID, rideID)
		return true
	}

	_ = driver.transition(DriverAvailable)
	driver.CurrentRideID = nil

	ride.AddRejection(driverID, w.currentTick, w.cfg.RejectionCooldownTicks)
	_ = ride.Release()

	w.log.Printf("driver %s rejected ride %s", driverID, rideID)
	if ok, newDriverID := w.attemptFallbackDispatch(rideID, driverID); ok {
		w.log.Printf("ride %s reassigned to driver %s after rejection", rideID, newDriverID)
	}
	return true
}

// AutoProcessAcceptance computes the deterministic acceptance decision for a
// fresh assignment and feeds it through ProcessResponse. It is the only
// acceptance entry point used by automatic simulation; the returned value is
// the acceptance outcome.
func (w *World) AutoProcessAcceptance(driverID, rideID types.ID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.autoProcessAcceptance(driverID, rideID)
}

func (w *World) autoProcessAcceptance(driverID, rideID types.ID) bool {
	driver, ok := w.drivers[driverID]
	if !ok {
		w.log.Printf("auto acceptance: driver %s not found", driverID)
		return false
	}
	ride, ok := w.rides[rideID]
	if !ok {
		w.log.Printf("auto acceptance: ride %s not found", rideID)
		return false
	}

	accepted := ShouldAccept(driver, ride)
	w.processResponse(driverID, rideID, accepted)
	return accepted
}

// HasWorkloadCapacity reports whether the driver is under the per-shift ride
// cap. Optional workload gate for external acceptance policies.
func HasWorkloadCapacity(d *Driver, maxRidesPerShift int) bool {
	return d.CompletedRides < maxRidesPerShift
}

// AcceptanceProbability models a stochastic acceptance decision for manual
// or experimental callers: closer pickups raise the probability, heavy ride
// counts lower it through a fatigue factor. The automatic simulation path
// never uses it; the deterministic rule in ShouldAccept is canonical.
func AcceptanceProbability(d *Driver, r *RideRequest, baseProbability float64) float64 {
	probability := baseProbability

	distance := geo.Distance(d.Pos, r.Pickup)
	if d.SearchRadius > 0 {
		distanceFactor := 1.0 - float64(distance)/float64(d.SearchRadius)
		probability *= 0.7 + 0.3*distanceFactor
	}

	if d.CompletedRides > 10 {
		fatigue := math.Max(0.5, 1.0-float64(d.CompletedRides-10)*0.05)
		probability *= fatigue
	}

	return math.Min(1.0, math.Max(0.0, probability))
}

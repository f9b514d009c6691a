// README: Simulation entities, status enumerations, and legal transitions.
package sim

import (
	"errors"

	"dispatchsim/internal/types"
)

type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverAssigned  DriverStatus = "assigned"
	DriverOnTrip    DriverStatus = "on_trip"
	DriverOffline   DriverStatus = "offline"
)

type RiderStatus string

const (
	RiderWaiting   RiderStatus = "waiting"
	RiderPickedUp  RiderStatus = "picked_up"
	RiderCompleted RiderStatus = "completed"
)

type RideStatus string

const (
	RideWaiting   RideStatus = "waiting"
	RideAssigned  RideStatus = "assigned"
	RidePickup    RideStatus = "pickup"
	RideOnTrip    RideStatus = "on_trip"
	RideCompleted RideStatus = "completed"
	RideFailed    RideStatus = "failed"
)

// ErrInvalidTransition is returned when a status change is not present in the
// transition tables below.
var ErrInvalidTransition = errors.New("invalid status transition")

// AllowedDriverTransitions represents the driver state flow as code. A
// rejection returns an assigned driver to the available pool.
var AllowedDriverTransitions = map[DriverStatus][]DriverStatus{
	DriverAvailable: {DriverAssigned, DriverOffline},
	DriverAssigned:  {DriverOnTrip, DriverAvailable},
	DriverOnTrip:    {DriverAvailable},
	DriverOffline:   {DriverAvailable},
}

var AllowedRiderTransitions = map[RiderStatus][]RiderStatus{
	RiderWaiting:  {RiderPickedUp},
	RiderPickedUp: {RiderCompleted},
}

// AllowedRideTransitions: ASSIGNED may revert to WAITING on rejection, and
// may skip PICKUP when the driver arrives at the pickup point in one step.
var AllowedRideTransitions = map[RideStatus][]RideStatus{
	RideWaiting:  {RideAssigned, RideFailed},
	RideAssigned: {RidePickup, RideOnTrip, RideWaiting},
	RidePickup:   {RideOnTrip},
	RideOnTrip:   {RideCompleted},
}

func canTransition[S comparable](table map[S][]S, from, to S) bool {
	next, ok := table[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func CanTransitionDriver(from, to DriverStatus) bool {
	return canTransition(AllowedDriverTransitions, from, to)
}

func CanTransitionRider(from, to RiderStatus) bool {
	return canTransition(AllowedRiderTransitions, from, to)
}

func CanTransitionRide(from, to RideStatus) bool {
	return canTransition(AllowedRideTransitions, from, to)
}

// Driver is a vehicle roaming the grid. CurrentRideID is non-nil iff the
// status is assigned or on_trip.
type Driver struct {
	ID             types.ID     `json:"id"`
	Pos            types.Point  `json:"position"`
	Status         DriverStatus `json:"status"`
	SearchRadius   int          `json:"search_radius"`
	CompletedRides int          `json:"completed_rides"`
	IdleTicks      int          `json:"idle_ticks"`
	CurrentRideID  *types.ID    `json:"current_ride_id,omitempty"`
}

func (d *Driver) IsAvailable() bool {
	return d.Status == DriverAvailable
}

func (d *Driver) transition(to DriverStatus) error {
	if !CanTransitionDriver(d.Status, to) {
		return ErrInvalidTransition
	}
	d.Status = to
	return nil
}

// resetIdleState zeroes the idle counter and shrinks the search radius back
// to the configured initial value. Called when the driver is assigned a ride.
func (d *Driver) resetIdleState(initialRadius int) {
	d.IdleTicks = 0
	d.SearchRadius = initialRadius
}

type Rider struct {
	ID     types.ID    `json:"id"`
	Pos    types.Point `json:"position"`
	Status RiderStatus `json:"status"`
}

func (r *Rider) transition(to RiderStatus) error {
	if !CanTransitionRider(r.Status, to) {
		return ErrInvalidTransition
	}
	r.Status = to
	return nil
}

// RideRequest is a rider's trip order. Requests are never deleted; they end
// in a terminal completed or failed status for audit purposes.
type RideRequest struct {
	ID                types.ID    `json:"id"`
	RiderID           types.ID    `json:"rider_id"`
	Pickup            types.Point `json:"pickup"`
	Dropoff           types.Point `json:"dropoff"`
	Status            RideStatus  `json:"status"`
	AssignedDriverID  *types.ID   `json:"assigned_driver_id,omitempty"`
	RejectedDriverIDs []types.ID  `json:"rejected_driver_ids"`
	CreatedTick       int         `json:"created_tick"`
	CooldownUntilTick *int        `json:"cooldown_until_tick,omitempty"`
}

// IsInCooldown reports whether the ride is ineligible for dispatch at the
// given tick.
func (r *RideRequest) IsInCooldown(currentTick int) bool {
	return r.CooldownUntilTick != nil && currentTick < *r.CooldownUntilTick
}

// HasRejected reports whether the driver has already rejected this ride.
func (r *RideRequest) HasRejected(driverID types.ID) bool {
	for _, id := range r.RejectedDriverIDs {
		if id == driverID {
			return true
		}
	}
	return false
}

// AddRejection records a driver rejection and arms the dispatch cooldown.
// The rejected set is append-only; duplicates are ignored.
func (r *RideRequest) AddRejection(driverID types.ID, currentTick, cooldownTicks int) {
	if !r.HasRejected(driverID) {
		r.RejectedDriverIDs = append(r.RejectedDriverIDs, driverID)
	}
	until := currentTick + cooldownTicks
	r.CooldownUntilTick = &until
}

// Assign moves the ride to assigned status and records the driver.
func (r *RideRequest) Assign(driverID types.ID) error {
	if !CanTransitionRide(r.Status, RideAssigned) {
		return ErrInvalidTransition
	}
	r.Status = RideAssigned
	r.AssignedDriverID = &driverID
	return nil
}

// Release reverts a tentatively assigned ride to waiting after a rejection.
func (r *RideRequest) Release() error {
	if !CanTransitionRide(r.Status, RideWaiting) {
		return ErrInvalidTransition
	}
	r.Status = RideWaiting
	r.AssignedDriverID = nil
	return nil
}

// StartTrip marks the rider as picked up (ride moves to on_trip).
func (r *RideRequest) StartTrip() error {
	if !CanTransitionRide(r.Status, RideOnTrip) {
		return ErrInvalidTransition
	}
	r.Status = RideOnTrip
	return nil
}

// Complete marks the ride as successfully finished.
func (r *RideRequest) Complete() error {
	if !CanTransitionRide(r.Status, RideCompleted) {
		return ErrInvalidTransition
	}
	r.Status = RideCompleted
	return nil
}

// Fail marks the ride as terminally failed; no further dispatch attempts
// will ever match it.
func (r *RideRequest) Fail() error {
	if !CanTransitionRide(r.Status, RideFailed) {
		return ErrInvalidTransition
	}
	r.Status = RideFailed
	return nil
}

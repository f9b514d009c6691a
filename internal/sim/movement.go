// README: Movement engine; per-tick driver progression and radius growth.
package sim

import (
	"sort"

	"dispatchsim/internal/geo"
	"dispatchsim/internal/types"
)

// Axis-aligned movement directions; drivers never move diagonally.
var directions = [4]types.Point{
	{X: 0, Y: 1},
	{X: 0, Y: -1},
	{X: -1, Y: 0},
	{X: 1, Y: 0},
}

func step(delta int) int {
	if delta > 0 {
		return 1
	}
	return -1
}

// moveDriverRandomly walks an available driver one grid unit in a uniformly
// random direction, clamped to the grid. Callers must hold w.mu.
func (w *World) moveDriverRandomly(d *Driver) {
	if d.Status != DriverAvailable {
		return
	}
	dir := directions[w.rng.Intn(len(directions))]
	d.Pos = geo.ClampToGrid(types.Point{X: d.Pos.X + dir.X, Y: d.Pos.Y + dir.Y}, w.cfg.GridSize)
}

// moveDriverToward advances the driver one unit toward target, preferring
// the axis with the larger remaining offset; equal offsets pick an axis at
// random. Callers must hold w.mu.
func (w *World) moveDriverToward(d *Driver, target types.Point) {
	if d.Pos == target {
		return
	}
	dx := target.X - d.Pos.X
	dy := target.Y - d.Pos.Y

	next := d.Pos
	switch {
	case absInt(dx) > absInt(dy):
		next.X += step(dx)
	case absInt(dy) > absInt(dx):
		next.Y += step(dy)
	default:
		if w.rng.Intn(2) == 0 {
			next.X += step(dx)
		} else {
			next.Y += step(dy)
		}
	}
	d.Pos = geo.ClampToGrid(next, w.cfg.GridSize)
}

// growSearchRadius counts an idle tick for an available driver and grows its
// search radius by one unit every RadiusGrowthInterval idle ticks, saturating
// at MaxSearchRadius. Callers must hold w.mu.
func (w *World) growSearchRadius(d *Driver) {
	if d.Status != DriverAvailable {
		return
	}
	d.IdleTicks++
	if w.cfg.RadiusGrowthInterval <= 0 {
		return
	}
	if d.IdleTicks%w.cfg.RadiusGrowthInterval == 0 && d.SearchRadius < w.cfg.MaxSearchRadius {
		d.SearchRadius++
		w.log.Printf("driver %s search radius grew to %d after %d idle ticks",
			d.ID, d.SearchRadius, d.IdleTicks)
	}
}

// processDriverMovement advances one driver one tick according to its
// status. Offline drivers are not processed. Callers must hold w.mu.
func (w *World) processDriverMovement(d *Driver) {
	switch d.Status {
	case DriverAvailable:
		w.moveDriverRandomly(d)
		w.growSearchRadius(d)

	case DriverAssigned:
		if d.CurrentRideID == nil {
			return
		}
		ride, ok := w.rides[*d.CurrentRideID]
		if !ok {
			return
		}
		w.moveDriverToward(d, ride.Pickup)
		if d.Pos == ride.Pickup {
			_ = d.transition(DriverOnTrip)
			_ = ride.StartTrip()
			if rider, ok := w.riders[ride.RiderID]; ok {
				rider.Pos = d.Pos
				_ = rider.transition(RiderPickedUp)
			}
			w.log.Printf("driver %s picked up rider for ride %s", d.ID, ride.ID)
		}

	case DriverOnTrip:
		if d.CurrentRideID == nil {
			return
		}
		ride, ok := w.rides[*d.CurrentRideID]
		if !ok {
			return
		}
		w.moveDriverToward(d, ride.Dropoff)
		// Keep the rider snapped to the vehicle while en route.
		if rider, ok := w.riders[ride.RiderID]; ok {
			rider.Pos = d.Pos
		}
		if d.Pos == ride.Dropoff {
			w.completeRide(d, ride)
		}
	}
}

// completeRide is the only path that increments a driver's completed-ride
// counter; the fairness ranking consumes that counter. Callers must hold w.mu.
func (w *World) completeRide(d *Driver, ride *RideRequest) {
	_ = ride.Complete()

	_ = d.transition(DriverAvailable)
	d.CurrentRideID = nil
	d.CompletedRides++
	d.IdleTicks = 0

	if rider, ok := w.riders[ride.RiderID]; ok {
		_ = rider.transition(RiderCompleted)
	}
	w.log.Printf("ride %s completed by driver %s (%d total)", ride.ID, d.ID, d.CompletedRides)
}

// ProcessAllDriverMovements advances every driver one tick. Drivers do not
// interact during movement, so the result is order-independent; iteration is
// still sorted by id to keep random draws reproducible under a seeded source.
func (w *World) ProcessAllDriverMovements() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.processAllDriverMovements()
}

func (w *World) processAllDriverMovements() {
	ids := make([]types.ID, 0, len(w.drivers))
	for id := range w.drivers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		w.processDriverMovement(w.drivers[id])
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

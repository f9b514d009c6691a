package sim

import (
	"testing"

	"dispatchsim/internal/geo"
	"dispatchsim/internal/types"
)

// TestMoveDriverRandomly_StaysOnGrid: repeated random walk steps from a
// corner never leave the grid and never jump more than one unit.
func TestMoveDriverRandomly_StaysOnGrid(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	mustAddDriver(t, w, "d1", 0, 0)
	d := w.drivers["d1"]

	for i := 0; i < 200; i++ {
		before := d.Pos
		w.moveDriverRandomly(d)
		if !geo.ValidateCoordinates(d.Pos, w.cfg.GridSize) {
			t.Fatalf("step %d left the grid: %+v", i, d.Pos)
		}
		if geo.Distance(before, d.Pos) > 1 {
			t.Fatalf("step %d moved more than one unit: %+v -> %+v", i, before, d.Pos)
		}
	}
}

// TestMoveDriverRandomly_OnlyAvailable: busy drivers do not roam.
func TestMoveDriverRandomly_OnlyAvailable(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	mustAddDriver(t, w, "d1", 10, 10)
	d := w.drivers["d1"]
	d.Status = DriverOnTrip

	w.moveDriverRandomly(d)
	if d.Pos != (types.Point{X: 10, Y: 10}) {
		t.Errorf("on-trip driver moved to %+v", d.Pos)
	}
}

// TestMoveDriverToward_AxisPriority: the axis with the larger remaining
// offset moves first.
func TestMoveDriverToward_AxisPriority(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	mustAddDriver(t, w, "d1", 10, 10)
	d := w.drivers["d1"]

	w.moveDriverToward(d, types.Point{X: 15, Y: 12})
	if d.Pos != (types.Point{X: 11, Y: 10}) {
		t.Errorf("pos = %+v, want x-axis step to (11,10)", d.Pos)
	}

	d.Pos = types.Point{X: 10, Y: 10}
	w.moveDriverToward(d, types.Point{X: 12, Y: 4})
	if d.Pos != (types.Point{X: 10, Y: 9}) {
		t.Errorf("pos = %+v, want y-axis step to (10,9)", d.Pos)
	}
}

// TestMoveDriverToward_Converges: every step closes the distance by one, so
// the driver reaches the target in exactly distance steps.
func TestMoveDriverToward_Converges(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	mustAddDriver(t, w, "d1", 3, 7)
	d := w.drivers["d1"]
	target := types.Point{X: 20, Y: 20}

	steps := geo.Distance(d.Pos, target)
	for i := 0; i < steps; i++ {
		before := geo.Distance(d.Pos, target)
		w.moveDriverToward(d, target)
		if geo.Distance(d.Pos, target) != before-1 {
			t.Fatalf("step %d did not close distance by one", i)
		}
	}
	if d.Pos != target {
		t.Errorf("pos = %+v after %d steps, want %+v", d.Pos, steps, target)
	}
	w.moveDriverToward(d, target) // at target, a further call is a no-op
	if d.Pos != target {
		t.Errorf("driver moved off the target to %+v", d.Pos)
	}
}

// TestGrowSearchRadius: idle drivers grow one unit per interval, saturating
// at the configured maximum.
func TestGrowSearchRadius(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialSearchRadius = 15
	cfg.MaxSearchRadius = 17
	cfg.RadiusGrowthInterval = 2
	w := newTestWorld(t, cfg)
	mustAddDriver(t, w, "d1", 10, 10)
	d := w.drivers["d1"]

	wantByTick := []int{15, 16, 16, 17, 17, 17, 17} // capped at 17 after tick 4
	for i, want := range wantByTick {
		w.growSearchRadius(d)
		if d.SearchRadius != want {
			t.Fatalf("after %d idle ticks radius = %d, want %d", i+1, d.SearchRadius, want)
		}
	}
	if d.IdleTicks != len(wantByTick) {
		t.Errorf("idle ticks = %d, want %d", d.IdleTicks, len(wantByTick))
	}
}

// TestGrowSearchRadius_SkipsBusy: non-available drivers accrue no idle time.
func TestGrowSearchRadius_SkipsBusy(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	mustAddDriver(t, w, "d1", 10, 10)
	d := w.drivers["d1"]
	d.Status = DriverAssigned

	w.growSearchRadius(d)
	if d.IdleTicks != 0 || d.SearchRadius != w.cfg.InitialSearchRadius {
		t.Errorf("busy driver accrued idle state: %+v", d)
	}
}

// TestProcessDriverMovement_Pickup: an assigned driver arriving at the pickup
// point flips driver, ride, and rider into the on-trip phase.
func TestProcessDriverMovement_Pickup(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	mustAddDriver(t, w, "d1", 49, 50)
	ride := mustAddRide(t, w, "r1", types.Point{X: 50, Y: 50}, types.Point{X: 70, Y: 70})
	if ok, _ := w.DispatchRide(ride.ID); !ok {
		t.Fatal("dispatch failed")
	}

	w.processDriverMovement(w.drivers["d1"])

	d := w.drivers["d1"]
	if d.Pos != (types.Point{X: 50, Y: 50}) {
		t.Fatalf("driver pos = %+v, want pickup", d.Pos)
	}
	if d.Status != DriverOnTrip {
		t.Errorf("driver status = %s, want on_trip", d.Status)
	}
	if got := w.rides[ride.ID].Status; got != RideOnTrip {
		t.Errorf("ride status = %s, want on_trip", got)
	}
	rider := w.riders["r1"]
	if rider.Status != RiderPickedUp || rider.Pos != d.Pos {
		t.Errorf("rider not picked up: %+v", rider)
	}
}

// TestProcessDriverMovement_Dropoff: completing a trip increments the
// driver's completed counter exactly once and finalizes every party.
func TestProcessDriverMovement_Dropoff(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	mustAddDriver(t, w, "d1", 50, 50)
	ride := mustAddRide(t, w, "r1", types.Point{X: 50, Y: 50}, types.Point{X: 50, Y: 51}) // one step to dropoff
	if ok, _ := w.DispatchRide(ride.ID); !ok {
		t.Fatal("dispatch failed")
	}

	// Driver starts at the pickup point: first tick picks up the rider.
	w.processDriverMovement(w.drivers["d1"])
	if got := w.rides[ride.ID].Status; got != RideOnTrip {
		t.Fatalf("ride status = %s after pickup tick, want on_trip", got)
	}

	// Second tick drives the single unit to the dropoff and completes.
	w.processDriverMovement(w.drivers["d1"])

	d := w.drivers["d1"]
	if d.Status != DriverAvailable || d.CurrentRideID != nil {
		t.Errorf("driver not released: %+v", d)
	}
	if d.CompletedRides != 1 {
		t.Errorf("completed rides = %d, want 1", d.CompletedRides)
	}
	if d.IdleTicks != 0 {
		t.Errorf("idle ticks = %d, want 0", d.IdleTicks)
	}
	if got := w.rides[ride.ID].Status; got != RideCompleted {
		t.Errorf("ride status = %s, want completed", got)
	}
	rider := w.riders["r1"]
	if rider.Status != RiderCompleted || rider.Pos != (types.Point{X: 50, Y: 51}) {
		t.Errorf("rider not completed at dropoff: %+v", rider)
	}
}

// TestProcessDriverMovement_RiderSnapsToVehicle: the rider's position tracks
// the driver on every on-trip tick.
func TestProcessDriverMovement_RiderSnapsToVehicle(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	mustAddDriver(t, w, "d1", 50, 50)
	ride := mustAddRide(t, w, "r1", types.Point{X: 50, Y: 50}, types.Point{X: 60, Y: 50})
	if ok, _ := w.DispatchRide(ride.ID); !ok {
		t.Fatal("dispatch failed")
	}
	w.processDriverMovement(w.drivers["d1"]) // pickup

	for i := 0; i < 5; i++ {
		w.processDriverMovement(w.drivers["d1"])
		if w.riders["r1"].Pos != w.drivers["d1"].Pos {
			t.Fatalf("tick %d: rider at %+v, driver at %+v", i, w.riders["r1"].Pos, w.drivers["d1"].Pos)
		}
	}
}

// TestProcessDriverMovement_OfflineUntouched: offline drivers neither move
// nor accrue idle time.
func TestProcessDriverMovement_OfflineUntouched(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	mustAddDriver(t, w, "d1", 30, 30)
	d := w.drivers["d1"]
	d.Status = DriverOffline

	w.processDriverMovement(d)
	if d.Pos != (types.Point{X: 30, Y: 30}) || d.IdleTicks != 0 {
		t.Errorf("offline driver changed: %+v", d)
	}
}

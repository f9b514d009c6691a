// README: In-memory world state; sole owner of mutable simulation data.
package sim

import (
	"errors"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dispatchsim/internal/geo"
	"dispatchsim/internal/types"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrDuplicateID      = errors.New("entity id already exists")
	ErrBadCoordinate    = errors.New("coordinate out of grid bounds")
	ErrBadRadius        = errors.New("search radius out of range")
	ErrUnknownRider     = errors.New("rider does not exist")
	ErrUnknownConfigKey = errors.New("unknown configuration parameter")
	ErrBadConfigValue   = errors.New("configuration value has wrong type")
	ErrDriverBusy       = errors.New("driver is not available")
)

// Search radius bounds enforced at driver creation. Radius growth is capped
// separately by Config.MaxSearchRadius.
const (
	minSearchRadius = 1
	maxSearchRadius = 20
)

// Config holds the tunable simulation parameters. All fields may be updated
// at runtime; there is no cross-field validation.
type Config struct {
	InitialSearchRadius    int     `json:"initial_search_radius" yaml:"initial_search_radius"`
	MaxSearchRadius        int     `json:"max_search_radius" yaml:"max_search_radius"`
	RadiusGrowthInterval   int     `json:"radius_growth_interval" yaml:"radius_growth_interval"`
	GridSize               int     `json:"grid_size" yaml:"grid_size"`
	RejectionCooldownTicks int     `json:"rejection_cooldown_ticks" yaml:"rejection_cooldown_ticks"`
	FairnessPenalty        float64 `json:"fairness_penalty" yaml:"fairness_penalty"`
	// GlobalSearchAfterTicks waives the radius check for rides older than
	// this many ticks, so long-waiting requests become visible to every
	// available driver. 0 disables the waiver.
	GlobalSearchAfterTicks int `json:"global_search_after_ticks" yaml:"global_search_after_ticks"`
}

func DefaultConfig() Config {
	return Config{
		InitialSearchRadius:    15,
		MaxSearchRadius:        100,
		RadiusGrowthInterval:   2,
		GridSize:               100,
		RejectionCooldownTicks: 5,
		FairnessPenalty:        1.0,
		GlobalSearchAfterTicks: 10,
	}
}

// World is the single-writer simulation state: every entity registry, the
// tick counter, and the live configuration. All externally triggered
// mutations and consistent reads go through one mutex so that tick advances
// and entity creation never interleave.
type World struct {
	mu sync.Mutex

	drivers map[types.ID]*Driver
	riders  map[types.ID]*Rider
	rides   map[types.ID]*RideRequest

	currentTick int
	cfg         Config

	rng *rand.Rand
	log *log.Logger
}

// NewWorld constructs an empty world. A nil rng falls back to a time-seeded
// source; pass a seeded one for reproducible movement. A nil logger falls
// back to the process default.
func NewWorld(cfg Config, rng *rand.Rand, logger *log.Logger) *World {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = log.Default()
	}
	return &World{
		drivers: make(map[types.ID]*Driver),
		riders:  make(map[types.ID]*Rider),
		rides:   make(map[types.ID]*RideRequest),
		cfg:     cfg,
		rng:     rng,
		log:     logger,
	}
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}

// AddDriver validates and registers a new driver. An empty id requests
// auto-generation. The driver starts available at the configured initial
// search radius.
func (w *World) AddDriver(id types.ID, pos types.Point) (Driver, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !geo.ValidateCoordinates(pos, w.cfg.GridSize) {
		return Driver{}, ErrBadCoordinate
	}
	radius := w.cfg.InitialSearchRadius
	if radius < minSearchRadius || radius > maxSearchRadius {
		return Driver{}, ErrBadRadius
	}
	if id == "" {
		id = newID()
	}
	if _, exists := w.drivers[id]; exists {
		return Driver{}, ErrDuplicateID
	}

	d := &Driver{
		ID:           id,
		Pos:          pos,
		Status:       DriverAvailable,
		SearchRadius: radius,
	}
	w.drivers[id] = d
	w.log.Printf("driver %s added at (%d,%d)", id, pos.X, pos.Y)
	return *d, nil
}

// AddRider validates and registers a new rider. An empty id requests
// auto-generation.
func (w *World) AddRider(id types.ID, pos types.Point) (Rider, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !geo.ValidateCoordinates(pos, w.cfg.GridSize) {
		return Rider{}, ErrBadCoordinate
	}
	if id == "" {
		id = newID()
	}
	if _, exists := w.riders[id]; exists {
		return Rider{}, ErrDuplicateID
	}

	r := &Rider{ID: id, Pos: pos, Status: RiderWaiting}
	w.riders[id] = r
	w.log.Printf("rider %s added at (%d,%d)", id, pos.X, pos.Y)
	return *r, nil
}

// CreateRideRequest registers a new ride for an existing rider, stamped with
// the current tick. Requests are never removed once created.
func (w *World) CreateRideRequest(riderID types.ID, pickup, dropoff types.Point) (RideRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !geo.ValidateCoordinates(pickup, w.cfg.GridSize) || !geo.ValidateCoordinates(dropoff, w.cfg.GridSize) {
		return RideRequest{}, ErrBadCoordinate
	}
	if _, exists := w.riders[riderID]; !exists {
		return RideRequest{}, ErrUnknownRider
	}

	r := &RideRequest{
		ID:          newID(),
		RiderID:     riderID,
		Pickup:      pickup,
		Dropoff:     dropoff,
		Status:      RideWaiting,
		CreatedTick: w.currentTick,
	}
	w.rides[r.ID] = r
	w.log.Printf("ride %s created for rider %s: (%d,%d) -> (%d,%d)",
		r.ID, riderID, pickup.X, pickup.Y, dropoff.X, dropoff.Y)
	return *r, nil
}

// Driver returns a copy of the driver with the given id.
func (w *World) Driver(id types.ID) (Driver, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.drivers[id]
	if !ok {
		return Driver{}, ErrNotFound
	}
	return *d, nil
}

// Rider returns a copy of the rider with the given id.
func (w *World) Rider(id types.ID) (Rider, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.riders[id]
	if !ok {
		return Rider{}, ErrNotFound
	}
	return *r, nil
}

// Ride returns a copy of the ride request with the given id.
func (w *World) Ride(id types.ID) (RideRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.rides[id]
	if !ok {
		return RideRequest{}, ErrNotFound
	}
	return *r, nil
}

// RemoveDriver deletes a driver from the registry. Only available drivers
// may be removed.
func (w *World) RemoveDriver(id types.ID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := w.drivers[id]
	if !ok {
		return ErrNotFound
	}
	if d.Status != DriverAvailable {
		return ErrDriverBusy
	}
	delete(w.drivers, id)
	w.log.Printf("driver %s removed", id)
	return nil
}

// Reset discards all entities and restores the tick counter and the
// configuration to defaults.
func (w *World) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.drivers = make(map[types.ID]*Driver)
	w.riders = make(map[types.ID]*Rider)
	w.rides = make(map[types.ID]*RideRequest)
	w.currentTick = 0
	w.cfg = DefaultConfig()
	w.log.Printf("world reset")
}

// CurrentTick returns the tick counter.
func (w *World) CurrentTick() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentTick
}

// Config returns a copy of the live configuration.
func (w *World) Config() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// UpdateConfig applies a partial set of named configuration fields. Unknown
// names and mistyped values are rejected; recognized fields are applied with
// no cross-field validation. The update is all-or-nothing: a rejected key
// leaves the live configuration untouched. Returns the resulting
// configuration.
func (w *World) UpdateConfig(updates map[string]any) (Config, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Stage every field on a copy so a bad key cannot leak a partial update.
	staged := w.cfg
	for key, value := range updates {
		switch key {
		case "initial_search_radius":
			n, ok := asInt(value)
			if !ok {
				return w.cfg, ErrBadConfigValue
			}
			staged.InitialSearchRadius = n
		case "max_search_radius":
			n, ok := asInt(value)
			if !ok {
				return w.cfg, ErrBadConfigValue
			}
			staged.MaxSearchRadius = n
		case "radius_growth_interval":
			n, ok := asInt(value)
			if !ok {
				return w.cfg, ErrBadConfigValue
			}
			staged.RadiusGrowthInterval = n
		case "grid_size":
			n, ok := asInt(value)
			if !ok {
				return w.cfg, ErrBadConfigValue
			}
			staged.GridSize = n
		case "rejection_cooldown_ticks":
			n, ok := asInt(value)
			if !ok {
				return w.cfg, ErrBadConfigValue
			}
			staged.RejectionCooldownTicks = n
		case "fairness_penalty":
			f, ok := asFloat(value)
			if !ok {
				return w.cfg, ErrBadConfigValue
			}
			staged.FairnessPenalty = f
		case "global_search_after_ticks":
			n, ok := asInt(value)
			if !ok {
				return w.cfg, ErrBadConfigValue
			}
			staged.GlobalSearchAfterTicks = n
		default:
			return w.cfg, ErrUnknownConfigKey
		}
	}
	w.cfg = staged
	w.log.Printf("config updated: %+v", w.cfg)
	return w.cfg, nil
}

// JSON numbers decode as float64; accept both forms.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// availableDrivers returns the drivers currently in the available pool,
// sorted by id for deterministic iteration. Callers must hold w.mu.
func (w *World) availableDrivers() []*Driver {
	var out []*Driver
	for _, d := range w.drivers {
		if d.Status == DriverAvailable {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// waitingRides returns the dispatchable rides: waiting status and not in
// cooldown. Callers must hold w.mu.
func (w *World) waitingRides() []*RideRequest {
	var out []*RideRequest
	for _, r := range w.rides {
		if r.Status == RideWaiting && !r.IsInCooldown(w.currentTick) {
			out = append(out, r)
		}
	}
	return out
}

// NearbyDrivers returns copies of all drivers, regardless of status, within
// radius of the center point.
func (w *World) NearbyDrivers(center types.Point, radius int) []Driver {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []Driver
	for _, d := range w.drivers {
		if geo.WithinRadius(center, d.Pos, radius) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Summary is the per-tick state digest exposed by the request layer.
type Summary struct {
	CurrentTick       int `json:"current_tick"`
	TotalDrivers      int `json:"total_drivers"`
	AvailableDrivers  int `json:"available_drivers"`
	AssignedDrivers   int `json:"assigned_drivers"`
	OnTripDrivers     int `json:"on_trip_drivers"`
	TotalRiders       int `json:"total_riders"`
	TotalRideRequests int `json:"total_ride_requests"`
	WaitingRides      int `json:"waiting_rides"`
	CompletedRides    int `json:"completed_rides"`
	FailedRides       int `json:"failed_rides"`
}

// Summary returns counts of entities by status.
func (w *World) Summary() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.summary()
}

func (w *World) summary() Summary {
	s := Summary{
		CurrentTick:       w.currentTick,
		TotalDrivers:      len(w.drivers),
		TotalRiders:       len(w.riders),
		TotalRideRequests: len(w.rides),
	}
	for _, d := range w.drivers {
		switch d.Status {
		case DriverAvailable:
			s.AvailableDrivers++
		case DriverAssigned:
			s.AssignedDrivers++
		case DriverOnTrip:
			s.OnTripDrivers++
		}
	}
	for _, r := range w.rides {
		switch {
		case r.Status == RideWaiting && !r.IsInCooldown(w.currentTick):
			s.WaitingRides++
		case r.Status == RideCompleted:
			s.CompletedRides++
		case r.Status == RideFailed:
			s.FailedRides++
		}
	}
	return s
}

// Snapshot is a read-only copy of the complete world, serializable for
// external consumption.
type Snapshot struct {
	CurrentTick  int                        `json:"current_tick"`
	Config       Config                     `json:"config"`
	Drivers      map[types.ID]Driver        `json:"drivers"`
	Riders       map[types.ID]Rider         `json:"riders"`
	RideRequests map[types.ID]RideRequest   `json:"ride_requests"`
	Summary      Summary                    `json:"summary"`
}

// Snapshot returns a consistent copy of every entity, the configuration, and
// the tick counter, taken under the world lock.
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		CurrentTick:  w.currentTick,
		Config:       w.cfg,
		Drivers:      make(map[types.ID]Driver, len(w.drivers)),
		Riders:       make(map[types.ID]Rider, len(w.riders)),
		RideRequests: make(map[types.ID]RideRequest, len(w.rides)),
		Summary:      w.summary(),
	}
	for id, d := range w.drivers {
		driver := *d
		if d.CurrentRideID != nil {
			rid := *d.CurrentRideID
			driver.CurrentRideID = &rid
		}
		snap.Drivers[id] = driver
	}
	for id, r := range w.riders {
		snap.Riders[id] = *r
	}
	for id, r := range w.rides {
		ride := *r
		ride.RejectedDriverIDs = append([]types.ID(nil), r.RejectedDriverIDs...)
		if r.AssignedDriverID != nil {
			did := *r.AssignedDriverID
			ride.AssignedDriverID = &did
		}
		if r.CooldownUntilTick != nil {
			until := *r.CooldownUntilTick
			ride.CooldownUntilTick = &until
		}
		snap.RideRequests[id] = ride
	}
	return snap
}

package stash

// DecayParams come from tuning: how many server ticks make a minute and how
// much fuel durability burns away per minute.
type DecayParams struct {
	TicksPerMinute         int
	FuelDepletionPerMinute float64
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FuelRemaining computes the item's durability at tick. Monotonic in tick and
// bottoms out at exactly 0. The stored Durability stays the value at
// BurnStartTick; this derives the current reading from it.
func FuelRemaining(it *Item, tick uint64, p DecayParams) float64 {
	if !it.Burning() || p.TicksPerMinute <= 0 {
		return 0
	}
	if tick < it.BurnStartTick {
		return float64(*it.Durability)
	}
	minutes := float64(tick-it.BurnStartTick) / float64(p.TicksPerMinute)
	rem := float64(*it.Durability) - minutes*p.FuelDepletionPerMinute
	if rem < 0 {
		return 0
	}
	return rem
}

// Progress computes cook/process completion in [0, 1] at tick.
func Progress(it *Item, tick uint64) float64 {
	if !it.Cooking() {
		return 0
	}
	if tick < it.CookStartTick {
		return 0
	}
	return clamp01(float64(tick-it.CookStartTick) / float64(it.CookDurationTicks))
}

// SweepResult reports what one decay sweep found.
type SweepResult struct {
	// Completed holds IDs whose cook/process timer crossed 100% this sweep.
	// Their timer fields are cleared, so a later sweep never re-reports them.
	Completed []string
	// DepletedFuel holds IDs of burning items at exactly 0 durability.
	DepletedFuel []string
	// TimersCancelled is set when every fuel item hit 0 and all remaining
	// cook timers were cancelled in response. The container's authoritative
	// record must be persisted when this is set.
	TimersCancelled bool
}

func (r SweepResult) NeedSave() bool {
	return len(r.Completed) > 0 || r.TimersCancelled
}

// Sweep recomputes decay state for every item in the container at tick.
// Completion is edge-triggered: crossing 100% clears the timer fields, so the
// signal fires exactly once no matter how often the sweep reruns. The fuel-out
// rule is a cross-item invariant enforced here in one pass, never per item.
func Sweep(c *Container, tick uint64, p DecayParams) SweepResult {
	var res SweepResult

	for _, it := range c.Items {
		if it.Cooking() && Progress(it, tick) >= 1 {
			res.Completed = append(res.Completed, it.ID)
			it.CookStartTick = 0
			it.CookDurationTicks = 0
		}
	}

	burning := 0
	for _, it := range c.Items {
		if !it.Burning() {
			continue
		}
		burning++
		if FuelRemaining(it, tick, p) == 0 {
			res.DepletedFuel = append(res.DepletedFuel, it.ID)
		}
	}
	if burning > 0 && len(res.DepletedFuel) == burning {
		for _, it := range c.Items {
			if it.Cooking() {
				it.CookStartTick = 0
				it.CookDurationTicks = 0
				res.TimersCancelled = true
			}
		}
	}
	return res
}

// ReacquireSweep runs once when a lock is (re)granted, accounting for time
// elapsed while the container was not observed: overdue timers complete
// immediately and depleted fuel is removed before first render.
func ReacquireSweep(c *Container, tick uint64, p DecayParams) SweepResult {
	res := Sweep(c, tick, p)
	for _, id := range res.DepletedFuel {
		c.RemoveItem(id)
	}
	return res
}

package stash

import "stashcraft.gg/internal/protocol"

// Rotation is 0 or 90. 90 swaps width and height for bounds and collision.
const (
	Rot0  = 0
	Rot90 = 90
)

// Item is one placed unit inside a container grid.
type Item struct {
	ID       string
	Type     string
	X, Y     int
	Rotation int
	Width    int
	Height   int

	Quality    int
	Durability *int
	Quantity   *int

	// Fuel burn: durability depletes from BurnStartTick while burning.
	BurnStartTick uint64
	// Cook/process timer.
	CookStartTick     uint64
	CookDurationTicks uint64
}

// Footprint reports effective width/height after rotation.
func (it *Item) Footprint() (w, h int) {
	if it.Rotation == Rot90 {
		return it.Height, it.Width
	}
	return it.Width, it.Height
}

// Burning reports whether the item is an active fuel source.
func (it *Item) Burning() bool {
	return it.BurnStartTick != 0 && it.Durability != nil
}

// Cooking reports whether the item has an active cook/process timer.
func (it *Item) Cooking() bool {
	return it.CookStartTick != 0 && it.CookDurationTicks > 0
}

// MidCycle reports whether any decay timer is active. Mid-cycle items are
// excluded from bulk transfers so work-in-progress state never moves.
func (it *Item) MidCycle() bool {
	return it.Burning() || it.Cooking()
}

// ToWire converts the item to its wire form.
func (it *Item) ToWire() protocol.WireItem {
	return protocol.WireItem{
		ID:                it.ID,
		ItemType:          it.Type,
		X:                 it.X,
		Y:                 it.Y,
		Rotation:          it.Rotation,
		Width:             it.Width,
		Height:            it.Height,
		Quality:           it.Quality,
		Durability:        it.Durability,
		Quantity:          it.Quantity,
		BurnStartTick:     it.BurnStartTick,
		CookStartTick:     it.CookStartTick,
		CookDurationTicks: it.CookDurationTicks,
	}
}

// FromWire converts a wire item to the local model.
func FromWire(w protocol.WireItem) *Item {
	return &Item{
		ID:                w.ID,
		Type:              w.ItemType,
		X:                 w.X,
		Y:                 w.Y,
		Rotation:          w.Rotation,
		Width:             w.Width,
		Height:            w.Height,
		Quality:           w.Quality,
		Durability:        w.Durability,
		Quantity:          w.Quantity,
		BurnStartTick:     w.BurnStartTick,
		CookStartTick:     w.CookStartTick,
		CookDurationTicks: w.CookDurationTicks,
	}
}

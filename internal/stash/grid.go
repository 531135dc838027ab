package stash

// Cell is one grid coordinate.
type Cell struct{ X, Y int }

// cells enumerates the footprint of a w×h rectangle anchored at (x, y).
func cells(x, y, w, h int) []Cell {
	out := make([]Cell, 0, w*h)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			out = append(out, Cell{X: x + dx, Y: y + dy})
		}
	}
	return out
}

// Cells is the set of grid cells the item occupies at its committed position.
func (it *Item) Cells() []Cell {
	w, h := it.Footprint()
	return cells(it.X, it.Y, w, h)
}

// ValidPlacement reports whether it can sit at (x, y) with the given rotation
// in a cols×rows grid without leaving bounds or overlapping another item.
// The item itself is excluded from the collision check by ID, so moving an
// item within its own footprint is legal. Pure and order-independent: the
// server re-derives the same verdict from the same rules.
func ValidPlacement(it *Item, x, y, rotation int, existing []*Item, cols, rows int) bool {
	w, h := it.Width, it.Height
	if rotation == Rot90 {
		w, h = h, w
	}
	if x < 0 || y < 0 || x+w > cols || y+h > rows {
		return false
	}

	occupied := make(map[Cell]struct{})
	for _, other := range existing {
		if other.ID == it.ID {
			continue
		}
		for _, c := range other.Cells() {
			occupied[c] = struct{}{}
		}
	}
	for _, c := range cells(x, y, w, h) {
		if _, hit := occupied[c]; hit {
			return false
		}
	}
	return true
}

// FindPlacement searches row-major for the first valid position, unrotated
// first, then rotated if the item is non-square. Returns ok=false when the
// item fits nowhere.
func FindPlacement(it *Item, existing []*Item, cols, rows int) (x, y, rotation int, ok bool) {
	rotations := []int{Rot0}
	if it.Width != it.Height {
		rotations = append(rotations, Rot90)
	}
	for _, rot := range rotations {
		for ty := 0; ty < rows; ty++ {
			for tx := 0; tx < cols; tx++ {
				if ValidPlacement(it, tx, ty, rot, existing, cols, rows) {
					return tx, ty, rot, true
				}
			}
		}
	}
	return 0, 0, Rot0, false
}

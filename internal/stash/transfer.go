package stash

// TransferReport summarizes a bulk transfer. Attempted counts the eligible
// items after the accept-policy filter; Moved counts those actually placed.
// The UI decides how to surface a partial result.
type TransferReport struct {
	Attempted int
	Moved     int
}

func (r TransferReport) Partial() bool { return r.Moved < r.Attempted }

// TransferAll moves every eligible item of itemType from src to dst, placing
// each at the first free position. Items with active burn/cook timers never
// move; items the target refuses by type are excluded before any placement
// search runs.
func TransferAll(src, dst *Container, itemType string) TransferReport {
	var rep TransferReport
	if src == nil || dst == nil || src == dst {
		return rep
	}
	if !dst.Accept.Accepts(itemType) {
		return rep
	}

	// Collect IDs first; RemoveItem mutates src.Items while we iterate.
	var eligible []string
	for _, it := range src.Items {
		if it.Type != itemType || it.MidCycle() {
			continue
		}
		eligible = append(eligible, it.ID)
	}
	rep.Attempted = len(eligible)

	for _, id := range eligible {
		it := src.ItemByID(id)
		if it == nil {
			continue
		}
		x, y, rot, ok := FindPlacement(it, dst.Items, dst.Cols, dst.Rows)
		if !ok {
			continue
		}
		src.RemoveItem(id)
		it.X, it.Y, it.Rotation = x, y, rot
		dst.Items = append(dst.Items, it)
		rep.Moved++
	}
	return rep
}

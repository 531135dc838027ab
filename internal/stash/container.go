package stash

import (
	"sort"
	"strings"

	"stashcraft.gg/internal/protocol"
)

// PolicyKind is the closed set of container accept rules.
type PolicyKind int

const (
	// AcceptAll takes any item type.
	AcceptAll PolicyKind = iota
	// AcceptList takes only the listed item types.
	AcceptList
	// AcceptSuffix takes any item type ending in one of the listed suffixes
	// (e.g. "_fuel" for fuel hoppers).
	AcceptSuffix
)

// AcceptPolicy is container configuration data evaluated by one predicate.
type AcceptPolicy struct {
	Kind  PolicyKind
	Types []string
}

func (p AcceptPolicy) Accepts(itemType string) bool {
	switch p.Kind {
	case AcceptAll:
		return true
	case AcceptList:
		for _, t := range p.Types {
			if t == itemType {
				return true
			}
		}
		return false
	case AcceptSuffix:
		for _, suf := range p.Types {
			if suf != "" && strings.HasSuffix(itemType, suf) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Container is the client-side state of one locked shared storage grid.
// It exists only between a lock grant and the matching release/denial.
type Container struct {
	ID            string
	StructureType string
	Cols, Rows    int
	Accept        AcceptPolicy

	// Cooker distinguishes cooking structures (ovens, campfires) from
	// generic processors when completion is reported to the server.
	Cooker bool

	// Hostile marks a container owned by a mutually-hostile faction.
	// Buying from it is free looting and selling into it is worthless.
	Hostile bool

	// Market stock, price-relevant only. Read optimistically, reconciled
	// like any other mutation.
	MaxStock int
	Stock    int

	Items []*Item
}

func (c *Container) ItemByID(id string) *Item {
	for _, it := range c.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (c *Container) RemoveItem(id string) *Item {
	for i, it := range c.Items {
		if it.ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return it
		}
	}
	return nil
}

// WireContents is the container's items in wire form, sorted by ID so saves
// are deterministic.
func (c *Container) WireContents() []protocol.WireItem {
	out := make([]protocol.WireItem, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.ToWire())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AdoptWire replaces the container's items with the given wire contents.
func (c *Container) AdoptWire(contents []protocol.WireItem) {
	c.Items = make([]*Item, 0, len(contents))
	for _, w := range contents {
		c.Items = append(c.Items, FromWire(w))
	}
}

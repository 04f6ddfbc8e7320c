//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// Placeholder is shown for any display field the upstream payload did not provide.
const Placeholder = "-"

// Change is a patch for the mutable fields of a list item.
// Nil fields are left untouched.
type Change struct {
	Status *string
	IsRead *bool
}

// StatusChange builds a Change that sets the status field.
func StatusChange(status string) Change {
	return Change{Status: &status}
}

// ReadChange builds a Change that sets the read flag.
func ReadChange(read bool) Change {
	return Change{IsRead: &read}
}

// Item is implemented by every list item type the dashboard renders.
type Item[T any] interface {
	ItemID() string
	ItemStatus() string
	Apply(Change) T
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf[T Item[T]](items []T, id string) int {
	for i, it := range items {
		if it.ItemID() == id {
			return i
		}
	}
	return -1
}

// ApplyChange patches the item with the given id in place. It reports whether the item was found.
func ApplyChange[T Item[T]](items []T, id string, ch Change) bool {
	i := IndexOf(items, id)
	if i < 0 {
		return false
	}
	items[i] = items[i].Apply(ch)
	return true
}

// RemoveIDs returns items without the given ids, preserving order.
func RemoveIDs[T Item[T]](items []T, ids ...string) ([]T, int) {
	if len(ids) == 0 {
		return items, 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := items[:0:0]
	removed := 0
	for _, it := range items {
		if _, ok := drop[it.ItemID()]; ok {
			removed++
			continue
		}
		out = append(out, it)
	}
	return out, removed
}

package kioto

import "reflect"

// Attr resolves item's attribute of type T by looking up its commit id
// in item's AttributeMap and checking that commit out of the owning
// Store's Repo. A missing entry or a type mismatch both return false
// rather than panicking.
func Attr[T any](s *Store, item *Item) (T, bool) {
	var zero T
	commit, ok := item.attrs[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	h, ok := s.repo.Checkout(commit)
	if !ok {
		return zero, false
	}
	v, ok := h.Repr.(T)
	return v, ok
}

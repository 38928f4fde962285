package types

// Identical reports whether two types are the same. Primitives and structs
// compare by identity; callables and arrays compare structurally.
func Identical(a, b Type) bool {
	if a == nil || b == nil {
		return false
	}
	switch x := a.(type) {
	case *Primitive:
		return a == b
	case *Struct:
		return a == b
	case *Callable:
		y, ok := b.(*Callable)
		if !ok || len(x.Args) != len(y.Args) || !Identical(x.Return, y.Return) {
			return false
		}
		for i := range x.Args {
			if !Identical(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Array:
		y, ok := b.(*Array)
		return ok && x.Len == y.Len && Identical(x.Elem, y.Elem)
	}
	return false
}

// CanWiden reports whether a value of type from converts to type to without
// loss: both are numeric primitives of the same category and to is at least
// as wide.
func CanWiden(from, to Type) bool {
	f, ok := from.(*Primitive)
	if !ok {
		return false
	}
	t, ok := to.(*Primitive)
	if !ok {
		return false
	}
	if !f.IsNumeric() || !t.IsNumeric() {
		return false
	}
	return f.Category() == t.Category() && f.size <= t.size
}

// Unify returns the common type of two operands. When the types differ the
// wider one is returned and widenLeft or widenRight tells which operand needs
// a cast. ok is false when the operands belong to different categories.
func Unify(l, r Type) (t Type, widenLeft, widenRight, ok bool) {
	if Identical(l, r) {
		return l, false, false, true
	}
	if CanWiden(l, r) {
		return r, true, false, true
	}
	if CanWiden(r, l) {
		return l, false, true, true
	}
	return nil, false, false, false
}

package object

import "github.com/funvibe/loxvm/internal/value"

// Interner canonicalizes strings so that equal content always shares one
// *String handle, which is what lets Value equality use plain identity
// comparison for strings.
type Interner struct {
	table *Table
}

func NewInterner() *Interner {
	return &Interner{table: NewTable()}
}

// Len returns the number of distinct strings currently interned.
func (in *Interner) Len() int { return in.table.Len() }

// Intern returns the canonical *String for s, allocating and registering a
// new one only the first time s's content is seen.
func (in *Interner) Intern(s string) *String {
	hash := hashString(s)
	if existing := in.table.FindInterned(s, hash); existing != nil {
		return existing
	}
	str := NewString(s)
	in.table.Set(s, hash, value.ObjValue(str))
	return str
}

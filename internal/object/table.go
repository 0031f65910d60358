package object

import "github.com/funvibe/loxvm/internal/value"

// Table is an open-addressed hash table, used both to intern strings and
// to back the VM's globals — one table shape, two uses. It probes
// linearly from hash%capacity, uses a tombstone sentinel for deletes, and
// grows at a 0.75 load factor.
type Table struct {
	entries []tableEntry
	count   int // occupied slots: live entries plus tombstones (drives the load factor)
}

type tableEntry struct {
	key     string
	hash    uint32
	present bool // false both for never-used and tombstoned slots
	tomb    bool
	value   value.Value
}

const tableInitialCapacity = 8
const tableMaxLoad = 0.75

func NewTable() *Table {
	return &Table{}
}

// Len returns the number of live entries; tombstones are not counted.
func (t *Table) Len() int {
	n := 0
	for _, e := range t.entries {
		if e.present {
			n++
		}
	}
	return n
}

// Get looks up key, returning its value and whether it was present.
func (t *Table) Get(key string, hash uint32) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.NilValue(), false
	}
	e := t.find(key, hash)
	if !e.present {
		return value.NilValue(), false
	}
	return e.value, true
}

// Set inserts or overwrites key. Returns true if this created a brand-new
// key (as opposed to overwriting an existing one) — the VM's SET_GLOBAL
// uses this to detect "assignment to an undefined global".
func (t *Table) Set(key string, hash uint32, v value.Value) bool {
	if float64(t.count+1) > float64(t.capacity())*tableMaxLoad {
		t.grow()
	}
	e := t.find(key, hash)
	isNew := !e.present
	if isNew && !e.tomb {
		t.count++
	}
	*e = tableEntry{key: key, hash: hash, present: true, value: v}
	return isNew
}

// Delete tombstones key so that later probes can still find entries placed
// after a collision with it. Returns whether key was present.
func (t *Table) Delete(key string, hash uint32) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key, hash)
	if !e.present {
		return false
	}
	*e = tableEntry{tomb: true}
	return true
}

func (t *Table) capacity() int { return len(t.entries) }

func (t *Table) grow() {
	newCap := tableInitialCapacity
	if t.capacity() > 0 {
		newCap = t.capacity() * 2
	}
	old := t.entries
	t.entries = make([]tableEntry, newCap)
	t.count = 0
	for _, e := range old {
		if !e.present {
			continue
		}
		dst := t.find(e.key, e.hash)
		*dst = e
		t.count++
	}
}

// find returns the slot key/hash should occupy: either the live entry with
// that key, the first tombstone seen along the probe sequence (so repeated
// inserts after deletes reuse space), or the first empty slot.
func (t *Table) find(key string, hash uint32) *tableEntry {
	cap := t.capacity()
	index := hash % uint32(cap)
	var tombstone *tableEntry
	for {
		e := &t.entries[index]
		switch {
		case !e.present && !e.tomb:
			if tombstone != nil {
				return tombstone
			}
			return e
		case e.tomb:
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		index = (index + 1) % uint32(cap)
	}
}

// FindInterned returns the canonical *String for chars if one is already
// interned. Used by the VM/compiler before allocating a new String object,
// so that equal content always shares one handle.
func (t *Table) FindInterned(chars string, hash uint32) *String {
	if len(t.entries) == 0 {
		return nil
	}
	cap := t.capacity()
	index := hash % uint32(cap)
	for {
		e := &t.entries[index]
		if !e.present && !e.tomb {
			return nil
		}
		if e.present && e.hash == hash && e.key == chars {
			if s, ok := e.value.AsObj().(*String); ok {
				return s
			}
		}
		index = (index + 1) % uint32(cap)
	}
}

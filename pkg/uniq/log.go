package uniq

import (
	"reflect"
	"sync"
)

// entry is one emitted event: the source that emitted it and the payload.
type entry struct {
	src     SourceID
	payload any
}

// bucket is the append-only store for one concrete event type. base is the
// absolute index of entries[0]; everything below base has been reclaimed.
type bucket struct {
	base    uint64
	entries []entry
}

// end returns the absolute index one past the newest entry.
func (b *bucket) end() uint64 { return b.base + uint64(len(b.entries)) }

// eventLog stores emitted events in per-type buckets and tracks one cursor
// per listener. A cursor holds a position for each event type its listener
// handles; types outside that interest set never hold entries on its behalf.
//
// Every method takes the locker itself, and none invokes caller code while
// holding it. Entries are immutable once appended, so slices handed out by
// drain stay valid after the lock is released.
type eventLog struct {
	mu        sync.Locker
	buckets   map[reflect.Type]*bucket
	cursors   map[uint64]map[reflect.Type]uint64
	nextID    uint64
	threshold int
}

func newEventLog(mu sync.Locker, threshold int) *eventLog {
	return &eventLog{
		mu:        mu,
		buckets:   make(map[reflect.Type]*bucket),
		cursors:   make(map[uint64]map[reflect.Type]uint64),
		threshold: threshold,
	}
}

// append stores one event, creating the type's bucket on first use. Returns
// the bucket's type key and the number of entries reclaimed by the
// opportunistic trim that follows the append.
func (lg *eventLog) append(src SourceID, payload any) (reflect.Type, int) {
	typ := reflect.TypeOf(payload)
	lg.mu.Lock()
	defer lg.mu.Unlock()
	b := lg.buckets[typ]
	if b == nil {
		b = &bucket{}
		lg.buckets[typ] = b
	}
	b.entries = append(b.entries, entry{src: src, payload: payload})
	return typ, lg.maybeTrimLocked(typ, b)
}

// register allocates a cursor interested in the given types. Each position
// starts at the type's current end, or at its earliest retained entry when
// replay is set. Types with no bucket yet start at zero, which is both the
// end and the base of the bucket they will eventually get.
func (lg *eventLog) register(types []reflect.Type, replay bool) uint64 {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	id := lg.nextID
	lg.nextID++
	pos := make(map[reflect.Type]uint64, len(types))
	for _, typ := range types {
		pos[typ] = lg.startLocked(typ, replay)
	}
	lg.cursors[id] = pos
	return id
}

func (lg *eventLog) startLocked(typ reflect.Type, replay bool) uint64 {
	b := lg.buckets[typ]
	if b == nil {
		return 0
	}
	if replay {
		return b.base
	}
	return b.end()
}

// addInterest extends a cursor to a new type, positioned at the current end.
// No-op if the cursor already tracks the type or has been unregistered.
func (lg *eventLog) addInterest(id uint64, typ reflect.Type) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	pos := lg.cursors[id]
	if pos == nil {
		return
	}
	if _, ok := pos[typ]; !ok {
		pos[typ] = lg.startLocked(typ, false)
	}
}

// dropInterest removes a type from a cursor's interest set and immediately
// re-evaluates the bucket's low-water mark, since the departing cursor may
// have been the one pinning it. Returns the number of entries reclaimed.
func (lg *eventLog) dropInterest(id uint64, typ reflect.Type) int {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	pos := lg.cursors[id]
	if pos == nil {
		return 0
	}
	if _, ok := pos[typ]; !ok {
		return 0
	}
	delete(pos, typ)
	if b := lg.buckets[typ]; b != nil {
		return lg.trimLocked(typ, b)
	}
	return 0
}

// drain returns the entries between the cursor's position and the bucket end
// and advances the cursor past them in the same critical section, so the same
// entries are never returned to the same cursor twice. The second result is
// the number of entries reclaimed by the trailing opportunistic trim.
func (lg *eventLog) drain(id uint64, typ reflect.Type) ([]entry, int) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	b := lg.buckets[typ]
	if b == nil {
		return nil, 0
	}
	pos, ok := lg.cursors[id][typ]
	if !ok {
		return nil, 0
	}
	view := b.entries[pos-b.base:]
	lg.cursors[id][typ] = b.end()
	return view, lg.maybeTrimLocked(typ, b)
}

// unregister removes a cursor and fully trims every bucket it was interested
// in. Returns the entries reclaimed per type.
func (lg *eventLog) unregister(id uint64) map[reflect.Type]int {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	pos := lg.cursors[id]
	delete(lg.cursors, id)
	var trimmed map[reflect.Type]int
	for typ := range pos {
		b := lg.buckets[typ]
		if b == nil {
			continue
		}
		if n := lg.trimLocked(typ, b); n > 0 {
			if trimmed == nil {
				trimmed = make(map[reflect.Type]int)
			}
			trimmed[typ] = n
		}
	}
	return trimmed
}

// maybeTrimLocked trims only once the bucket's retained length reaches the
// threshold, keeping reclamation amortized rather than eager.
func (lg *eventLog) maybeTrimLocked(typ reflect.Type, b *bucket) int {
	if len(b.entries) < lg.threshold {
		return 0
	}
	return lg.trimLocked(typ, b)
}

// trimLocked discards every entry below the bucket's low-water mark: the
// minimum position across cursors interested in typ, or the bucket end when
// no cursor is interested. The retained tail is copied to a fresh array so
// reclaimed payloads become collectable.
func (lg *eventLog) trimLocked(typ reflect.Type, b *bucket) int {
	lwm := b.end()
	for _, pos := range lg.cursors {
		if p, ok := pos[typ]; ok && p < lwm {
			lwm = p
		}
	}
	cut := int(lwm - b.base)
	if cut <= 0 {
		return 0
	}
	kept := make([]entry, len(b.entries)-cut)
	copy(kept, b.entries[cut:])
	b.entries = kept
	b.base = lwm
	return cut
}

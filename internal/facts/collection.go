// Package facts collects named pieces of system information into
// timestamped snapshots and caches them between runs.
package facts

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// DefaultFreshnessThreshold is how long a cached snapshot is reused
// before the hardware methods run again.
const DefaultFreshnessThreshold = 4 * time.Hour

// Facts maps a fact name (e.g. "uname.machine") to a primitive value.
type Facts map[string]any

// Merge copies every entry of other into f, overwriting existing keys.
func (f Facts) Merge(other Facts) {
	maps.Copy(f, other)
}

// Clone returns a shallow copy. Cloning nil yields an empty map.
func (f Facts) Clone() Facts {
	out := make(Facts, len(f))
	maps.Copy(out, f)
	return out
}

// Keys returns the fact names in sorted order.
func (f Facts) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// Strings renders every value as a string, the form exported over D-Bus.
func (f Facts) Strings() map[string]string {
	out := make(map[string]string, len(f))
	for k, v := range f {
		out[k] = FormatValue(v)
	}
	return out
}

// FormatValue renders a single fact value. Nil becomes the empty string.
func FormatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Collection is a completed snapshot of facts and the time it was taken.
// It is replaced wholesale, never edited fact by fact.
type Collection struct {
	Facts          Facts     `json:"facts" cbor:"facts"`
	CollectionTime time.Time `json:"collection_time" cbor:"collection_time"`
}

// NewCollection wraps facts taken at the given time.
func NewCollection(f Facts, at time.Time) *Collection {
	if f == nil {
		f = Facts{}
	}
	return &Collection{Facts: f, CollectionTime: at}
}

// Restamp returns a copy of c carrying a new timestamp. The facts map is
// cloned so the copy can be persisted independently.
func (c *Collection) Restamp(at time.Time) *Collection {
	return NewCollection(c.Facts.Clone(), at)
}

// Age returns how long before now the snapshot was taken.
func (c *Collection) Age(now time.Time) time.Duration {
	return now.Sub(c.CollectionTime)
}

// IsFresh reports whether c may be reused instead of collecting again.
// Only the timestamp is considered; fact contents are never compared.
// A missing snapshot, a zero timestamp, or one from the future is stale.
func IsFresh(c *Collection, now time.Time, threshold time.Duration) bool {
	if c == nil || c.CollectionTime.IsZero() {
		return false
	}
	age := c.Age(now)
	if age < 0 {
		return false
	}
	return age < threshold
}

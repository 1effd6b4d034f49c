package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nikicat/rhsm-facts/internal/facts"
)

// Formatter outputs facts as text or JSON.
type Formatter struct {
	w      io.Writer
	asJSON bool
}

// NewFormatter creates a new formatter.
func NewFormatter(w io.Writer, asJSON bool) *Formatter {
	return &Formatter{w: w, asJSON: asJSON}
}

// FormatFacts outputs a collection as sorted "name: value" lines, or as
// the JSON document the cache would hold.
func (f *Formatter) FormatFacts(coll *facts.Collection) error {
	if f.asJSON {
		enc := json.NewEncoder(f.w)
		enc.SetIndent("", "  ")
		return enc.Encode(coll)
	}

	for _, name := range coll.Facts.Keys() {
		if _, err := fmt.Fprintf(f.w, "%s: %s\n", name, facts.FormatValue(coll.Facts[name])); err != nil {
			return err
		}
	}
	return nil
}

// FormatStatus outputs when the snapshot was taken and whether it is
// still fresh at now.
func (f *Formatter) FormatStatus(coll *facts.Collection, now time.Time, threshold time.Duration) error {
	fresh := facts.IsFresh(coll, now, threshold)
	if f.asJSON {
		status := map[string]any{"fresh": fresh, "threshold_seconds": int64(threshold / time.Second)}
		if coll != nil {
			status["collection_time"] = coll.CollectionTime
			status["fact_count"] = len(coll.Facts)
		}
		return json.NewEncoder(f.w).Encode(status)
	}

	if coll == nil {
		fmt.Fprintln(f.w, "No cached facts")
		return nil
	}
	fmt.Fprintf(f.w, "Last update: %s (%s)\n", coll.CollectionTime.Format(time.RFC3339), formatAgo(coll.Age(now)))
	fmt.Fprintf(f.w, "Facts:       %d\n", len(coll.Facts))
	fmt.Fprintf(f.w, "Fresh:       %s\n", yesNo(fresh))
	return nil
}

func formatAgo(age time.Duration) string {
	age = age.Round(time.Second)
	if age < 0 {
		return "in the future"
	}
	if age == 0 {
		return "just now"
	}
	return age.String() + " ago"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

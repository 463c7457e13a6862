package etl

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/talentbridge/crmsync/load"
)

// EntityResult is the outcome of one entity's sync.
type EntityResult struct {
	Entity string
	// Report is nil when the entity failed before any record was processed.
	Report *load.Report
	// Documents is the number of attachments stored for this entity's
	// records, zero unless attachment sync ran.
	Documents int
	// Err is the entity-fatal error, nil on success.
	Err error
}

// Summary is the final accounting of a run.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []EntityResult
}

// Failed returns the number of entities that aborted.
func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// AllFailed reports whether every attempted entity aborted.
func (s *Summary) AllFailed() bool {
	return len(s.Results) > 0 && s.Failed() == len(s.Results)
}

// String renders the human-readable run summary.
func (s *Summary) String() string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	p.Fprintf(&b, "run %s finished in %v\n", s.RunID, s.Finished.Sub(s.Started).Round(time.Millisecond))
	for _, r := range s.Results {
		if r.Err != nil {
			p.Fprintf(&b, "  %-12s FAILED: %v\n", r.Entity, r.Err)
			continue
		}
		p.Fprintf(&b, "  %-12s extracted=%d loaded=%d skipped=%d failed=%d",
			r.Entity, r.Report.Extracted, r.Report.Loaded, r.Report.Skipped(), r.Report.Failed())
		if r.Documents > 0 {
			p.Fprintf(&b, " documents=%d", r.Documents)
		}
		b.WriteString("\n")
	}
	return b.String()
}

package load

// Stage names where a record can fail.
const (
	StageTransform = "transform"
	StageUpsert    = "upsert"
)

// RecordFailure describes one skipped record.
type RecordFailure struct {
	// ID is the external identifier, empty when the record had none.
	ID string
	// Stage is the step that rejected the record.
	Stage string
	// Reason is the failure message.
	Reason string
}

// Report accounts for every record handed to the loader for one entity.
// Failure accounting is explicit rather than buried in logs so the pipeline
// summary and tests can assert on it.
type Report struct {
	Entity    string
	Extracted int
	Loaded    int
	Failures  []RecordFailure
}

// Skipped returns the number of records rejected during transform.
func (r *Report) Skipped() int {
	return r.countStage(StageTransform)
}

// Failed returns the number of records rejected by the database.
func (r *Report) Failed() int {
	return r.countStage(StageUpsert)
}

func (r *Report) countStage(stage string) int {
	n := 0
	for _, f := range r.Failures {
		if f.Stage == stage {
			n++
		}
	}
	return n
}

func (r *Report) addFailure(id, stage, reason string) {
	r.Failures = append(r.Failures, RecordFailure{ID: id, Stage: stage, Reason: reason})
}

package organizer

import "time"

// Status is the result category of a single file.
type Status string

const (
	StatusMoved   Status = "moved"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// SkipReason explains a skipped outcome.
type SkipReason string

const (
	ReasonNoRuleMatched        SkipReason = "no_rule_matched"
	ReasonAlreadyInDestination SkipReason = "already_in_destination"
)

// Outcome records what happened to one source file. Destination is the final
// path for moved files. Warning is set when a move succeeded but left
// something behind, such as a source that could not be removed after a copy.
type Outcome struct {
	Source      string
	Status      Status
	Destination string
	Reason      SkipReason
	Kind        Kind
	Err         error
	Warning     string
}

func moved(source, destination string) Outcome {
	return Outcome{Source: source, Status: StatusMoved, Destination: destination}
}

func skipped(source string, reason SkipReason) Outcome {
	return Outcome{Source: source, Status: StatusSkipped, Reason: reason}
}

func failed(source string, err error) Outcome {
	return Outcome{Source: source, Status: StatusFailed, Kind: KindOf(err), Err: err}
}

// ErrorText returns the failure message or an empty string.
func (o Outcome) ErrorText() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// RunReport summarizes one pass over a root directory. Outcomes are kept in
// processing order.
type RunReport struct {
	ID         string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	Moved      int
	Skipped    int
	Failed     int
	Outcomes   []Outcome
	Cancelled  bool
}

func (r *RunReport) record(o Outcome) {
	switch o.Status {
	case StatusMoved:
		r.Moved++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Total returns the number of recorded outcomes.
func (r *RunReport) Total() int { return len(r.Outcomes) }

func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

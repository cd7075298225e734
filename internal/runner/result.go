package runner

// Result is the outcome of one check. Passed and CostPassed stay nil when
// the corresponding ceiling was not configured — informational, not
// failed. Optional fields are omitted from JSON rather than emitted as
// null.
type Result struct {
	Name       string   `json:"name"`
	Model      string   `json:"model"`
	Files      []string `json:"files"`
	TokenCount int      `json:"tokenCount"`
	Cost       *float64 `json:"cost,omitempty"`
	TokenLimit *int     `json:"tokenLimit,omitempty"`
	CostLimit  *float64 `json:"costLimit,omitempty"`
	Passed     *bool    `json:"passed,omitempty"`
	CostPassed *bool    `json:"costPassed,omitempty"`
	Warning    bool     `json:"warning,omitempty"`
	Missed     bool     `json:"missed,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// Failed reports whether this result fails the run: a missed check or an
// exceeded ceiling.
func (r Result) Failed() bool {
	if r.Missed {
		return true
	}
	if r.Passed != nil && !*r.Passed {
		return true
	}
	if r.CostPassed != nil && !*r.CostPassed {
		return true
	}
	return false
}

// Summary aggregates all results of one run.
type Summary struct {
	Results []Result `json:"results"`
	Failed  bool     `json:"failed"`
}

func missedResult(name, model, message string) Result {
	return Result{
		Name:    name,
		Model:   model,
		Files:   []string{},
		Missed:  true,
		Message: message,
	}
}

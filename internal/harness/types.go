package harness

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Records is the refined collection, in result order.
	Records []any `json:"records"`

	// Total is the Count of the same refinement without offset and limit.
	Total int `json:"total"`

	// Err is the refinement error message, empty on success.
	Err string `json:"error,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with no records.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Records: []any{},
		Errors:  []string{},
	}
}

// AddError records a failed assertion.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

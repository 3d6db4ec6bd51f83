package errs

import "fmt"

// StepError reports a failure inside a multi-statement schema change.
// Catalog mutations are not transactional, so the statements before Step
// have already been applied; Committed says how many.
type StepError struct {
	Step      int    // 1-based index of the failing statement
	Total     int    // number of statements in the plan
	Label     string // short description of the failing statement
	Committed int    // statements applied before the failure
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d/%d (%s) failed, %d prior step(s) already applied: %s",
		e.Step, e.Total, e.Label, e.Committed, Message(e.Err))
}

// Unwrap exposes the database error so the Is* predicates keep working.
func (e *StepError) Unwrap() error {
	return e.Err
}

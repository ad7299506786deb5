package screening

import "fmt"

// InputError is returned when a run cannot start: the job description is
// empty or no documents were supplied. No document is processed.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid screening input: %s", e.Reason)
}

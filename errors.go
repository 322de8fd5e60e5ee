package argofetch

import "fmt"

// TransportError reports a failed read of a shared prerequisite endpoint
// (status registry or global metadata index). Nothing useful can proceed
// without those, so it propagates to the caller.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RequiredVariableError reports a profile dataset missing one of the
// configured variables. The fetch loop absorbs it: the profile is memoized
// as an empty table and the batch continues.
type RequiredVariableError struct {
	Variable string
	URL      string
}

func (e *RequiredVariableError) Error() string {
	return fmt.Sprintf("%s not in %s", e.Variable, e.URL)
}

// MultiProfileError reports a profile dataset whose N_PROF dimension is not
// of length one. The source format stores exactly one profile per file;
// a file violating that is rejected rather than silently truncated.
type MultiProfileError struct {
	URL      string
	Profiles int
}

func (e *MultiProfileError) Error() string {
	return fmt.Sprintf("%d profiles in %s, expected exactly 1", e.Profiles, e.URL)
}

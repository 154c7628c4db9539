package backend

import "fmt"

// FetchError reports a failed read against the engine (performance poll or
// strategy catalog). It is non-fatal by contract: callers keep their
// last-known-good state, surface an indicator and try again later.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SubmissionError reports a configure call that did not apply: either the
// engine rejected it (StatusCode and Detail set) or the request never
// completed (Err set). The form stays editable with its values intact.
type SubmissionError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("engine rejected configuration (status %d): %s", e.StatusCode, e.Detail)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("engine rejected configuration (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("configure request failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

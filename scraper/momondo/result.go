package momondo

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the terminal outcome of one scrape
type Status string

const (
	StatusResolved Status = "resolved"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// State names a step of the scrape
type State string

const (
	StateLoading    State = "LOADING"
	StateSettling   State = "SETTLING"
	StateSorting    State = "SORTING"
	StateExtracting State = "EXTRACTING"
	StateResolving  State = "RESOLVING"
)

var (
	// ErrBrowserLaunch means no browser session could be started
	ErrBrowserLaunch = errors.New("browser launch failed")
	// ErrNavigationTimeout means the search page did not load within its bound
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrNavigation means the search page failed to load for another reason
	ErrNavigation = errors.New("navigation failed")
	// ErrExtraction means the rendered page could never be read
	ErrExtraction = errors.New("page could not be read")
	// ErrRedirectResolution means a booking link was found but could not be followed
	ErrRedirectResolution = errors.New("redirect resolution failed")
)

// StepError records which step a failed scrape stopped in
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", strings.ToLower(string(e.State)), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result is the outcome of Scrape. Err is set only when Status is StatusFailed.
type Result struct {
	Status        Status
	TargetURL     string
	ExtractedHref string
	BookingURL    string
	Err           error
	Duration      time.Duration
}

// Found reports whether a booking link was resolved
func (r Result) Found() bool {
	return r.Status == StatusResolved
}

func failed(state State, kind, cause error) Result {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %v", kind, cause)
	}
	return Result{Status: StatusFailed, Err: &StepError{State: state, Err: err}}
}

func cancelled(state State, cause error) Result {
	return Result{Status: StatusFailed, Err: &StepError{State: state, Err: cause}}
}

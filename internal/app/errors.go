package app

import "errors"

// Terminal failures of a run. Each maps to exit code 1.
var (
	ErrAllSeasonsExhausted = errors.New("no data returned for any season")
	ErrEmptyAfterFilter    = errors.New("no rows left after selecting the most recent date")
	ErrWriteOutput         = errors.New("failed to write output file")
)

// ExitCode maps the result of Run to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

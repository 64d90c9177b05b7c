// Package errors defines the fatal error kinds produced while sizing
// workloads. Each kind carries an ExitCode so binaries can report it.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

type ExitCodeError struct {
	code ExitCode
	error
}

func NewError(err error, exitCode ExitCode) *ExitCodeError {
	if err == nil {
		return nil
	}
	return &ExitCodeError{exitCode, err}
}

func (e *ExitCodeError) GetExitCode() ExitCode {
	if e == nil {
		return 0
	}
	return e.code
}

func (e *ExitCodeError) Cause() error {
	return e.error
}

// InfeasibleSizeError: the target is smaller than the smallest achievable unit,
// i.e. a partition count or solved extent came out non-positive.
type InfeasibleSizeError struct {
	msg string
}

func NewInfeasibleSizeError(format string, args ...interface{}) error {
	return &InfeasibleSizeError{fmt.Sprintf(format, args...)}
}

func (e *InfeasibleSizeError) Error() string { return "infeasible size: " + e.msg }

// ToleranceExceededError: a resolved shape deviates from the target by more
// than the allowed relative error.
type ToleranceExceededError struct {
	Target   int64
	Actual   int64
	RelError float64
	MaxError float64
	Shape    string
}

func (e *ToleranceExceededError) Error() string {
	return fmt.Sprintf("tolerance exceeded: shape %s is %d bytes, target %d bytes: relative error %.4f >= %.4f",
		e.Shape, e.Actual, e.Target, e.RelError, e.MaxError)
}

// InvalidTemplateError: a shape template has nothing to solve for or contains
// a malformed dimension.
type InvalidTemplateError struct {
	msg string
}

func NewInvalidTemplateError(format string, args ...interface{}) error {
	return &InvalidTemplateError{fmt.Sprintf(format, args...)}
}

func (e *InvalidTemplateError) Error() string { return "invalid shape template: " + e.msg }

func IsInfeasibleSize(err error) bool {
	_, ok := pkgerrors.Cause(err).(*InfeasibleSizeError)
	return ok
}

func IsToleranceExceeded(err error) bool {
	_, ok := pkgerrors.Cause(err).(*ToleranceExceededError)
	return ok
}

func IsInvalidTemplate(err error) bool {
	_, ok := pkgerrors.Cause(err).(*InvalidTemplateError)
	return ok
}

// GetExitCode maps an error to the code a binary should exit with.
func GetExitCode(err error) ExitCode {
	if err == nil {
		return 0
	}
	for e := err; e != nil; {
		if ec, ok := e.(*ExitCodeError); ok {
			return ec.GetExitCode()
		}
		c, ok := e.(interface{ Cause() error })
		if !ok {
			break
		}
		e = c.Cause()
	}
	switch pkgerrors.Cause(err).(type) {
	case *InfeasibleSizeError:
		return InfeasibleSizeExitCode
	case *ToleranceExceededError:
		return ToleranceExceededExitCode
	case *InvalidTemplateError:
		return InvalidTemplateExitCode
	}
	return GenericFailureExitCode
}

package errors

import (
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindsSurviveWrapping(t *testing.T) {
	err := pkgerrors.Wrap(NewInfeasibleSizeError("target %d < partition %d", 1, 2), "sizing timeseries")
	assert.True(t, IsInfeasibleSize(err))
	assert.False(t, IsInvalidTemplate(err))
	assert.Contains(t, err.Error(), "target 1 < partition 2")
	assert.Equal(t, InfeasibleSizeExitCode, GetExitCode(err))

	err = pkgerrors.WithStack(&ToleranceExceededError{Target: 100, Actual: 50, RelError: -1, MaxError: 0.1, Shape: "(50)"})
	assert.True(t, IsToleranceExceeded(err))
	assert.Equal(t, ToleranceExceededExitCode, GetExitCode(err))

	err = NewInvalidTemplateError("no scaling dims in %s", "(2, 3)")
	assert.True(t, IsInvalidTemplate(err))
	assert.Equal(t, InvalidTemplateExitCode, GetExitCode(err))
}

func TestExitCodeError(t *testing.T) {
	assert.Nil(t, NewError(nil, ConfigFailureExitCode))

	err := NewError(fmt.Errorf("bad config"), ConfigFailureExitCode)
	assert.Equal(t, ConfigFailureExitCode, err.GetExitCode())
	assert.Equal(t, ConfigFailureExitCode, GetExitCode(err))
	assert.Equal(t, GenericFailureExitCode, GetExitCode(fmt.Errorf("boom")))
	assert.Equal(t, ExitCode(0), GetExitCode(nil))

	wrapped := pkgerrors.Wrap(NewError(NewInfeasibleSizeError("too small"), ClusterFetchFailureExitCode), "workload a")
	assert.Equal(t, ClusterFetchFailureExitCode, GetExitCode(wrapped))
	assert.True(t, IsInfeasibleSize(wrapped))
}

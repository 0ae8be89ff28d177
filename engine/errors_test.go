package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMessageIncludesTaskWhenPresent(t *testing.T) {
	err := &ValidationError{Kind: ValidationCycle, Task: "A", Detail: "cycle detail"}
	assert.Contains(t, err.Error(), "A")
	assert.Contains(t, err.Error(), "cycle")
}

func TestValidationErrorMessageOmitsTaskWhenAbsent(t *testing.T) {
	err := &ValidationError{Kind: ValidationUnknownAgent, Detail: "no such agent"}
	assert.NotContains(t, err.Error(), `task ""`)
}

func TestAgentFailureErrorUnwraps(t *testing.T) {
	sentinel := errors.New("boom")
	err := &AgentFailureError{Task: "T", Err: sentinel}
	assert.ErrorIs(t, err, sentinel)
}

func TestTransportErrorUnwraps(t *testing.T) {
	sentinel := errors.New("conn refused")
	err := &TransportError{Op: "ExecuteTask", Err: sentinel}
	assert.ErrorIs(t, err, sentinel)
}

func TestDeadlockErrorListsRemainingTasks(t *testing.T) {
	err := &DeadlockError{Remaining: []string{"A", "B"}}
	assert.Contains(t, err.Error(), "A")
	assert.Contains(t, err.Error(), "B")
}

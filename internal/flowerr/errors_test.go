package flowerr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationf(t *testing.T) {
	err := Validationf("duplicate node id '%s'", "n1")
	assert.Equal(t, "invalid workflow document: duplicate node id 'n1'", err.Error())

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestScriptErrorUnwrap(t *testing.T) {
	cause := errors.New("division by zero")
	err := &ScriptError{NodeID: "calc", Err: cause}

	assert.Contains(t, err.Error(), "calc")
	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("running node: %w", err)
	var sErr *ScriptError
	assert.True(t, errors.As(wrapped, &sErr))
	assert.Equal(t, "calc", sErr.NodeID)
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{NodeID: "slow", Budget: 2 * time.Second}
	assert.Contains(t, err.Error(), "slow")
	assert.Contains(t, err.Error(), "2s")
}

func TestNeighborResolutionError(t *testing.T) {
	err := &NeighborResolutionError{NodeID: "agg", Neighbor: "ghost"}
	assert.Contains(t, err.Error(), "agg")
	assert.Contains(t, err.Error(), "ghost")
}

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, Status("anything-else").IsTerminal())
}

func TestCloneMetadata(t *testing.T) {
	original := map[string]string{"source": "checkout"}

	cloned := cloneMetadata(original)
	cloned["engine"] = "annotation"

	assert.NotContains(t, original, "engine")
	assert.Equal(t, "checkout", cloned["source"])

	assert.NotNil(t, cloneMetadata(nil))
}

package httpdto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseEnvelope(t *testing.T) {
	ok := NewSuccessResponse(map[string]int{"pending": 3})
	assert.True(t, ok.OK)
	assert.Nil(t, ok.Error)

	bad := NewErrorResponse("agent already has an open conversation", "AGENT_BUSY")
	assert.False(t, bad.OK)
	require.NotNil(t, bad.Error)
	assert.Equal(t, "AGENT_BUSY", bad.Error.Code)
	assert.Equal(t, "agent already has an open conversation", bad.Error.Message)
}

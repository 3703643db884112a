package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourcePath(t *testing.T) {
	assert.Equal(t, "/api/v1/slots", ResourcePath("slots"))
	assert.Equal(t, "/api/v1/interviews/:id", ResourcePath("interviews", ":id"))
	assert.Equal(t, "/api/v1/interviews/:id/cancel", ResourcePath("interviews", ":id", "cancel"))
}

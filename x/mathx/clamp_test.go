package mathx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(5, 0, 10))
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(42, 10, 0))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 30000, OrDefault(0, 30000, 1000, 600000))
	assert.Equal(t, 1000, OrDefault(5, 30000, 1000, 600000))
	assert.Equal(t, 45000, OrDefault(45000, 30000, 1000, 600000))
}

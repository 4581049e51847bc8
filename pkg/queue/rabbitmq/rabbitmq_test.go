package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessagePriorityInverts(t *testing.T) {
	assert.Equal(t, uint8(10), messagePriority(0))
	assert.Equal(t, uint8(5), messagePriority(5))
	assert.Equal(t, uint8(0), messagePriority(10))
	assert.Equal(t, uint8(0), messagePriority(200))
}

func TestQueueArgsDeclarePriority(t *testing.T) {
	assert.Equal(t, int32(maxPriority), queueArgs()["x-max-priority"])
}

package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type cell struct {
	Index int
}

func TestQueue_PublishConsume(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue[cell](DefaultConfig())
	for i := 0; i < 3; i++ {
		assert.Nil(t, queue.Publish(ctx, &cell{Index: i}))
	}
	assert.Equal(t, 3, queue.Size())

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		msg, err := queue.Consume(ctx)
		assert.Nil(t, err)
		seen[msg.T().Index] = true
		assert.Nil(t, msg.Ack())
		assert.NotNil(t, msg.Ack(), "double ack is rejected")
	}
	assert.Len(t, seen, 3)
}

func TestQueue_NackRequeues(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue[cell](Config{MaxRetries: 1, QueueBuffer: 4})
	assert.Nil(t, queue.Publish(ctx, &cell{Index: 7}))

	msg, err := queue.Consume(ctx)
	assert.Nil(t, err)
	assert.Nil(t, msg.Nack(fmt.Errorf("transient")))

	msg, err = queue.Consume(ctx)
	assert.Nil(t, err)
	assert.Equal(t, 7, msg.T().Index)
	// retry budget exhausted - message is dropped silently
	assert.Nil(t, msg.Nack(fmt.Errorf("again")))
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_ConsumeHonoursContext(t *testing.T) {
	queue := NewQueue[cell](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := queue.Consume(ctx)
	assert.NotNil(t, err)
}

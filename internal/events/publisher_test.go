package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingPublisher struct {
	n   int
	err error
}

func (c *countingPublisher) Publish(context.Context, string, any) error {
	c.n++
	return c.err
}

func TestFanOut(t *testing.T) {
	boom := errors.New("broker down")
	a := &countingPublisher{}
	b := &countingPublisher{err: boom}
	c := &countingPublisher{}

	err := FanOut{a, b, c}.Publish(context.Background(), "ledger_events", struct{}{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, c.n, "later publishers still run after a failure")

	assert.NoError(t, FanOut{a}.Publish(context.Background(), "t", nil))
	assert.NoError(t, Nop{}.Publish(context.Background(), "t", nil))
}

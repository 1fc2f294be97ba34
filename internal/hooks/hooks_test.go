package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusTrigger(t *testing.T) {
	b := NewBus()

	var got []any
	b.Register(OnDuplicateFound, func(ctx Context) {
		assert.Equal(t, OnDuplicateFound, ctx.Event)
		got = append(got, ctx.Data)
	})
	b.Register(OnDuplicateFound, func(ctx Context) {
		got = append(got, "second")
	})

	b.Trigger(OnDuplicateFound, "payload")
	assert.Equal(t, []any{"payload", "second"}, got)

	b.Trigger(OnError, "unrelated")
	assert.Len(t, got, 2)
}

func TestBusIsolation(t *testing.T) {
	// Two buses never cross-trigger.
	a, b := NewBus(), NewBus()
	fired := false
	a.Register(BeforeAnalysis, func(Context) { fired = true })

	b.Trigger(BeforeAnalysis, nil)
	assert.False(t, fired)

	a.Trigger(BeforeAnalysis, nil)
	assert.True(t, fired)
}

func TestNilBusIsNoop(t *testing.T) {
	var b *Bus
	assert.NotPanics(t, func() {
		b.Trigger(AfterAnalysis, nil)
	})
}

func TestClearAndCount(t *testing.T) {
	b := NewBus()
	b.Register(OnGateFail, func(Context) {})
	b.Register(OnGateFail, func(Context) {})
	assert.Equal(t, 2, b.Count(OnGateFail))

	b.Clear()
	assert.Equal(t, 0, b.Count(OnGateFail))
}

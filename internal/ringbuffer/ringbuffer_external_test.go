package ringbuffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kodflow/spiketrace/internal/ringbuffer"
)

type fakeEntry struct{ ts uint64 }

func (f fakeEntry) Timestamp() uint64 { return f.ts }

func TestBuffer_CountNeverExceedsCapacity(t *testing.T) {
	buf := ringbuffer.New[fakeEntry](60)
	for i := 0; i < 100; i++ {
		buf.Push(fakeEntry{ts: uint64(i + 1)})
	}
	assert.Equal(t, 60, buf.Count())
}

func TestBuffer_GetRecent_NewestFirst(t *testing.T) {
	buf := ringbuffer.New[fakeEntry](60)
	for i := 1; i <= 100; i++ {
		buf.Push(fakeEntry{ts: uint64(i)})
	}

	recent := buf.GetRecent(10)
	assert.Equal(t, uint64(100), recent[0].Timestamp())
	assert.Equal(t, uint64(91), recent[9].Timestamp())
	for i := 1; i < len(recent); i++ {
		assert.Less(t, recent[i].Timestamp(), recent[i-1].Timestamp())
	}
}

func TestBuffer_CapacityOne_AlwaysReturnsNewest(t *testing.T) {
	buf := ringbuffer.New[fakeEntry](1)
	buf.Push(fakeEntry{ts: 1})
	buf.Push(fakeEntry{ts: 2})
	buf.Push(fakeEntry{ts: 3})

	recent := buf.GetRecent(1)
	assert.Len(t, recent, 1)
	assert.Equal(t, uint64(3), recent[0].Timestamp())
}

func TestBuffer_GetRecent_MoreThanCountReturnsAll(t *testing.T) {
	buf := ringbuffer.New[fakeEntry](60)
	buf.Push(fakeEntry{ts: 1})
	buf.Push(fakeEntry{ts: 2})

	recent := buf.GetRecent(10)
	assert.Len(t, recent, 2)
}

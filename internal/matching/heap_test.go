package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderHeap_MaxHeapOrdersByPriceThenTime(t *testing.T) {
	h := newOrderHeap(true)
	base := time.Now()

	heapPush(h, &Order{ID: 1, Price: amt(100), Timestamp: base})
	heapPush(h, &Order{ID: 2, Price: amt(120), Timestamp: base.Add(time.Second)})
	heapPush(h, &Order{ID: 3, Price: amt(120), Timestamp: base})

	top := h.peek()
	require.NotNil(t, top)
	assert.Equal(t, int64(3), top.ID, "equal price ties go to the earlier timestamp")

	first := heapPop(h)
	assert.Equal(t, int64(3), first.ID)
	second := heapPop(h)
	assert.Equal(t, int64(2), second.ID)
	third := heapPop(h)
	assert.Equal(t, int64(1), third.ID)
}

func TestOrderHeap_MinHeapOrdersByPriceThenTime(t *testing.T) {
	h := newOrderHeap(false)
	base := time.Now()

	heapPush(h, &Order{ID: 1, Price: amt(150), Timestamp: base})
	heapPush(h, &Order{ID: 2, Price: amt(100), Timestamp: base.Add(time.Second)})

	top := h.peek()
	require.NotNil(t, top)
	assert.Equal(t, int64(2), top.ID)
}

func TestOrderHeap_RemoveByID(t *testing.T) {
	h := newOrderHeap(true)
	heapPush(h, &Order{ID: 1, Price: amt(100)})
	heapPush(h, &Order{ID: 2, Price: amt(110)})
	heapPush(h, &Order{ID: 3, Price: amt(105)})

	require.True(t, h.removeByID(2))
	assert.False(t, h.removeByID(2), "already removed")
	assert.Equal(t, 2, h.Len())

	top := h.peek()
	require.NotNil(t, top)
	assert.Equal(t, int64(3), top.ID)
}

func TestOrderHeap_PeekEmpty(t *testing.T) {
	h := newOrderHeap(true)
	assert.Nil(t, h.peek())
}

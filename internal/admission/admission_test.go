package admission

import (
	"errors"
	"sync"
	"testing"

	"datagen/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mb = 1024.0

func TestCapacityFor(t *testing.T) {
	cases := []struct {
		sizeKB float64
		want   int
	}{
		{1, 10},
		{10*mb - 1, 10},
		{10 * mb, 5},
		{30*mb - 1, 5},
		{30 * mb, 3},
		{50 * mb, 2},
		{100*mb - 1, 2},
		{100 * mb, 5},
		{1024 * mb, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CapacityFor(tc.sizeKB), "size %vKB", tc.sizeKB)
	}
}

func TestController_Tiering(t *testing.T) {
	for _, sizeKB := range []float64{100, 20 * mb, 40 * mb, 60 * mb, 200 * mb} {
		c := NewController(nil)
		capacity := CapacityFor(sizeKB)

		tickets := make([]*Ticket, 0, capacity)
		for i := 0; i < capacity; i++ {
			tk, err := c.Acquire(sizeKB)
			require.NoError(t, err, "request %d of %d at %vKB", i+1, capacity, sizeKB)
			tickets = append(tickets, tk)
		}

		_, err := c.Acquire(sizeKB)
		var rejected *RejectedError
		require.True(t, errors.As(err, &rejected), "size %vKB", sizeKB)
		assert.Equal(t, capacity, rejected.Current)
		assert.Equal(t, capacity, rejected.Capacity)
		assert.Equal(t, sizeKB, rejected.RequestedSizeKB)

		tickets[0].Release()
		tk, err := c.Acquire(sizeKB)
		require.NoError(t, err)
		tk.Release()
		for _, tk := range tickets[1:] {
			tk.Release()
		}
		assert.Equal(t, 0, c.InFlight())
	}
}

func TestController_SharedCounter(t *testing.T) {
	c := NewController(nil)

	for i := 0; i < 2; i++ {
		_, err := c.Acquire(1)
		require.NoError(t, err)
	}

	// small requests occupy the same counter large tiers are checked against
	_, err := c.Acquire(60 * mb)
	assert.Error(t, err)

	_, err = c.Acquire(1)
	assert.NoError(t, err)
	assert.Equal(t, 3, c.InFlight())
}

func TestTicket_ReleaseIsIdempotent(t *testing.T) {
	c := NewController(nil)
	tk, err := c.Acquire(1)
	require.NoError(t, err)
	other, err := c.Acquire(1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tk.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, c.InFlight())
	other.Release()
	assert.Equal(t, 0, c.InFlight())
}

func TestController_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	c := NewController(m)
	var tickets []*Ticket
	for i := 0; i < 2; i++ {
		tk, err := c.Acquire(60 * mb)
		require.NoError(t, err)
		tickets = append(tickets, tk)
	}
	_, err = c.Acquire(60 * mb)
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("2")))

	for _, tk := range tickets {
		tk.Release()
	}
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

package metrics

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Connections(t *testing.T) {
	c := New()

	c.ConnectAttempt()
	c.ConnectAttempt()
	c.ConnectAttempt()
	c.ConnectionOpened()

	assert.Equal(t, int64(3), c.ConnectAttempts())
	assert.Equal(t, int64(1), c.Connects())
	assert.Equal(t, int64(1), c.OpenConnections())

	c.ConnectionClosed()
	assert.Equal(t, int64(0), c.OpenConnections())
	assert.Equal(t, int64(1), c.Connects(), "total should not drop on close")
}

func TestCollector_Traffic(t *testing.T) {
	c := New()

	c.CommandSent(3)
	c.CommandSent(7)
	c.ResponseReceived(100)
	c.BytesSent(20)

	assert.Equal(t, int64(2), c.Commands())
	assert.Equal(t, int64(30), c.TotalBytesOut())
	assert.Equal(t, int64(100), c.TotalBytesIn())
}

func TestCollector_Failures(t *testing.T) {
	c := New()

	c.WatchdogExpired()
	c.RecordError("first error")
	c.RecordError("second error")

	assert.Equal(t, int64(1), c.WatchdogExpiries())
	assert.Equal(t, int64(2), c.ErrorCount())
	assert.Equal(t, "second error", c.Snapshot().LastErrorMessage)
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.CommandSent(1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), c.Commands())
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.ConnectionOpened()
	c.CommandSent(42)

	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(c.JSON()), &snap))
	assert.Equal(t, int64(1), snap.OpenConnections)
	assert.Equal(t, int64(42), snap.BytesOut)
	assert.Empty(t, snap.LastError)
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.ConnectAttempt()
		c.ConnectionOpened()
		c.ConnectionClosed()
		c.CommandSent(1)
		c.ResponseReceived(1)
		c.BytesSent(1)
		c.WatchdogExpired()
		c.RecordError("x")
	})
	assert.Zero(t, c.Commands())
	assert.Equal(t, Snapshot{}, c.Snapshot())
}

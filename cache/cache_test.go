package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/agentscrape/models"
)

func TestCache_SetGet(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Close()

	key := Key("rod", "jane-doe")
	c.Set(key, models.AgentRecord{Name: "Jane Doe"})

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", got.Name)

	got.Name = "mutated"
	again, _ := c.Get(key)
	assert.Equal(t, "Jane Doe", again.Name, "Get must hand out copies")
}

func TestCache_Expiry(t *testing.T) {
	c := New(10, 20*time.Millisecond)
	defer c.Close()

	c.Set("k", models.AgentRecord{Name: "x"})
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.evictExpired(time.Now())
	assert.Zero(t, c.Len())
}

func TestCache_Capacity(t *testing.T) {
	c := New(2, time.Minute)
	defer c.Close()

	c.Set("a", models.AgentRecord{})
	c.Set("b", models.AgentRecord{})
	c.Set("b", models.AgentRecord{Name: "b2"})
	assert.Equal(t, 2, c.Len(), "overwriting a key must not evict")

	c.Set("c", models.AgentRecord{})
	assert.Equal(t, 2, c.Len())
}

func TestCache_Disabled(t *testing.T) {
	c := New(0, time.Minute)
	defer c.Close()

	c.Set("a", models.AgentRecord{Name: "a"})
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("a", "b"), Key("ab"))
}

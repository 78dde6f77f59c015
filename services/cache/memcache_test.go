package cache

import (
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")

	_, err := mc.client.Get("test")
	if err != nil && err != memcache.ErrCacheMiss {
		t.Skip("Memcached is not available, skipping test")
	}

	err = mc.Set("fetch_block:example.com", []byte("300"), 1*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get("fetch_block:example.com")
	assert.NoError(t, err)
	assert.Equal(t, "300", string(value))

	err = mc.Delete("fetch_block:example.com")
	assert.NoError(t, err)

	_, err = mc.Get("fetch_block:example.com")
	assert.Error(t, err)
}

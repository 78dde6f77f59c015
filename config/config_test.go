package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, ":8080", config.ServerAddr)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, 0, config.RedisDB)
	assert.Equal(t, "spider_jobs", config.JobQueueKey)
	assert.Equal(t, "localhost:11211", config.MemcacheAddr)
	assert.Equal(t, 8, config.Concurrency)
	assert.True(t, config.UseProxy)
	assert.Equal(t, 300*time.Second, config.JobTimeout)
	assert.Equal(t, 3, config.JobMaxAttempts)
	assert.Equal(t, "12:00", config.ScheduleAt)
	assert.Equal(t, "https://www.amazon.com/s?k=laptops", config.AmazonStartURL)

	// Test with environment variables
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("REDIS_DB", "1")
	os.Setenv("SPIDER_CONCURRENCY", "4")
	os.Setenv("SPIDER_USE_PROXY", "false")
	os.Setenv("JOB_TIMEOUT_SECONDS", "60")
	os.Setenv("AMAZON_START_URL", "https://example.com/s?k=monitors")

	config = LoadConfig()
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, 4, config.Concurrency)
	assert.False(t, config.UseProxy)
	assert.Equal(t, 60*time.Second, config.JobTimeout)
	assert.Equal(t, "https://example.com/s?k=monitors", config.AmazonStartURL)

	// Clean up
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("REDIS_DB")
	os.Unsetenv("SPIDER_CONCURRENCY")
	os.Unsetenv("SPIDER_USE_PROXY")
	os.Unsetenv("JOB_TIMEOUT_SECONDS")
	os.Unsetenv("AMAZON_START_URL")
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	assert.NoError(t, config.Validate())

	config.Concurrency = 0
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.ScheduleAt = "noon"
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.DatabaseURL = ""
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.JobMaxAttempts = 0
	assert.Error(t, config.Validate())
}

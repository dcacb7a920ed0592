package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 0.36, cfg.MatchThreshold)
	assert.Equal(t, 8, cfg.SSIMBlockSize)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "0.5")
	t.Setenv("SSIM_BLOCK_SIZE", "16")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("ACCESS_TTL", "30m")

	cfg := Load()
	assert.Equal(t, 0.5, cfg.MatchThreshold)
	assert.Equal(t, 16, cfg.SSIMBlockSize)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "not-a-number")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	cfg := Load()
	assert.Equal(t, 0.36, cfg.MatchThreshold)
	assert.Equal(t, time.UTC, cfg.Location())
}

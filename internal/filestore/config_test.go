package filestore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koustreak/playerdb/internal/errs"
)

func TestConfig(t *testing.T) {
	cfg := DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
	assert.True(t, cfg.Enabled())
	assert.NoError(t, cfg.Validate())

	cfg.Bucket = ""
	assert.True(t, errs.IsInvalidInput(cfg.Validate()))

	cfg = DefaultConfig("localhost:9000", "", "")
	cfg.Provider = "azure"
	assert.True(t, errs.IsInvalidInput(cfg.Validate()))

	assert.False(t, (&Config{}).Enabled())
}

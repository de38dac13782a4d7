package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test --run TestLoadDefaults

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	defaults := DefaultDLOBConfig()
	assert.Equal(t, defaults, cfg)
	assert.True(t, cfg.EnforceExpiryBuffer)
	assert.Equal(t, int64(25), cfg.LimitOrderExpiryBufferSeconds)
	assert.Equal(t, int64(15), cfg.ExpiryBufferSeconds)
}

// go test --run TestLoadOverrides

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlob.yaml")
	content := "l2_depth: 5\nvamm_l2_num_orders: 20\nenforce_expiry_buffer: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("DLOB_L2_DEPTH", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	// environment wins over the file
	assert.Equal(t, 7, cfg.L2Depth)
	assert.Equal(t, 20, cfg.VammL2NumOrders)
	assert.False(t, cfg.EnforceExpiryBuffer)
	assert.Equal(t, DefaultDLOBConfig().BuildWorkers, cfg.BuildWorkers)
}

// go test --run TestLoadInvalid

func TestLoadInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("DLOB_L2_DEPTH", "0")
	_, err = Load("")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

// go test --run TestValidate

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultDLOBConfig().Validate())

	cfg := DefaultDLOBConfig()
	cfg.BuildWorkers = 0
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))

	cfg = DefaultDLOBConfig()
	cfg.LimitOrderExpiryBufferSeconds = -1
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))

	cfg = DefaultDLOBConfig()
	cfg.RebuildIntervalMs = 0
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
}

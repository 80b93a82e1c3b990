package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultChargingConfigIsValid(t *testing.T) {
	cfg := DefaultChargingConfig()

	require.NoError(t, validateChargingConfig(cfg))
	assert.Equal(t, 10, cfg.BulkCheckBatchSize)
	assert.Equal(t, 7, cfg.CacheRefreshDays)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
}

func TestValidateChargingConfig(t *testing.T) {
	cfg := DefaultChargingConfig()
	cfg.BulkCheckBatchSize = 0
	assert.Error(t, validateChargingConfig(cfg))

	cfg = DefaultChargingConfig()
	cfg.CacheRefreshDays = -1
	assert.Error(t, validateChargingConfig(cfg))

	cfg = DefaultChargingConfig()
	cfg.RefreshInterval = 0
	assert.Error(t, validateChargingConfig(cfg))
}

func TestStaticHolderServesGivenConfig(t *testing.T) {
	cfg := ChargingConfig{BulkCheckBatchSize: 2, CacheRefreshDays: 1, MaxVehiclesPerRun: 4}
	holder := NewStaticChargingConfigHolder(cfg)

	assert.Equal(t, cfg, holder.Get())
}

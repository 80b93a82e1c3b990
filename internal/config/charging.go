package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ChargingConfig holds the tunables of the chargeability cache subsystem.
// BulkCheckBatchSize bounds a single compliance-service call; MaxVehiclesPerRun
// bounds the total work of one refresh invocation (0 or negative means no limit).
type ChargingConfig struct {
	BulkCheckBatchSize int           `mapstructure:"bulkCheckBatchSize"`
	CacheRefreshDays   int           `mapstructure:"cacheRefreshDays"`
	MaxVehiclesPerRun  int           `mapstructure:"maxVehiclesPerRun"`
	RefreshInterval    time.Duration `mapstructure:"refreshInterval"`
	RefreshJobTimeout  time.Duration `mapstructure:"refreshJobTimeout"`
}

func DefaultChargingConfig() ChargingConfig {
	return ChargingConfig{
		BulkCheckBatchSize: 10,
		CacheRefreshDays:   7,
		MaxVehiclesPerRun:  500,
		RefreshInterval:    time.Hour,
		RefreshJobTimeout:  15 * time.Minute,
	}
}

// ChargingConfigHolder serves the current ChargingConfig and swaps it in place
// when the backing file changes.
type ChargingConfigHolder struct {
	current atomic.Value // holds ChargingConfig
}

func NewChargingConfigHolder() (*ChargingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("charging")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/fleet-accounts")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FLEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultChargingConfig()
	v.SetDefault("charging.bulkCheckBatchSize", defaults.BulkCheckBatchSize)
	v.SetDefault("charging.cacheRefreshDays", defaults.CacheRefreshDays)
	v.SetDefault("charging.maxVehiclesPerRun", defaults.MaxVehiclesPerRun)
	v.SetDefault("charging.refreshInterval", defaults.RefreshInterval)
	v.SetDefault("charging.refreshJobTimeout", defaults.RefreshJobTimeout)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg ChargingConfig
	if err := v.UnmarshalKey("charging", &cfg); err != nil {
		return nil, err
	}
	if err := validateChargingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ChargingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ChargingConfig
		if err := v.UnmarshalKey("charging", &updated); err != nil {
			log.Printf("[charging-config] reload failed: %v", err)
			return
		}
		if err := validateChargingConfig(updated); err != nil {
			log.Printf("[charging-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[charging-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func NewStaticChargingConfigHolder(cfg ChargingConfig) *ChargingConfigHolder {
	holder := &ChargingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *ChargingConfigHolder) Get() ChargingConfig {
	return h.current.Load().(ChargingConfig)
}

func validateChargingConfig(cfg ChargingConfig) error {
	if cfg.BulkCheckBatchSize <= 0 {
		return errors.New("charging.bulkCheckBatchSize must be positive")
	}
	if cfg.CacheRefreshDays <= 0 {
		return errors.New("charging.cacheRefreshDays must be positive")
	}
	if cfg.RefreshInterval <= 0 {
		return errors.New("charging.refreshInterval must be positive")
	}
	if cfg.RefreshJobTimeout <= 0 {
		return errors.New("charging.refreshJobTimeout must be positive")
	}
	return nil
}

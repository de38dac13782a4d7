package config

import (
	"runtime"
	"strings"

	"github.com/go-errors/errors"
	"github.com/spf13/viper"

	"github.com/aoikurokawa/flashlight-sub000/constants"
)

const EnvPrefix = "DLOB"

type DLOBConfig struct {
	// BuildWorkers bounds the goroutines inserting accounts during a rebuild.
	BuildWorkers                  int   `mapstructure:"build_workers"`
	EnforceExpiryBuffer           bool  `mapstructure:"enforce_expiry_buffer"`
	ExpiryBufferSeconds           int64 `mapstructure:"expiry_buffer_seconds"`
	LimitOrderExpiryBufferSeconds int64 `mapstructure:"limit_order_expiry_buffer_seconds"`
	VammL2NumOrders               int   `mapstructure:"vamm_l2_num_orders"`
	L2Depth                       int   `mapstructure:"l2_depth"`
	RebuildIntervalMs             int64 `mapstructure:"rebuild_interval_ms"`
}

var ErrInvalidConfig = errors.Errorf("invalid dlob config")

func DefaultDLOBConfig() DLOBConfig {
	return DLOBConfig{
		BuildWorkers:                  runtime.GOMAXPROCS(0),
		EnforceExpiryBuffer:           true,
		ExpiryBufferSeconds:           constants.DEFAULT_EXPIRY_BUFFER_SECONDS,
		LimitOrderExpiryBufferSeconds: constants.DEFAULT_LIMIT_EXPIRY_BUFFER_SECONDS,
		VammL2NumOrders:               10,
		L2Depth:                       10,
		RebuildIntervalMs:             1000,
	}
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultDLOBConfig()
	v.SetDefault("build_workers", defaults.BuildWorkers)
	v.SetDefault("enforce_expiry_buffer", defaults.EnforceExpiryBuffer)
	v.SetDefault("expiry_buffer_seconds", defaults.ExpiryBufferSeconds)
	v.SetDefault("limit_order_expiry_buffer_seconds", defaults.LimitOrderExpiryBufferSeconds)
	v.SetDefault("vamm_l2_num_orders", defaults.VammL2NumOrders)
	v.SetDefault("l2_depth", defaults.L2Depth)
	v.SetDefault("rebuild_interval_ms", defaults.RebuildIntervalMs)
}

// Load reads an optional config file and DLOB_ prefixed environment
// overrides on top of the defaults.
func Load(path string) (DLOBConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return DLOBConfig{}, errors.WrapPrefix(err, "read dlob config", 0)
		}
	}

	var cfg DLOBConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return DLOBConfig{}, errors.WrapPrefix(err, "decode dlob config", 0)
	}
	if err := cfg.Validate(); err != nil {
		return DLOBConfig{}, err
	}
	return cfg, nil
}

func (p DLOBConfig) Validate() error {
	if p.BuildWorkers <= 0 {
		return errors.WrapPrefix(ErrInvalidConfig, "build_workers must be positive", 0)
	}
	if p.ExpiryBufferSeconds < 0 || p.LimitOrderExpiryBufferSeconds < 0 {
		return errors.WrapPrefix(ErrInvalidConfig, "expiry buffers must not be negative", 0)
	}
	if p.L2Depth <= 0 {
		return errors.WrapPrefix(ErrInvalidConfig, "l2_depth must be positive", 0)
	}
	if p.RebuildIntervalMs <= 0 {
		return errors.WrapPrefix(ErrInvalidConfig, "rebuild_interval_ms must be positive", 0)
	}
	return nil
}

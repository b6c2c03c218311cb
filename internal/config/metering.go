package config

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MeteringConfig holds operator-tunable metering settings. Thresholds are
// notification levels in percent, checked highest first; a level fires at
// most once per (user, metric, cycle).
type MeteringConfig struct {
	Thresholds      []int         `mapstructure:"thresholds"`
	NearLimitRatio  float64       `mapstructure:"nearLimitRatio"`
	RetentionMonths int           `mapstructure:"retentionMonths"`
	SweepInterval   time.Duration `mapstructure:"sweepInterval"`
	SweepBatchSize  int           `mapstructure:"sweepBatchSize"`
}

func DefaultMeteringConfig() MeteringConfig {
	return MeteringConfig{
		Thresholds:      []int{75, 90, 100},
		NearLimitRatio:  0.9,
		RetentionMonths: 12,
		SweepInterval:   time.Hour,
		SweepBatchSize:  500,
	}
}

// MeteringConfigHolder keeps the current config behind an atomic.Value so
// hot reloads never race readers.
type MeteringConfigHolder struct {
	current atomic.Value // holds MeteringConfig
}

// NewMeteringConfigHolder loads metering.yml and watches it for changes.
// A missing file is not an error; defaults apply.
func NewMeteringConfigHolder() (*MeteringConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("metering")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/quill/config")
	v.AddConfigPath("/etc/quill")
	v.AddConfigPath(".")

	v.SetEnvPrefix("QUILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultMeteringConfig()
	v.SetDefault("metering.thresholds", defaults.Thresholds)
	v.SetDefault("metering.nearLimitRatio", defaults.NearLimitRatio)
	v.SetDefault("metering.retentionMonths", defaults.RetentionMonths)
	v.SetDefault("metering.sweepInterval", defaults.SweepInterval)
	v.SetDefault("metering.sweepBatchSize", defaults.SweepBatchSize)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg MeteringConfig
	if err := v.UnmarshalKey("metering", &cfg); err != nil {
		return nil, err
	}
	if err := validateMeteringConfig(cfg); err != nil {
		return nil, err
	}

	holder := &MeteringConfigHolder{}
	holder.current.Store(normalizeMeteringConfig(cfg))

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated MeteringConfig
		if err := v.UnmarshalKey("metering", &updated); err != nil {
			log.Printf("[metering-config] reload failed: %v", err)
			return
		}
		if err := validateMeteringConfig(updated); err != nil {
			log.Printf("[metering-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(normalizeMeteringConfig(updated))
		log.Printf("[metering-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticMeteringConfigHolder wraps a fixed config, used by tests.
func NewStaticMeteringConfigHolder(cfg MeteringConfig) *MeteringConfigHolder {
	holder := &MeteringConfigHolder{}
	holder.current.Store(normalizeMeteringConfig(cfg))
	return holder
}

func (h *MeteringConfigHolder) Get() MeteringConfig {
	return h.current.Load().(MeteringConfig)
}

func validateMeteringConfig(cfg MeteringConfig) error {
	if len(cfg.Thresholds) == 0 {
		return errors.New("metering.thresholds cannot be empty")
	}
	for _, level := range cfg.Thresholds {
		if level <= 0 || level > 100 {
			return errors.New("metering.thresholds must be within (0, 100]")
		}
	}
	if cfg.NearLimitRatio <= 0 || cfg.NearLimitRatio > 1 {
		return errors.New("metering.nearLimitRatio must be within (0, 1]")
	}
	if cfg.RetentionMonths < 1 {
		return errors.New("metering.retentionMonths must be at least 1")
	}
	return nil
}

// normalizeMeteringConfig sorts thresholds descending so evaluation can
// report the highest newly-crossed level first.
func normalizeMeteringConfig(cfg MeteringConfig) MeteringConfig {
	defaults := DefaultMeteringConfig()
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaults.SweepBatchSize
	}
	levels := make([]int, len(cfg.Thresholds))
	copy(levels, cfg.Thresholds)
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))
	cfg.Thresholds = levels
	return cfg
}

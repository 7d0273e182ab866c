// control/settings.go
// Author: momentics <momentics@gmail.com>
//
// YAML settings document for the scheduler and its collaborators.

package control

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	yaml "go.yaml.in/yaml/v3"

	"github.com/momentics/hioload-exec/core/concurrency"
	"github.com/momentics/hioload-exec/internal/logx"
)

const (
	defaultCacheTTL        = 5 * time.Minute
	defaultCacheMaxEntries = 1000
	defaultSchedule        = "@every 1m"
)

// Settings is the on-disk configuration.
type Settings struct {
	Executor    ExecutorSettings    `yaml:"executor"`
	Memory      MemorySettings      `yaml:"memory"`
	Cache       CacheSettings       `yaml:"cache"`
	Log         LogSettings         `yaml:"log"`
	Maintenance MaintenanceSettings `yaml:"maintenance"`
}

type ExecutorSettings struct {
	Workers       int    `yaml:"workers"`        // 0 means one per CPU
	QueueCapacity int    `yaml:"queue_capacity"` // 0 means default
	WorkStealing  *bool  `yaml:"work_stealing"`  // unset means enabled
	PinWorkers    bool   `yaml:"pin_workers"`
	MaxIdleSleep  string `yaml:"max_idle_sleep"`
}

type MemorySettings struct {
	Blocks    int `yaml:"blocks"`
	BlockSize int `yaml:"block_size"`
}

type CacheSettings struct {
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

type LogSettings struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type MaintenanceSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec, descriptors like "@every 30s" allowed
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() *Settings {
	return &Settings{
		Cache: CacheSettings{
			TTL:        defaultCacheTTL.String(),
			MaxEntries: defaultCacheMaxEntries,
		},
		Log: LogSettings{Level: "info"},
		Maintenance: MaintenanceSettings{
			Enabled:  true,
			Schedule: defaultSchedule,
		},
	}
}

// ParseSettings decodes YAML on top of DefaultSettings. Unknown keys are
// rejected. Empty input yields the defaults.
func ParseSettings(data []byte) (*Settings, error) {
	s := DefaultSettings()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadSettings reads and validates a settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return ParseSettings(data)
}

// SaveSettings writes s to path atomically (temp file + rename).
func SaveSettings(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("settings: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Validate reports every invalid field.
func (s *Settings) Validate() error {
	var errs []error
	if s.Executor.Workers < 0 {
		errs = append(errs, fmt.Errorf("executor.workers: must be >= 0"))
	}
	if s.Executor.QueueCapacity < 0 {
		errs = append(errs, fmt.Errorf("executor.queue_capacity: must be >= 0"))
	}
	if _, err := ParseDurationField("executor.max_idle_sleep", s.Executor.MaxIdleSleep); err != nil {
		errs = append(errs, err)
	}
	if s.Memory.Blocks < 0 || s.Memory.BlockSize < 0 {
		errs = append(errs, fmt.Errorf("memory: blocks and block_size must be >= 0"))
	}
	if _, err := ParseDurationField("cache.ttl", s.Cache.TTL); err != nil {
		errs = append(errs, err)
	}
	if s.Cache.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.max_entries: must be >= 0"))
	}
	if lv := strings.TrimSpace(s.Log.Level); lv != "" && !logx.ValidLevel(lv) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", s.Log.Level))
	}
	if s.Maintenance.Enabled {
		if _, err := cron.ParseStandard(s.MaintenanceSchedule()); err != nil {
			errs = append(errs, fmt.Errorf("maintenance.schedule: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("settings: %w", errors.Join(errs...))
	}
	return nil
}

// ExecutorConfig maps the executor section onto a concurrency.Config.
func (s *Settings) ExecutorConfig(log logx.Logger) concurrency.Config {
	cfg := concurrency.DefaultConfig()
	if s.Executor.Workers > 0 {
		cfg.NumWorkers = s.Executor.Workers
	}
	if s.Executor.QueueCapacity > 0 {
		cfg.QueueCapacity = s.Executor.QueueCapacity
	}
	if s.Executor.WorkStealing != nil {
		cfg.EnableWorkStealing = *s.Executor.WorkStealing
	}
	cfg.PinWorkers = s.Executor.PinWorkers
	cfg.MaxIdleSleep, _ = ParseDurationOrDefault("executor.max_idle_sleep", s.Executor.MaxIdleSleep, cfg.MaxIdleSleep)
	cfg.Logger = log
	return cfg
}

// CacheTTL returns the cache TTL; an empty value means the default.
func (s *Settings) CacheTTL() time.Duration {
	d, err := ParseDurationOrDefault("cache.ttl", s.Cache.TTL, defaultCacheTTL)
	if err != nil {
		return defaultCacheTTL
	}
	return d
}

// MaintenanceSchedule returns the cron spec, falling back to the default.
func (s *Settings) MaintenanceSchedule() string {
	if spec := strings.TrimSpace(s.Maintenance.Schedule); spec != "" {
		return spec
	}
	return defaultSchedule
}

// Clone returns a deep copy.
func (s *Settings) Clone() *Settings {
	cp := *s
	if s.Executor.WorkStealing != nil {
		v := *s.Executor.WorkStealing
		cp.Executor.WorkStealing = &v
	}
	return &cp
}

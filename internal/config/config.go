package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/autoed/companion/internal/automation"
	"github.com/autoed/companion/internal/navigation"
	"github.com/autoed/companion/internal/velocity"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "auto-ed.cfg.json"

// ErrInvalidSmoothingWindow is reported when navigation.smoothingWindowSeconds is below 1.
var ErrInvalidSmoothingWindow = errors.New("smoothing window must be at least 1 second")

// MemoryConfig holds JSON file storage backend settings
type MemoryConfig struct {
	WaypointFile string `json:"waypointFile" mapstructure:"waypointFile"`
	OutputDir    string `json:"outputDir" mapstructure:"outputDir"`
	HistorySize  int    `json:"historySize" mapstructure:"historySize"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path          string        `json:"path" mapstructure:"path"`
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
	QueueLimit    int           `json:"queueLimit" mapstructure:"queueLimit"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig configures the OpenTelemetry log provider
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig configures the optional telemetry sink
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// GraylogConfig configures GELF log shipping
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// ActuatorConfig selects how actions reach the game
type ActuatorConfig struct {
	Type     string            `json:"type" mapstructure:"type"`
	Command  string            `json:"command" mapstructure:"command"`
	Args     []string          `json:"args" mapstructure:"args"`
	Modifier string            `json:"modifier" mapstructure:"modifier"`
	Keys     map[string]string `json:"keys" mapstructure:"keys"`
	Timeout  time.Duration     `json:"timeout" mapstructure:"timeout"`
}

// FocusConfig selects how window focus is detected
type FocusConfig struct {
	Type    string   `json:"type" mapstructure:"type"`
	Command string   `json:"command" mapstructure:"command"`
	Args    []string `json:"args" mapstructure:"args"`
}

// MonitorConfig configures the frame loop and status report
type MonitorConfig struct {
	FrameInterval  time.Duration
	ReportInterval time.Duration
	StatusFile     string
}

// NavigationConfig holds the navigation and waypoint list settings
type NavigationConfig struct {
	SmoothingWindowSeconds int
	FilterCurrentPlanet    bool
	GroupByPlanet          bool
	FuzzyRatio             int
	Target                 string
}

// WatcherConfig holds the status file delivery options
type WatcherConfig struct {
	IgnoreEmptyFileReads bool
	IgnoreDuplicateReads bool
	Buffer               int
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// LoadOrCreate behaves like Load but writes a default config file when none exists.
func LoadOrCreate(configDir string) error {
	err := Load(configDir)
	var notFound viper.ConfigFileNotFoundError
	if err == nil || !errors.As(err, &notFound) {
		return err
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := viper.SafeWriteConfigAs(filepath.Join(configDir, FileName)); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return Load(configDir)
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./autoedlogs")
	viper.SetDefault("journalDir", DefaultJournalDir())
	viper.SetDefault("statusFile", "Status.json")

	d := automation.DefaultConfig()
	viper.SetDefault("automation.active", d.Active)
	viper.SetDefault("automation.autoFlightAssist", d.AutoFlightAssist)
	viper.SetDefault("automation.autoDriveAssist", d.AutoDriveAssist)
	viper.SetDefault("automation.autoGear", d.AutoGear)
	viper.SetDefault("automation.autoLights", d.AutoLights)
	viper.SetDefault("automation.autoNightVision", d.AutoNightVision)
	viper.SetDefault("automation.focusSettleDelayMs", d.FocusSettleDelay.Milliseconds())

	viper.SetDefault("navigation.smoothingWindowSeconds", 10)
	viper.SetDefault("navigation.filterCurrentPlanet", true)
	viper.SetDefault("navigation.groupByPlanet", true)
	viper.SetDefault("navigation.fuzzyRatio", navigation.DefaultFuzzyRatio)
	viper.SetDefault("navigation.target", "")

	viper.SetDefault("watcher.ignoreEmptyFileReads", true)
	viper.SetDefault("watcher.ignoreDuplicateReads", false)
	viper.SetDefault("watcher.buffer", 16)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.waypointFile", "./data/waypoints.json")
	viper.SetDefault("storage.memory.outputDir", "")
	viper.SetDefault("storage.memory.historySize", 1000)
	viper.SetDefault("storage.sqlite.path", "./data/auto-ed.db")
	viper.SetDefault("storage.sqlite.flushInterval", "5s")
	viper.SetDefault("storage.sqlite.queueLimit", 10000)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "auto-ed")
	viper.SetDefault("influx.bucket", "auto-ed")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "auto-ed")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("actuator.type", "log")
	viper.SetDefault("actuator.command", "")
	viper.SetDefault("actuator.args", []string{})
	viper.SetDefault("actuator.modifier", "RSHIFT")
	viper.SetDefault("actuator.keys", map[string]string{})
	viper.SetDefault("actuator.timeout", "2s")

	viper.SetDefault("focus.type", "static")
	viper.SetDefault("focus.command", "")
	viper.SetDefault("focus.args", []string{})

	viper.SetDefault("monitor.frameIntervalMs", 16)
	viper.SetDefault("monitor.reportIntervalMs", 1000)
	viper.SetDefault("monitor.statusFile", "./data/status.txt")
}

// DefaultJournalDir is where the game writes Status.json for the current user.
func DefaultJournalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "Saved Games", "Frontier Developments", "Elite Dangerous")
	}
	// Proton prefix layout used by the Steam release on Linux.
	return filepath.Join(home, ".local", "share", "Steam", "steamapps", "compatdata", "359320",
		"pfx", "drive_c", "users", "steamuser", "Saved Games", "Frontier Developments", "Elite Dangerous")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetAutomationConfig returns the rule switches and focus settle delay.
func GetAutomationConfig() automation.Config {
	return automation.Config{
		Active:           viper.GetBool("automation.active"),
		AutoFlightAssist: viper.GetBool("automation.autoFlightAssist"),
		AutoDriveAssist:  viper.GetBool("automation.autoDriveAssist"),
		AutoGear:         viper.GetBool("automation.autoGear"),
		AutoLights:       viper.GetBool("automation.autoLights"),
		AutoNightVision:  viper.GetBool("automation.autoNightVision"),
		FocusSettleDelay: time.Duration(viper.GetInt64("automation.focusSettleDelayMs")) * time.Millisecond,
	}
}

// GetNavigationConfig returns navigation settings. A smoothing window below
// one second is clamped and ErrInvalidSmoothingWindow is returned with the
// clamped config so the caller can warn.
func GetNavigationConfig() (NavigationConfig, error) {
	cfg := NavigationConfig{
		SmoothingWindowSeconds: viper.GetInt("navigation.smoothingWindowSeconds"),
		FilterCurrentPlanet:    viper.GetBool("navigation.filterCurrentPlanet"),
		GroupByPlanet:          viper.GetBool("navigation.groupByPlanet"),
		FuzzyRatio:             viper.GetInt("navigation.fuzzyRatio"),
		Target:                 viper.GetString("navigation.target"),
	}
	if cfg.SmoothingWindowSeconds < velocity.MinWindowSeconds {
		got := cfg.SmoothingWindowSeconds
		cfg.SmoothingWindowSeconds = velocity.MinWindowSeconds
		return cfg, fmt.Errorf("%w: got %d", ErrInvalidSmoothingWindow, got)
	}
	return cfg, nil
}

// GetWatcherConfig returns the status file delivery options.
func GetWatcherConfig() WatcherConfig {
	return WatcherConfig{
		IgnoreEmptyFileReads: viper.GetBool("watcher.ignoreEmptyFileReads"),
		IgnoreDuplicateReads: viper.GetBool("watcher.ignoreDuplicateReads"),
		Buffer:               viper.GetInt("watcher.buffer"),
	}
}

// GetStorageConfig returns the storage backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			WaypointFile: viper.GetString("storage.memory.waypointFile"),
			OutputDir:    viper.GetString("storage.memory.outputDir"),
			HistorySize:  viper.GetInt("storage.memory.historySize"),
		},
		SQLite: SQLiteConfig{
			Path:          viper.GetString("storage.sqlite.path"),
			FlushInterval: viper.GetDuration("storage.sqlite.flushInterval"),
			QueueLimit:    viper.GetInt("storage.sqlite.queueLimit"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the InfluxDB configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the GELF output configuration.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetActuatorConfig returns the actuator configuration.
func GetActuatorConfig() ActuatorConfig {
	return ActuatorConfig{
		Type:     viper.GetString("actuator.type"),
		Command:  viper.GetString("actuator.command"),
		Args:     viper.GetStringSlice("actuator.args"),
		Modifier: viper.GetString("actuator.modifier"),
		Keys:     viper.GetStringMapString("actuator.keys"),
		Timeout:  viper.GetDuration("actuator.timeout"),
	}
}

// GetFocusConfig returns the focus probe configuration.
func GetFocusConfig() FocusConfig {
	return FocusConfig{
		Type:    viper.GetString("focus.type"),
		Command: viper.GetString("focus.command"),
		Args:    viper.GetStringSlice("focus.args"),
	}
}

// GetMonitorConfig returns the frame loop settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		FrameInterval:  time.Duration(viper.GetInt("monitor.frameIntervalMs")) * time.Millisecond,
		ReportInterval: time.Duration(viper.GetInt("monitor.reportIntervalMs")) * time.Millisecond,
		StatusFile:     viper.GetString("monitor.statusFile"),
	}
}

// StatusFilePath is the full path of the game's status file.
func StatusFilePath() string {
	return filepath.Join(viper.GetString("journalDir"), viper.GetString("statusFile"))
}

// SetTarget persists the targeted waypoint id to the config file.
func SetTarget(id string) error {
	viper.Set("navigation.target", id)
	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("saving target: %w", err)
	}
	return nil
}

// Live holds the settings that may change while running.
type Live struct {
	Automation automation.Config
	Navigation NavigationConfig
}

var (
	liveMu sync.RWMutex
	live   Live
)

// Current returns the live settings.
func Current() Live {
	liveMu.RLock()
	defer liveMu.RUnlock()
	return live
}

// Refresh re-reads the live settings from viper, logging a clamped smoothing window.
func Refresh(logger *slog.Logger) Live {
	nav, err := GetNavigationConfig()
	if err != nil && logger != nil {
		logger.Warn("navigation config clamped", "error", err, "smoothingWindowSeconds", nav.SmoothingWindowSeconds)
	}
	l := Live{Automation: GetAutomationConfig(), Navigation: nav}

	liveMu.Lock()
	live = l
	liveMu.Unlock()
	return l
}

// Watch refreshes the live settings whenever the config file changes and
// then calls onChange, if set.
func Watch(logger *slog.Logger, onChange func(Live)) {
	Refresh(logger)
	viper.OnConfigChange(func(e fsnotify.Event) {
		l := Refresh(logger)
		if logger != nil {
			logger.Info("config reloaded", "file", e.Name)
		}
		if onChange != nil {
			onChange(l)
		}
	})
	viper.WatchConfig()
}

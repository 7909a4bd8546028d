package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(contents), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"journalDir": "/games/ed",
		"automation": { "autoLights": true }
	}`)

	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "/games/ed", viper.GetString("journalDir"))
	assert.Equal(t, filepath.Join("/games/ed", "Status.json"), StatusFilePath())
	assert.True(t, GetAutomationConfig().AutoLights)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./autoedlogs", viper.GetString("logsDir"))
	assert.Equal(t, "Status.json", viper.GetString("statusFile"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "log", viper.GetString("actuator.type"))
	assert.Equal(t, "static", viper.GetString("focus.type"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadOrCreate_WritesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := filepath.Join(t.TempDir(), "cfg")
	require.NoError(t, LoadOrCreate(dir))

	_, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.True(t, GetAutomationConfig().Active)
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	viper.Set("testInt", 42)
	viper.Set("testBool", true)

	assert.Equal(t, "testValue", GetString("testKey"))
	assert.Equal(t, 42, GetInt("testInt"))
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetAutomationConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetAutomationConfig()
	assert.True(t, cfg.Active)
	assert.True(t, cfg.AutoFlightAssist)
	assert.True(t, cfg.AutoDriveAssist)
	assert.True(t, cfg.AutoGear)
	assert.False(t, cfg.AutoLights)
	assert.False(t, cfg.AutoNightVision)
	assert.Equal(t, 50*time.Millisecond, cfg.FocusSettleDelay)
}

func TestGetNavigationConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg, err := GetNavigationConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.SmoothingWindowSeconds)
	assert.True(t, cfg.FilterCurrentPlanet)
	assert.True(t, cfg.GroupByPlanet)
	assert.Equal(t, 70, cfg.FuzzyRatio)
	assert.Empty(t, cfg.Target)
}

func TestGetNavigationConfig_ClampsWindow(t *testing.T) {
	t.Cleanup(viper.Reset)

	for _, v := range []int{0, -5} {
		viper.Set("navigation.smoothingWindowSeconds", v)
		cfg, err := GetNavigationConfig()
		assert.ErrorIs(t, err, ErrInvalidSmoothingWindow)
		assert.Equal(t, 1, cfg.SmoothingWindowSeconds)
	}
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./data/waypoints.json", cfg.Memory.WaypointFile)
	assert.Equal(t, 1000, cfg.Memory.HistorySize)
	assert.Equal(t, "./data/auto-ed.db", cfg.SQLite.Path)
	assert.Equal(t, 5*time.Second, cfg.SQLite.FlushInterval)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "waypointFile": "/tmp/wp.json" },
			"sqlite": { "path": "/tmp/x.db", "flushInterval": "10m", "queueLimit": 5 }
		}
	}`)
	require.NoError(t, Load(dir))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/wp.json", sc.Memory.WaypointFile)
	assert.Equal(t, "/tmp/x.db", sc.SQLite.Path)
	assert.Equal(t, 10*time.Minute, sc.SQLite.FlushInterval)
	assert.Equal(t, 5, sc.SQLite.QueueLimit)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "auto-ed", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetActuatorConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"actuator": {
			"type": "exec",
			"command": "xdotool",
			"args": ["key", "{key}"],
			"keys": { "gear-toggle": "l" }
		}
	}`)
	require.NoError(t, Load(dir))

	ac := GetActuatorConfig()
	assert.Equal(t, "exec", ac.Type)
	assert.Equal(t, "xdotool", ac.Command)
	assert.Equal(t, []string{"key", "{key}"}, ac.Args)
	assert.Equal(t, "l", ac.Keys["gear-toggle"])
	assert.Equal(t, "RSHIFT", ac.Modifier)
	assert.Equal(t, 2*time.Second, ac.Timeout)
}

func TestGetMonitorConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	mc := GetMonitorConfig()
	assert.Equal(t, 16*time.Millisecond, mc.FrameInterval)
	assert.Equal(t, time.Second, mc.ReportInterval)
}

func TestRefresh(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"automation": {"active": false}}`)))

	l := Refresh(nil)
	assert.False(t, l.Automation.Active)
	assert.Equal(t, l, Current())
}

func TestSetTarget(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := writeConfig(t, `{}`)
	require.NoError(t, Load(dir))

	require.NoError(t, SetTarget("abc"))

	viper.Reset()
	require.NoError(t, Load(dir))
	cfg, _ := GetNavigationConfig()
	assert.Equal(t, "abc", cfg.Target)
}

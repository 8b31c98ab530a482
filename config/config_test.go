package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 72, cfg.Commercial.DefaultReserveHours)
	assert.Equal(t, []string{"A"}, cfg.Commercial.ReservableTiers)
	assert.Equal(t, "v1", cfg.Telemetry.EventVersion)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 30, cfg.Stub.DuplicateWindowDays)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("IEI_API_BASE_URL", "https://api.example.test")
	t.Setenv("IEI_RESERVABLE_TIERS", "A,B")
	t.Setenv("IEI_RESERVE_HOURS", "48")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.test", cfg.API.BaseURL)
	assert.Equal(t, []string{"A", "B"}, cfg.Commercial.ReservableTiers)
	assert.Equal(t, 48, cfg.Commercial.DefaultReserveHours)
}

func TestLoadConfig_InvalidInt(t *testing.T) {
	t.Setenv("IEI_RESERVE_HOURS", "many")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{}
	cfg.Log.Level = "debug"
	cfg.Log.Format = "text"

	logger := NewLogger(cfg)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	cfg.Log.Level = "loud"
	cfg.Log.Format = "json"
	logger = NewLogger(cfg)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestGetZoneByKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{name: "exact", key: "gava", expected: "gava"},
		{name: "padded upper case", key: "  Sitges ", expected: "sitges"},
		{name: "unknown", key: "centro", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zone := GetZoneByKey(DefaultZones, tt.key)
			if tt.expected == "" {
				assert.Nil(t, zone)
				return
			}
			require.NotNil(t, zone)
			assert.Equal(t, tt.expected, zone.ZoneKey)
		})
	}
}

func TestGetZoneKeys(t *testing.T) {
	assert.Equal(t, []string{"castelldefels", "gava", "sitges"}, GetZoneKeys(DefaultZones))
}

func TestLoadZoneSeed_Defaults(t *testing.T) {
	seed, err := LoadZoneSeed("")
	require.NoError(t, err)
	assert.Len(t, seed.Zones, len(DefaultZones))
	assert.Len(t, seed.Agencies, len(DefaultAgencies))

	// the defaults must not be aliased
	seed.Zones[0].BasePerM2 = 1
	assert.Equal(t, float64(3350), DefaultZones[0].BasePerM2)
}

func TestZoneSeed_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.json")
	seed := &ZoneSeed{
		Zones: []models.Zone{
			{ID: "z1", ZoneKey: " Centro ", Municipality: "Barcelona", BasePerM2: 5200, DemandLevel: models.DemandHigh, IsActive: true},
		},
		Agencies: []models.Agency{{ID: "AG1", Name: "Agencia Uno", IsActive: true}},
	}
	require.NoError(t, SaveZoneSeed(path, seed))

	loaded, err := LoadZoneSeed(path)
	require.NoError(t, err)
	require.Len(t, loaded.Zones, 1)
	assert.Equal(t, "centro", loaded.Zones[0].ZoneKey)
	assert.Equal(t, "AG1", loaded.Agencies[0].ID)
}

func TestLoadZoneSeed_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadZoneSeed(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadZoneSeed(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"zones":[{"zone_key":"  "}]}`), 0644))
	_, err = LoadZoneSeed(empty)
	assert.Error(t, err)
}

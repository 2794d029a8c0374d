package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

func setCameraEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CAMERA_IP", "192.168.1.50")
	t.Setenv("USERBOT", "admin")
	t.Setenv("PASSWORD", "secret")
	t.Setenv("PORT", "")
	t.Setenv("TOKEN", "")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reocamara.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	setCameraEnv(t)

	cfg, err := Load("", false)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.50", cfg.Camera.Host)
	assert.Equal(t, "admin", cfg.Camera.User)
	assert.Equal(t, "secret", cfg.Camera.Password)
	assert.Equal(t, 554, cfg.Camera.RTSPPort)
	assert.Equal(t, "http://192.168.1.50", cfg.Camera.ControlURL())
	assert.Equal(t, "https://192.168.1.50", cfg.Camera.SnapshotURL())
	assert.Equal(t, 5*time.Minute, cfg.Camera.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.Route.Settle)
	assert.Equal(t, 10*time.Second, cfg.Capture.ClipDuration)
	assert.Equal(t, 30*time.Second, cfg.Delivery.Lifetime)
	assert.Equal(t, RuntimeExec, cfg.Capture.Runtime)
	assert.False(t, cfg.Artifacts.RetainVideos)

	require.Len(t, cfg.Routes, 2)
	assert.Equal(t, "getSalseo", cfg.Routes[0].Name)
	assert.Equal(t, []int{0, 1, 0}, cfg.Routes[0].Presets)
	assert.Equal(t, "getNevera", cfg.Routes[1].Name)
	assert.Equal(t, []int{0, 2, 0}, cfg.Routes[1].Presets)
}

func TestLoadLegacyEnvironment(t *testing.T) {
	setCameraEnv(t)
	t.Setenv("PORT", "8554")
	t.Setenv("TOKEN", "123:abc")

	cfg, err := Load("", true)
	require.NoError(t, err)

	assert.Equal(t, 8554, cfg.Camera.RTSPPort)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
}

func TestLoadRequiresBotTokenForServe(t *testing.T) {
	setCameraEnv(t)

	_, err := Load("", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot.token")
}

func TestLoadRequiresCamera(t *testing.T) {
	setCameraEnv(t)
	t.Setenv("CAMERA_IP", "")

	_, err := Load("", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CAMERA_IP")
}

func TestLoadConfigFile(t *testing.T) {
	setCameraEnv(t)
	path := writeConfig(t, `
route:
  settle: 2s
capture:
  runtime: docker
artifacts:
  retain-videos: true
routes:
  - name: getPuerta
    presets: [3, 4]
  - name: getSalon
    description: Recorre el salón.
    presets: [0, 5, 0]
`)

	cfg, err := Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Route.Settle)
	assert.Equal(t, RuntimeDocker, cfg.Capture.Runtime)
	assert.True(t, cfg.Artifacts.RetainVideos)

	require.Len(t, cfg.Routes, 2)
	assert.Equal(t, "getPuerta", cfg.Routes[0].Name)
	assert.Equal(t, []int{3, 4}, cfg.Routes[0].Presets)
	assert.Equal(t, "Inicia la ruta 'getPuerta' y graba un video.", cfg.Routes[0].Description)
	assert.Equal(t, "Recorre el salón.", cfg.Routes[1].Description)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	setCameraEnv(t)
	t.Setenv("REOCAMARA_DELIVERY_LIFETIME", "45s")
	path := writeConfig(t, "delivery:\n  lifetime: 10s\n")

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Delivery.Lifetime)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	setCameraEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	assert.Error(t, err)
}

func TestValidateRejectsBadRoutes(t *testing.T) {
	base := func() *Config {
		return &Config{
			Route:    RouteConfig{Settle: time.Second},
			Capture:  CaptureConfig{Runtime: RuntimeExec, ClipDuration: time.Second},
			Delivery: DeliveryConfig{Lifetime: time.Second},
		}
	}

	cfg := base()
	assert.Error(t, cfg.Validate(), "no routes")

	cfg = base()
	cfg.Routes = append(cfg.Routes, routeOf("a", 1), routeOf("A", 2))
	assert.Error(t, cfg.Validate(), "duplicate names ignore case")

	cfg = base()
	cfg.Routes = append(cfg.Routes, routeOf("a"))
	assert.Error(t, cfg.Validate(), "empty presets")

	cfg = base()
	cfg.Routes = append(cfg.Routes, routeOf("a", -1))
	assert.Error(t, cfg.Validate(), "negative preset")

	cfg = base()
	cfg.Routes = append(cfg.Routes, routeOf("a", 0))
	cfg.Capture.Runtime = "podman"
	assert.Error(t, cfg.Validate(), "unknown runtime")
}

func routeOf(name string, presets ...int) models.Route {
	return models.Route{Name: name, Presets: presets}
}

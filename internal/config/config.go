// Package config loads the relay's settings from .env, an optional config file and
// the environment. Environment variables take precedence over the config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/viper"

	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

var log = logging.MustGetLogger("config")

// Capture runtimes
const (
	RuntimeExec   = "exec"
	RuntimeDocker = "docker"
)

// Config represents the application's configuration structure
type Config struct {
	Camera    CameraConfig    `mapstructure:"camera"`
	Bot       BotConfig       `mapstructure:"bot"`
	Route     RouteConfig     `mapstructure:"route"`
	Routes    []models.Route  `mapstructure:"routes"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Server    ServerConfig    `mapstructure:"server"`
	LogLevel  string          `mapstructure:"log-level"`
}

type CameraConfig struct {
	Host           string        `mapstructure:"host"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	RTSPPort       int           `mapstructure:"rtsp-port"`
	ControlScheme  string        `mapstructure:"control-scheme"`
	SnapshotScheme string        `mapstructure:"snapshot-scheme"`
	InsecureTLS    bool          `mapstructure:"insecure-tls"`
	Timeout        time.Duration `mapstructure:"timeout"`
	TokenTTL       time.Duration `mapstructure:"token-ttl"`
	Speed          int           `mapstructure:"speed"`
}

// ControlURL is the base URL of the camera's command API
func (c CameraConfig) ControlURL() string {
	return c.ControlScheme + "://" + c.Host
}

// SnapshotURL is the base URL of the camera's snapshot endpoint
func (c CameraConfig) SnapshotURL() string {
	return c.SnapshotScheme + "://" + c.Host
}

type BotConfig struct {
	Token       string `mapstructure:"token"`
	PollTimeout int    `mapstructure:"poll-timeout"`
	Debug       bool   `mapstructure:"debug"`
	RateLimit   int    `mapstructure:"rate-limit"` // commands per hour per chat, 0 disables
	RateBurst   int    `mapstructure:"rate-burst"`
}

type RouteConfig struct {
	Settle        time.Duration `mapstructure:"settle"`
	MaxConcurrent int64         `mapstructure:"max-concurrent"`
}

type CaptureConfig struct {
	Runtime      string        `mapstructure:"runtime"`
	FFmpeg       string        `mapstructure:"ffmpeg"`
	Image        string        `mapstructure:"image"`
	ClipDuration time.Duration `mapstructure:"clip-duration"`
}

type DeliveryConfig struct {
	Lifetime time.Duration `mapstructure:"lifetime"`
}

type ArtifactsConfig struct {
	Dir             string        `mapstructure:"dir"`
	RetainVideos    bool          `mapstructure:"retain-videos"`
	JanitorInterval time.Duration `mapstructure:"janitor-interval"`
	MaxAge          time.Duration `mapstructure:"max-age"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the status API
}

// envBindings keeps the variable names the bot has always been deployed with
var envBindings = map[string]string{
	"camera.host":      "CAMERA_IP",
	"camera.user":      "USERBOT",
	"camera.password":  "PASSWORD",
	"camera.rtsp-port": "PORT",
	"bot.token":        "TOKEN",
}

// field: default value
var optionalFields = map[string]interface{}{
	"camera.rtsp-port":       554,
	"camera.control-scheme":  "http",
	"camera.snapshot-scheme": "https",
	"camera.insecure-tls":    true,
	"camera.timeout":         "10s",
	"camera.token-ttl":       "5m",
	"camera.speed":           1,

	"bot.poll-timeout": 30,
	"bot.debug":        false,
	"bot.rate-limit":   60,
	"bot.rate-burst":   5,

	"route.settle":         "5s",
	"route.max-concurrent": 1,

	"capture.runtime":       RuntimeExec,
	"capture.ffmpeg":        "ffmpeg",
	"capture.image":         "jrottenberg/ffmpeg:6.1-ubuntu",
	"capture.clip-duration": "10s",

	"delivery.lifetime": "30s",

	"artifacts.dir":              "./storage/artifacts",
	"artifacts.retain-videos":    false,
	"artifacts.janitor-interval": "10m",
	"artifacts.max-age":          "1h",

	"server.addr": ":8080",
	"log-level":   "INFO",
}

var requiredFields = []string{
	"camera.host",
	"camera.user",
	"camera.password",
}

// DefaultRoutes are used when the config file defines none
var DefaultRoutes = []map[string]interface{}{
	{
		"name":        "getSalseo",
		"description": "Inicia una ruta predefinida llamada 'salseo' y graba un video.",
		"presets":     []int{0, 1, 0},
	},
	{
		"name":        "getNevera",
		"description": "Inicia una ruta predefinida llamada 'nevera' y graba un video.",
		"presets":     []int{0, 2, 0},
	},
}

// Load reads the configuration. path may be empty, in which case reocamara.yaml
// is looked up in the working directory and skipped when absent. requireBot
// makes the bot token mandatory.
func Load(path string, requireBot bool) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file found, using system environment variables")
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("reocamara")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("REOCAMARA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", env, err)
		}
	}

	for field, defaultValue := range optionalFields {
		v.SetDefault(field, defaultValue)
	}
	v.SetDefault("routes", DefaultRoutes)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	} else {
		log.Infof("Using config file %s", v.ConfigFileUsed())
	}

	required := requiredFields
	if requireBot {
		required = append(required, "bot.token")
	}
	for _, field := range required {
		if v.GetString(field) == "" {
			return nil, fmt.Errorf("missing required config field: %s (env %s)", field, envBindings[field])
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed as defaults
func (c *Config) Validate() error {
	if len(c.Routes) == 0 {
		return fmt.Errorf("no routes configured")
	}

	seen := make(map[string]bool, len(c.Routes))
	for i := range c.Routes {
		r := &c.Routes[i]
		if r.Name == "" {
			return fmt.Errorf("route %d has no name", i)
		}
		key := strings.ToLower(r.Name)
		if seen[key] {
			return fmt.Errorf("duplicate route %q", r.Name)
		}
		seen[key] = true

		if len(r.Presets) == 0 {
			return fmt.Errorf("route %q has no presets", r.Name)
		}
		for _, p := range r.Presets {
			if p < 0 {
				return fmt.Errorf("route %q has negative preset %d", r.Name, p)
			}
		}
		if r.Description == "" {
			r.Description = fmt.Sprintf("Inicia la ruta '%s' y graba un video.", r.Name)
		}
	}

	switch c.Capture.Runtime {
	case RuntimeExec, RuntimeDocker:
	default:
		return fmt.Errorf("unknown capture runtime %q", c.Capture.Runtime)
	}

	if c.Route.Settle <= 0 {
		return fmt.Errorf("route.settle must be positive")
	}
	if c.Delivery.Lifetime <= 0 {
		return fmt.Errorf("delivery.lifetime must be positive")
	}
	if c.Capture.ClipDuration <= 0 {
		return fmt.Errorf("capture.clip-duration must be positive")
	}
	return nil
}

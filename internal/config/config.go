package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Geolocation modes.
const (
	GeolocationReported = "reported"
	GeolocationFixed    = "fixed"
	GeolocationHTTP     = "http"
)

// Config holds runtime configuration values for the client core process.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	AuthBaseURL            string
	AuthTimeout            time.Duration
	RestoreSession         bool
	VoiceRecordingDuration time.Duration
	LocationTimeout        time.Duration
	GeolocationMode        string
	GeolocationEndpoint    string
	GeolocationLatitude    float64
	GeolocationLongitude   float64
	RedisURL               string
	NATSURL                string
	EventChannelBase       string
	AuthRateLimit          int
	AuthRateWindow         time.Duration
	MaxUploadMB            int
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	LogLevel               string
}

// HTTPAddress returns the address the HTTP bridge should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SOCIUM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Socium")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("auth.timeout", "10s")
	v.SetDefault("auth.restore", true)
	v.SetDefault("voice.duration", "2s")
	v.SetDefault("location.timeout", "10s")
	v.SetDefault("geolocation.mode", GeolocationReported)
	v.SetDefault("events.channel_base", "socium:events")
	v.SetDefault("auth.rate_limit", 10)
	v.SetDefault("auth.rate_window", "1m")
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("cloudinary.folder", "socium/messages")
	v.SetDefault("log.level", "info")

	authTimeout, err := parseDuration(v, "auth.timeout", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	voiceDuration, err := parseDuration(v, "voice.duration", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	locationTimeout, err := parseDuration(v, "location.timeout", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "auth.rate_window", time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		AuthBaseURL:            v.GetString("auth.base_url"),
		AuthTimeout:            authTimeout,
		RestoreSession:         v.GetBool("auth.restore"),
		VoiceRecordingDuration: voiceDuration,
		LocationTimeout:        locationTimeout,
		GeolocationMode:        strings.ToLower(strings.TrimSpace(v.GetString("geolocation.mode"))),
		GeolocationEndpoint:    v.GetString("geolocation.endpoint"),
		GeolocationLatitude:    v.GetFloat64("geolocation.latitude"),
		GeolocationLongitude:   v.GetFloat64("geolocation.longitude"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventChannelBase:       v.GetString("events.channel_base"),
		AuthRateLimit:          v.GetInt("auth.rate_limit"),
		AuthRateWindow:         rateWindow,
		MaxUploadMB:            v.GetInt("upload.max_mb"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		LogLevel:               v.GetString("log.level"),
	}

	if strings.TrimSpace(cfg.AuthBaseURL) == "" {
		return Config{}, fmt.Errorf("auth base url must be provided")
	}

	switch cfg.GeolocationMode {
	case GeolocationReported, GeolocationFixed:
	case GeolocationHTTP:
		if strings.TrimSpace(cfg.GeolocationEndpoint) == "" {
			return Config{}, fmt.Errorf("geolocation endpoint must be provided for http mode")
		}
	default:
		return Config{}, fmt.Errorf("unknown geolocation mode %q", cfg.GeolocationMode)
	}

	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}

	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed <= 0 {
		return fallback, nil
	}

	return parsed, nil
}

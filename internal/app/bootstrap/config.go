package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for M31.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	PublicBaseURL string
	MediaRoot     string
	AuditLogPath  string

	HTTPClientTimeout time.Duration
	PublishLockTTL    time.Duration
	MaxDBConns        int32

	FacebookBaseURL     string
	FacebookPageID      string
	FacebookAccessToken string

	InstagramBaseURL         string
	InstagramUserID          string
	InstagramAccessToken     string
	InstagramPublishAttempts int
	InstagramPublishDelay    time.Duration

	LinkedInBaseURL     string
	LinkedInPersonURN   string
	LinkedInAccessToken string

	WhatsAppBaseURL         string
	WhatsAppAccessToken     string
	WhatsAppExcludeContacts []string

	TikTokBaseURL        string
	TikTokAccessToken    string
	TikTokPrivacyLevel   string
	TikTokShareAccount   string
	TikTokStatusInterval time.Duration
	TikTokStatusAttempts int

	RunwayBaseURL      string
	RunwayAPIKey       string
	RunwayModel        string
	RunwayPollInterval time.Duration
	RunwayPollAttempts int

	SoraBaseURL      string
	SoraAPIKey       string
	SoraModel        string
	SoraPollInterval time.Duration
	SoraPollAttempts int
	SoraSampleVideo  string
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Media struct {
		PublicBaseURL string `yaml:"public_base_url"`
		Root          string `yaml:"root"`
		AuditLogPath  string `yaml:"audit_log_path"`
	} `yaml:"media"`
	Destinations struct {
		Facebook struct {
			BaseURL string `yaml:"base_url"`
			PageID  string `yaml:"page_id"`
		} `yaml:"facebook"`
		Instagram struct {
			BaseURL string `yaml:"base_url"`
			UserID  string `yaml:"user_id"`
		} `yaml:"instagram"`
		LinkedIn struct {
			BaseURL   string `yaml:"base_url"`
			PersonURN string `yaml:"person_urn"`
		} `yaml:"linkedin"`
		WhatsApp struct {
			BaseURL         string   `yaml:"base_url"`
			ExcludeContacts []string `yaml:"exclude_contacts"`
		} `yaml:"whatsapp"`
		TikTok struct {
			BaseURL      string `yaml:"base_url"`
			PrivacyLevel string `yaml:"privacy_level"`
			ShareAccount string `yaml:"share_account"`
		} `yaml:"tiktok"`
	} `yaml:"destinations"`
	Generation struct {
		Runway struct {
			BaseURL string `yaml:"base_url"`
			Model   string `yaml:"model"`
		} `yaml:"runway"`
		Sora struct {
			BaseURL     string `yaml:"base_url"`
			Model       string `yaml:"model"`
			SampleVideo string `yaml:"sample_video"`
		} `yaml:"sora"`
	} `yaml:"generation"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                "M31-Publication-Service",
		HTTPPort:                 8080,
		GRPCPort:                 9090,
		PublicBaseURL:            "http://localhost:8080",
		MediaRoot:                "uploads",
		AuditLogPath:             "logs/publications.log",
		HTTPClientTimeout:        60 * time.Second,
		PublishLockTTL:           5 * time.Minute,
		MaxDBConns:               20,
		FacebookBaseURL:          "https://graph.facebook.com/v19.0",
		InstagramBaseURL:         "https://graph.facebook.com/v19.0",
		InstagramPublishAttempts: 3,
		InstagramPublishDelay:    2 * time.Second,
		LinkedInBaseURL:          "https://api.linkedin.com/v2",
		WhatsAppBaseURL:          "https://gate.whapi.cloud",
		TikTokBaseURL:            "https://open.tiktokapis.com",
		TikTokPrivacyLevel:       "SELF_ONLY",
		TikTokStatusInterval:     5 * time.Second,
		TikTokStatusAttempts:     12,
		RunwayBaseURL:            "https://api.dev.runwayml.com",
		RunwayModel:              "gen3a_turbo",
		RunwayPollInterval:       10 * time.Second,
		RunwayPollAttempts:       120,
		SoraBaseURL:              "https://api.openai.com",
		SoraModel:                "sora-1.0-turbo",
		SoraPollInterval:         10 * time.Second,
		SoraPollAttempts:         120,
		SoraSampleVideo:          "sample.mp4",
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Media.PublicBaseURL != "" {
			cfg.PublicBaseURL = f.Media.PublicBaseURL
		}
		if f.Media.Root != "" {
			cfg.MediaRoot = f.Media.Root
		}
		if f.Media.AuditLogPath != "" {
			cfg.AuditLogPath = f.Media.AuditLogPath
		}
		if f.Destinations.Facebook.BaseURL != "" {
			cfg.FacebookBaseURL = f.Destinations.Facebook.BaseURL
		}
		if f.Destinations.Facebook.PageID != "" {
			cfg.FacebookPageID = f.Destinations.Facebook.PageID
		}
		if f.Destinations.Instagram.BaseURL != "" {
			cfg.InstagramBaseURL = f.Destinations.Instagram.BaseURL
		}
		if f.Destinations.Instagram.UserID != "" {
			cfg.InstagramUserID = f.Destinations.Instagram.UserID
		}
		if f.Destinations.LinkedIn.BaseURL != "" {
			cfg.LinkedInBaseURL = f.Destinations.LinkedIn.BaseURL
		}
		if f.Destinations.LinkedIn.PersonURN != "" {
			cfg.LinkedInPersonURN = f.Destinations.LinkedIn.PersonURN
		}
		if f.Destinations.WhatsApp.BaseURL != "" {
			cfg.WhatsAppBaseURL = f.Destinations.WhatsApp.BaseURL
		}
		if len(f.Destinations.WhatsApp.ExcludeContacts) > 0 {
			cfg.WhatsAppExcludeContacts = f.Destinations.WhatsApp.ExcludeContacts
		}
		if f.Destinations.TikTok.BaseURL != "" {
			cfg.TikTokBaseURL = f.Destinations.TikTok.BaseURL
		}
		if f.Destinations.TikTok.PrivacyLevel != "" {
			cfg.TikTokPrivacyLevel = f.Destinations.TikTok.PrivacyLevel
		}
		if f.Destinations.TikTok.ShareAccount != "" {
			cfg.TikTokShareAccount = f.Destinations.TikTok.ShareAccount
		}
		if f.Generation.Runway.BaseURL != "" {
			cfg.RunwayBaseURL = f.Generation.Runway.BaseURL
		}
		if f.Generation.Runway.Model != "" {
			cfg.RunwayModel = f.Generation.Runway.Model
		}
		if f.Generation.Sora.BaseURL != "" {
			cfg.SoraBaseURL = f.Generation.Sora.BaseURL
		}
		if f.Generation.Sora.Model != "" {
			cfg.SoraModel = f.Generation.Sora.Model
		}
		if f.Generation.Sora.SampleVideo != "" {
			cfg.SoraSampleVideo = f.Generation.Sora.SampleVideo
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.PublicBaseURL = envOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.MediaRoot = envOrDefault("MEDIA_ROOT", cfg.MediaRoot)
	cfg.AuditLogPath = envOrDefault("AUDIT_LOG_PATH", cfg.AuditLogPath)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.HTTPClientTimeout = time.Duration(envInt("HTTP_CLIENT_TIMEOUT_SECONDS", int(cfg.HTTPClientTimeout.Seconds()))) * time.Second
	cfg.PublishLockTTL = time.Duration(envInt("PUBLISH_LOCK_TTL_SECONDS", int(cfg.PublishLockTTL.Seconds()))) * time.Second

	cfg.FacebookPageID = envOrDefault("FACEBOOK_PAGE_ID", cfg.FacebookPageID)
	cfg.FacebookAccessToken = envOrDefault("FACEBOOK_ACCESS_TOKEN", cfg.FacebookAccessToken)
	cfg.InstagramUserID = envOrDefault("INSTAGRAM_USER_ID", cfg.InstagramUserID)
	cfg.InstagramAccessToken = envOrDefault("INSTAGRAM_ACCESS_TOKEN", cfg.InstagramAccessToken)
	cfg.InstagramPublishAttempts = envInt("INSTAGRAM_PUBLISH_ATTEMPTS", cfg.InstagramPublishAttempts)
	cfg.InstagramPublishDelay = time.Duration(envInt("INSTAGRAM_PUBLISH_DELAY_SECONDS", int(cfg.InstagramPublishDelay.Seconds()))) * time.Second
	cfg.LinkedInPersonURN = envOrDefault("LINKEDIN_PERSON_URN", cfg.LinkedInPersonURN)
	cfg.LinkedInAccessToken = envOrDefault("LINKEDIN_ACCESS_TOKEN", cfg.LinkedInAccessToken)
	cfg.WhatsAppAccessToken = envOrDefault("WHATSAPP_ACCESS_TOKEN", cfg.WhatsAppAccessToken)
	cfg.WhatsAppExcludeContacts = envCSV("WHATSAPP_EXCLUDE_CONTACTS", cfg.WhatsAppExcludeContacts)
	cfg.TikTokAccessToken = envOrDefault("TIKTOK_ACCESS_TOKEN", cfg.TikTokAccessToken)
	cfg.TikTokPrivacyLevel = envOrDefault("TIKTOK_PRIVACY_LEVEL", cfg.TikTokPrivacyLevel)
	cfg.TikTokStatusInterval = time.Duration(envInt("TIKTOK_STATUS_INTERVAL_SECONDS", int(cfg.TikTokStatusInterval.Seconds()))) * time.Second
	cfg.TikTokStatusAttempts = envInt("TIKTOK_STATUS_ATTEMPTS", cfg.TikTokStatusAttempts)

	cfg.RunwayAPIKey = envOrDefault("RUNWAY_API_KEY", cfg.RunwayAPIKey)
	cfg.RunwayPollInterval = time.Duration(envInt("RUNWAY_POLL_INTERVAL_SECONDS", int(cfg.RunwayPollInterval.Seconds()))) * time.Second
	cfg.RunwayPollAttempts = envInt("RUNWAY_POLL_ATTEMPTS", cfg.RunwayPollAttempts)
	cfg.SoraAPIKey = envOrDefault("SORA_API_KEY", cfg.SoraAPIKey)
	cfg.SoraPollInterval = time.Duration(envInt("SORA_POLL_INTERVAL_SECONDS", int(cfg.SoraPollInterval.Seconds()))) * time.Second
	cfg.SoraPollAttempts = envInt("SORA_POLL_ATTEMPTS", cfg.SoraPollAttempts)
	cfg.SoraSampleVideo = envOrDefault("SORA_SAMPLE_VIDEO", cfg.SoraSampleVideo)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}

package config

import (
	"context"
	"log/slog"
	"os"
	"time"

	infisical "github.com/infisical/go-sdk"
)

type Config struct {
	Port           string
	FrontendOrigin string
	DatabaseURL    string
	RedisURL       string
	RedisPassword  string

	DuneAPIKey  string
	DuneBaseURL string

	MixpanelSecret    string
	MixpanelProjectID string
	MixpanelReportID  string
	MixpanelBaseURL   string

	CronSecret string

	// RefreshInterval enables the built-in refresh scheduler when
	// positive. Zero leaves refreshes to the external cron.
	RefreshInterval time.Duration
}

func Load() Config {
	cfg := Config{
		Port:           envOr("PORT", "8080"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       envOr("REDIS_URL", "redis://redis-master.redis.svc.cluster.local:6379/0"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),

		DuneAPIKey:  os.Getenv("DUNE_API_KEY"),
		DuneBaseURL: envOr("DUNE_API_BASE", "https://api.dune.com/api/v1"),

		MixpanelSecret:    os.Getenv("MIXPANEL_API_SECRET"),
		MixpanelProjectID: envOr("MIXPANEL_PROJECT_ID", "3623820"),
		MixpanelReportID:  envOr("MIXPANEL_REPORT_ID", "75454495"),
		MixpanelBaseURL:   envOr("MIXPANEL_API_BASE", "https://eu.mixpanel.com/api/2.0"),

		CronSecret: os.Getenv("CRON_SECRET"),
	}

	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid REFRESH_INTERVAL, scheduler disabled", "value", v, "error", err)
		} else {
			cfg.RefreshInterval = d
		}
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL",
		"http://infisical-infisical-standalone-infisical.infisical.svc.cluster.local:8080")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"DUNE_API_KEY":        &cfg.DuneAPIKey,
		"MIXPANEL_API_SECRET": &cfg.MixpanelSecret,
		"REDIS_PASSWORD":      &cfg.RedisPassword,
		"CRON_SECRET":         &cfg.CronSecret,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Package config loads runtime configuration for the sync job.
//
// Settings come from the environment (CRMSYNC_ prefix), optionally seeded
// from a .env file in development, with an optional YAML config file on top
// (CRMSYNC_CONFIG). Secrets only ever flow into the returned struct, never
// into logs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/talentbridge/crmsync/blob"
	"github.com/talentbridge/crmsync/core/errs"
)

// CRM holds the API and token-endpoint settings.
type CRM struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
	PageSize     int
	MaxAttempts  int
	HTTPTimeout  time.Duration
}

// Attachments configures the optional attachment download step.
type Attachments struct {
	Enabled bool
	Blob    blob.Config
}

// Config is the full runtime configuration.
type Config struct {
	DatabaseURL string
	CRM         CRM
	Attachments Attachments
	// OverridesFile optionally points at a YAML file declaring extra CRM
	// fields per entity.
	OverridesFile string
	// BatchSize is the loader's progress batch size.
	BatchSize int
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CRMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config file: %v", errs.ErrConfig, err)
		}
	}

	cfg := &Config{
		DatabaseURL: v.GetString("database.url"),
		CRM: CRM{
			BaseURL:      v.GetString("crm.base_url"),
			TokenURL:     v.GetString("crm.token_url"),
			ClientID:     v.GetString("crm.client_id"),
			ClientSecret: v.GetString("crm.client_secret"),
			RefreshToken: v.GetString("crm.refresh_token"),
			PageSize:     v.GetInt("crm.page_size"),
			MaxAttempts:  v.GetInt("crm.max_attempts"),
			HTTPTimeout:  v.GetDuration("crm.http_timeout"),
		},
		Attachments: Attachments{
			Enabled: v.GetBool("attachments.enabled"),
			Blob: blob.Config{
				Driver: blob.Driver(v.GetString("attachments.driver")),
				Root:   v.GetString("attachments.root"),
				S3: blob.S3Config{
					Region:          v.GetString("attachments.s3.region"),
					Bucket:          v.GetString("attachments.s3.bucket"),
					Endpoint:        v.GetString("attachments.s3.endpoint"),
					AccessKeyID:     v.GetString("attachments.s3.access_key_id"),
					SecretAccessKey: v.GetString("attachments.s3.secret_access_key"),
					PathStyle:       v.GetBool("attachments.s3.path_style"),
				},
			},
		},
		OverridesFile: v.GetString("overrides_file"),
		BatchSize:     v.GetInt("batch_size"),
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crm.base_url", "https://www.zohoapis.com/crm/v2")
	v.SetDefault("crm.page_size", 200)
	v.SetDefault("crm.max_attempts", 4)
	v.SetDefault("crm.http_timeout", 30*time.Second)
	v.SetDefault("attachments.enabled", false)
	v.SetDefault("attachments.driver", string(blob.DriverFilesystem))
	v.SetDefault("batch_size", 50)
}

// Validate checks that the settings a full sync run needs are present.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "CRMSYNC_DATABASE_URL")
	}
	if c.CRM.TokenURL == "" {
		missing = append(missing, "CRMSYNC_CRM_TOKEN_URL")
	}
	if c.CRM.ClientID == "" {
		missing = append(missing, "CRMSYNC_CRM_CLIENT_ID")
	}
	if c.CRM.ClientSecret == "" {
		missing = append(missing, "CRMSYNC_CRM_CLIENT_SECRET")
	}
	if c.CRM.RefreshToken == "" {
		missing = append(missing, "CRMSYNC_CRM_REFRESH_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required settings: %s", errs.ErrConfig, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateDatabase checks only the database settings, for schema-only
// commands.
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: missing required setting: CRMSYNC_DATABASE_URL", errs.ErrConfig)
	}
	return nil
}

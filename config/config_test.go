package config_test

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/talentbridge/crmsync/blob"
	"github.com/talentbridge/crmsync/config"
	"github.com/talentbridge/crmsync/core/errs"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CRMSYNC_DATABASE_URL", "sqlite://:memory:")
	t.Setenv("CRMSYNC_CRM_TOKEN_URL", "https://accounts.example.com/oauth/v2/token")
	t.Setenv("CRMSYNC_CRM_CLIENT_ID", "client-id")
	t.Setenv("CRMSYNC_CRM_CLIENT_SECRET", "client-secret")
	t.Setenv("CRMSYNC_CRM_REFRESH_TOKEN", "refresh-token")
}

func TestLoad_Defaults(t *testing.T) {
	c := qt.New(t)
	setRequiredEnv(t)

	cfg, err := config.Load()
	c.Assert(err, qt.IsNil)

	c.Assert(cfg.DatabaseURL, qt.Equals, "sqlite://:memory:")
	c.Assert(cfg.CRM.BaseURL, qt.Equals, "https://www.zohoapis.com/crm/v2")
	c.Assert(cfg.CRM.PageSize, qt.Equals, 200)
	c.Assert(cfg.CRM.MaxAttempts, qt.Equals, 4)
	c.Assert(cfg.CRM.HTTPTimeout, qt.Equals, 30*time.Second)
	c.Assert(cfg.Attachments.Enabled, qt.IsFalse)
	c.Assert(cfg.Attachments.Blob.Driver, qt.Equals, blob.DriverFilesystem)
	c.Assert(cfg.BatchSize, qt.Equals, 50)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	c := qt.New(t)
	setRequiredEnv(t)
	t.Setenv("CRMSYNC_CRM_PAGE_SIZE", "50")
	t.Setenv("CRMSYNC_CRM_BASE_URL", "https://www.zohoapis.eu/crm/v2")
	t.Setenv("CRMSYNC_ATTACHMENTS_ENABLED", "true")
	t.Setenv("CRMSYNC_ATTACHMENTS_DRIVER", "s3")
	t.Setenv("CRMSYNC_ATTACHMENTS_S3_BUCKET", "crm-attachments")
	t.Setenv("CRMSYNC_OVERRIDES_FILE", "/etc/crmsync/fields.yaml")

	cfg, err := config.Load()
	c.Assert(err, qt.IsNil)

	c.Assert(cfg.CRM.PageSize, qt.Equals, 50)
	c.Assert(cfg.CRM.BaseURL, qt.Equals, "https://www.zohoapis.eu/crm/v2")
	c.Assert(cfg.Attachments.Enabled, qt.IsTrue)
	c.Assert(cfg.Attachments.Blob.Driver, qt.Equals, blob.DriverS3)
	c.Assert(cfg.Attachments.Blob.S3.Bucket, qt.Equals, "crm-attachments")
	c.Assert(cfg.OverridesFile, qt.Equals, "/etc/crmsync/fields.yaml")
}

func TestValidate(t *testing.T) {
	c := qt.New(t)
	setRequiredEnv(t)

	cfg, err := config.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Validate(), qt.IsNil)
}

func TestValidate_ListsAllMissingSettings(t *testing.T) {
	c := qt.New(t)

	cfg := &config.Config{}
	err := cfg.Validate()

	c.Assert(err, qt.IsNotNil)
	c.Assert(errors.Is(err, errs.ErrConfig), qt.IsTrue)
	c.Assert(err.Error(), qt.Contains, "CRMSYNC_DATABASE_URL")
	c.Assert(err.Error(), qt.Contains, "CRMSYNC_CRM_TOKEN_URL")
	c.Assert(err.Error(), qt.Contains, "CRMSYNC_CRM_CLIENT_ID")
	c.Assert(err.Error(), qt.Contains, "CRMSYNC_CRM_CLIENT_SECRET")
	c.Assert(err.Error(), qt.Contains, "CRMSYNC_CRM_REFRESH_TOKEN")
}

func TestValidateDatabase(t *testing.T) {
	c := qt.New(t)

	cfg := &config.Config{}
	err := cfg.ValidateDatabase()
	c.Assert(errors.Is(err, errs.ErrConfig), qt.IsTrue)

	cfg.DatabaseURL = "postgres://localhost/crm"
	c.Assert(cfg.ValidateDatabase(), qt.IsNil)
}

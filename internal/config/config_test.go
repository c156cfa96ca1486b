package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "lde_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("ODOO_URL", "https://crm.example.com/")
	t.Setenv("ODOO_DB", "lde")
	t.Setenv("ODOO_USERNAME", "bot@example.com")
	t.Setenv("ODOO_API_KEY", "key")
	t.Setenv("ADMIN_EMAILS", " Owner@Example.com, ,ops@example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.MongoDB.Database != "lde_test" {
		t.Fatalf("unexpected database: %s", cfg.MongoDB.Database)
	}
	if cfg.Odoo.URL != "https://crm.example.com" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.Odoo.URL)
	}
	if !cfg.Odoo.Enabled() {
		t.Fatalf("odoo should be enabled when all settings are present")
	}
	if len(cfg.Site.AdminEmails) != 2 || cfg.Site.AdminEmails[0] != "owner@example.com" {
		t.Fatalf("unexpected admin emails: %v", cfg.Site.AdminEmails)
	}
	if cfg.RateLimit.ContactWindow != 10*time.Minute {
		t.Fatalf("unexpected contact window: %v", cfg.RateLimit.ContactWindow)
	}
}

func TestLoadConfig_UnknownSyncModeFallsBack(t *testing.T) {
	t.Setenv("ODOO_SYNC_MODE", "sometimes")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Odoo.SyncMode != "inline" {
		t.Fatalf("expected inline fallback, got %q", cfg.Odoo.SyncMode)
	}
}

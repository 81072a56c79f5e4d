package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	for _, key := range []string{"SERVER_PORT", "PORT", "APP_ENV", "JWT_SECRET", "STORE_DRIVER", "DATA_DIR", "OVERDUE_SWEEP_ENABLED", "TOKEN_TTL_HOURS"} {
		unsetEnvWithCleanup(t, key)
	}

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.StoreDriver != StoreDriverFile {
		t.Fatalf("expected file store driver by default, got %q", cfg.StoreDriver)
	}
	if cfg.TokenTTLHours != 168 {
		t.Fatalf("expected 7 day token ttl, got %d hours", cfg.TokenTTLHours)
	}
	if cfg.JWTSecret == "" {
		t.Fatal("expected development JWT secret to be filled in")
	}
	if cfg.OverdueSweepEnabled {
		t.Fatal("expected overdue sweep to be disabled by default")
	}
	if cfg.LedgerEventExchange != "ledger.events" {
		t.Fatalf("expected default exchange ledger.events, got %q", cfg.LedgerEventExchange)
	}
}

func TestLoadConfig_PortEnvOverridesServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "9000")
	setEnvWithCleanup(t, "PORT", "9100")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9100" {
		t.Fatalf("expected PORT to take precedence, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_ProductionRequiresJWTSecret(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "APP_ENV", "production")
	unsetEnvWithCleanup(t, "JWT_SECRET")

	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("expected an error when JWT_SECRET is missing in production")
	}
}

func TestLoadConfig_PostgresRequiresDatabaseURL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "STORE_DRIVER", "Postgres")
	unsetEnvWithCleanup(t, "DATABASE_URL")

	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("expected an error when DATABASE_URL is missing for the postgres driver")
	}
}

func TestLoadConfig_RejectsUnknownStoreDriver(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "STORE_DRIVER", "sqlite")

	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("expected an error for an unknown store driver")
	}
}

func TestLoadConfig_ReadsDotEnvFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "DATA_DIR")
	unsetEnvWithCleanup(t, "OVERDUE_SWEEP_ENABLED")

	dir := t.TempDir()
	contents := "DATA_DIR=/var/lib/ledger\nOVERDUE_SWEEP_ENABLED=true\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DataDir != "/var/lib/ledger" {
		t.Fatalf("expected DATA_DIR from .env, got %q", cfg.DataDir)
	}
	if !cfg.OverdueSweepEnabled {
		t.Fatal("expected OVERDUE_SWEEP_ENABLED from .env to be true")
	}
}

func TestConfig_AllowedOrigins(t *testing.T) {
	cfg := Config{CORSAllowedOrigins: " http://a.test, ,http://b.test "}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 || origins[0] != "http://a.test" || origins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %#v", origins)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestRead_DefaultsAndFile(t *testing.T) {
	p := writeYAML(t, `
app:
  http:
    port: 8088
jwt:
  secret: "0123456789abcdef0123"
db:
  driver: postgres
  dsn: "postgres://u:p@localhost/social"
`)
	cfg, err := Read(p)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.App.HTTP.Port != 8088 {
		t.Errorf("HTTP.Port = %d, want 8088", cfg.App.HTTP.Port)
	}
	if cfg.DB.Driver != "postgres" {
		t.Errorf("DB.Driver = %q, want postgres", cfg.DB.Driver)
	}
	if cfg.Notification.RetentionDays != 7 {
		t.Errorf("RetentionDays = %d, want 7", cfg.Notification.RetentionDays)
	}
	if cfg.Notification.PurgeCron != "0 0 * * *" {
		t.Errorf("PurgeCron = %q", cfg.Notification.PurgeCron)
	}
	if cfg.Realtime.Path != "/ws" {
		t.Errorf("Realtime.Path = %q, want /ws", cfg.Realtime.Path)
	}
}

func TestRead_EnvOverride(t *testing.T) {
	p := writeYAML(t, `
jwt:
  secret: "0123456789abcdef0123"
`)
	t.Setenv("APP_APP_HTTP_PORT", "9099")
	cfg, err := Read(p)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.App.HTTP.Port != 9099 {
		t.Errorf("HTTP.Port = %d, want 9099 from env", cfg.App.HTTP.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "short secret", mutate: func(c *Config) { c.JWT.Secret = "short" }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.DB.Driver = "oracle" }, wantErr: true},
		{name: "zero retention", mutate: func(c *Config) { c.Notification.RetentionDays = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				JWT:          JWT{Secret: "0123456789abcdef0123"},
				DB:           DB{Driver: "sqlite"},
				Notification: Notification{RetentionDays: 7},
			}
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Read() expected error for missing file")
	}
}

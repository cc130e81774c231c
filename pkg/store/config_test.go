package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/desk/pkg/session"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DESK_CONFIG_PATH", t.TempDir())
	t.Setenv("HOME", "/home/operator")
	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()
	s, err := loadConfig(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Path != filepath.Join("/home/operator", ".desk") {
		t.Fatalf("path = %q", s.Path)
	}
	if s.LogPath() != filepath.Join(s.Path, "desk.log") {
		t.Fatalf("log = %q", s.LogPath())
	}
	if s.IdleTimeout != 10*time.Minute || s.ActivityThrottle != 30*time.Second ||
		s.IdleCheck != time.Minute || s.IngestInterval != 30*time.Second {
		t.Fatalf("timings = %+v", s)
	}
	d, err := s.Directory()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Login("iva", "iva"); err != nil {
		t.Fatalf("demo directory expected: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `path: ` + filepath.Join(dir, "store") + `
idle_timeout: 2m
users:
  - username: petrova
    name: Petrova A.
    role: manager
    password_hash: "$2a$04$ePkZVYPEh8UnzSg8J9qaBOrAUdx6SM.7SLj4IZ9qBhFg2J0XzO6hW"
`
	if err := os.WriteFile(filepath.Join(dir, ".desk.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DESK_CONFIG_PATH", dir)
	t.Setenv("DESK_INGEST_INTERVAL", "5s")

	s, err := loadConfig(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.BasePath() != filepath.Join(dir, "store") {
		t.Fatalf("path = %q", s.BasePath())
	}
	if s.IdleTimeout != 2*time.Minute {
		t.Fatalf("idle_timeout = %v", s.IdleTimeout)
	}
	if s.IngestInterval != 5*time.Second {
		t.Fatalf("env override ignored: %v", s.IngestInterval)
	}
	if len(s.Users) != 1 || s.Users[0].Role != session.RoleManager || s.Users[0].Username != "petrova" {
		t.Fatalf("users = %+v", s.Users)
	}
}

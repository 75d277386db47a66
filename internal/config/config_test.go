package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DefaultProfile != "local" {
		t.Errorf("default profile = %q, want local", cfg.DefaultProfile)
	}
	p, name, err := cfg.Profile("")
	if err != nil {
		t.Fatalf("Profile(\"\") failed: %v", err)
	}
	if name != "local" || p.Driver != "sqlite" {
		t.Errorf("default profile = %q driver %q", name, p.Driver)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desshell.yaml")

	cfg := &Config{
		Version:        1,
		DefaultProfile: "dessci",
		Profiles: map[string]Profile{
			"dessci": {
				Driver:   "oracle",
				Host:     "db.example.org",
				Port:     1521,
				Service:  "dessci",
				User:     "jsmith",
				Password: "hunter2",
			},
			"destest": {
				Driver:  "oracle",
				Host:    "db-test.example.org",
				Port:    1521,
				Service: "destest",
				User:    "jsmith",
			},
		},
	}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, gotPath, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if gotPath != path {
		t.Errorf("path = %q, want %q", gotPath, path)
	}
	if loaded.DefaultProfile != "dessci" {
		t.Errorf("default profile = %q", loaded.DefaultProfile)
	}
	p, _, err := loaded.Profile("dessci")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if p.Host != "db.example.org" || p.Password != "hunter2" {
		t.Errorf("profile round trip mismatch: %+v", p)
	}

	// Defaults should have been applied on load
	if loaded.Prefetch != 10000 || loaded.ChunkSize != 50000 {
		t.Errorf("defaults not applied: prefetch=%d chunksize=%d", loaded.Prefetch, loaded.ChunkSize)
	}
}

func TestSavePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "desshell.yaml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("config file mode = %o, want 600", mode)
	}
}

func TestSetPassword(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.SetPassword("local", "newpass"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if cfg.Profiles["local"].Password != "newpass" {
		t.Error("password not updated")
	}
	if err := cfg.SetPassword("nosuch", "x"); err == nil {
		t.Error("SetPassword for missing profile should fail")
	}
}

func TestUnknownProfile(t *testing.T) {
	cfg := DefaultConfig()
	if _, _, err := cfg.Profile("desoper"); err == nil {
		t.Fatal("unknown profile should error")
	}
}

func TestEnvConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	t.Setenv("DESSHELL_CONFIG", path)
	if got := FindConfigPath(); got != path {
		t.Errorf("FindConfigPath = %q, want %q", got, path)
	}
}

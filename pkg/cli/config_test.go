package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileYieldsZeroValue(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %s", err)
	}
	if len(cfg.LoadPaths) != 0 {
		t.Errorf("expected no load paths, got %v", cfg.LoadPaths)
	}
}

func TestLoadConfigReadsLoadPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.yaml")
	content := "load_paths:\n  - ./lib\n  - ./vendor\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %s", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %s", err)
	}
	want := []string{"./lib", "./vendor"}
	if len(cfg.LoadPaths) != len(want) {
		t.Fatalf("got %v, want %v", cfg.LoadPaths, want)
	}
	for i := range want {
		if cfg.LoadPaths[i] != want[i] {
			t.Errorf("load path %d: got %q, want %q", i, cfg.LoadPaths[i], want[i])
		}
	}
}

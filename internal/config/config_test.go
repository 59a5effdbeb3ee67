package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Strategy != "classic" {
		t.Errorf("Strategy: got %q, want %q", cfg.Strategy, "classic")
	}
	if cfg.Keep != 10 {
		t.Errorf("Keep: got %d, want %d", cfg.Keep, 10)
	}
	if cfg.Parallel != 4 {
		t.Errorf("Parallel: got %d, want %d", cfg.Parallel, 4)
	}
	if cfg.IgnoreLastLines != 0 {
		t.Errorf("IgnoreLastLines: got %d, want 0", cfg.IgnoreLastLines)
	}
	if cfg.Dirpath == "" {
		t.Error("Dirpath: empty default")
	}
}

func TestDefaultDirpath_XDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/state")
	if got := DefaultDirpath(); got != filepath.Join("/var/state", "tmux-vault") {
		t.Errorf("got %q", got)
	}

	t.Setenv("XDG_STATE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := DefaultDirpath(); got != filepath.Join(home, ".local", "state", "tmux-vault") {
		t.Errorf("got %q", got)
	}
}

func TestMergeFile(t *testing.T) {
	cfg := Defaults()
	mergeFile(cfg, &Config{
		Dirpath:         "/backups",
		Strategy:        "most-recent",
		Keep:            3,
		IgnoreLastLines: 2,
	})

	if cfg.Dirpath != "/backups" {
		t.Errorf("Dirpath: got %q", cfg.Dirpath)
	}
	if cfg.Strategy != "most-recent" {
		t.Errorf("Strategy: got %q", cfg.Strategy)
	}
	if cfg.Keep != 3 {
		t.Errorf("Keep: got %d", cfg.Keep)
	}
	if cfg.IgnoreLastLines != 2 {
		t.Errorf("IgnoreLastLines: got %d", cfg.IgnoreLastLines)
	}
	// Untouched fields keep their defaults.
	if cfg.Parallel != 4 {
		t.Errorf("Parallel: got %d, want default 4", cfg.Parallel)
	}
}

func TestMergeEnv_OverridesFileValues(t *testing.T) {
	cfg := Defaults()
	cfg.Dirpath = "/from-file"
	cfg.Keep = 3

	t.Setenv("TMUX_VAULT_DIRPATH", "/from-env")
	t.Setenv("TMUX_VAULT_KEEP", "7")
	t.Setenv("TMUX_VAULT_STRATEGY", "most-recent")

	if err := mergeEnv(cfg); err != nil {
		t.Fatalf("mergeEnv() error: %v", err)
	}
	if cfg.Dirpath != "/from-env" {
		t.Errorf("Dirpath: got %q", cfg.Dirpath)
	}
	if cfg.Keep != 7 {
		t.Errorf("Keep: got %d", cfg.Keep)
	}
	if cfg.Strategy != "most-recent" {
		t.Errorf("Strategy: got %q", cfg.Strategy)
	}
}

func TestMergeEnv_RejectsBadNumbers(t *testing.T) {
	t.Setenv("TMUX_VAULT_KEEP", "many")
	if err := mergeEnv(Defaults()); err == nil {
		t.Error("mergeEnv() accepted a non-numeric TMUX_VAULT_KEEP")
	}
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "dirpath: /backups\nstrategy: most-recent\nkeep: 5\nignore_last_lines: 1\n"
	if err := os.WriteFile(filepath.Join(dir, ".tmux-vault.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ConfigFile != ".tmux-vault.yaml" {
		t.Errorf("ConfigFile: got %q", cfg.ConfigFile)
	}
	if cfg.Dirpath != "/backups" || cfg.Strategy != "most-recent" || cfg.Keep != 5 || cfg.IgnoreLastLines != 1 {
		t.Errorf("loaded config: %+v", cfg)
	}
}

package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/errors"
)

func TestExport_HappyPath(t *testing.T) {
	database := openTestDB(t)
	id := saveTestRuleSet(t, database, "default")

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	exportPath := filepath.Join(dir, "Snakefile")
	output, err := Export(context.Background(), database, cfg, ExportInput{ID: id, Path: exportPath})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if output.Path != exportPath {
		t.Errorf("Path = %q, want %q", output.Path, exportPath)
	}
	if output.Rules != 2 {
		t.Errorf("Rules = %d, want 2", output.Rules)
	}
	if output.ExportedAt == 0 {
		t.Error("ExportedAt should be set")
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	fetched, err := Fetch(context.Background(), database, cfg, FetchInput{ID: id})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != fetched.Snakefile {
		t.Errorf("exported file differs from rendered Snakefile:\n%s", data)
	}

	info, err := os.Stat(exportPath)
	if err != nil {
		t.Fatalf("stat export: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestExport_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	database := openTestDB(t)
	id := saveTestRuleSet(t, database, "My/Project")

	output, err := Export(context.Background(), database, config.DefaultConfig(), ExportInput{ID: id})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	want := filepath.Join(home, ".shrule", "exports", "my-project-"+id+".smk")
	if output.Path != want {
		t.Errorf("Path = %q, want %q", output.Path, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestExport_OverwritesExisting(t *testing.T) {
	database := openTestDB(t)
	id := saveTestRuleSet(t, database, "default")

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	exportPath := filepath.Join(dir, "rules.smk")
	if err := os.WriteFile(exportPath, []byte("old"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Export(context.Background(), database, cfg, ExportInput{ID: id, Path: exportPath}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	data, _ := os.ReadFile(exportPath)
	if !strings.HasPrefix(string(data), "rule undefined_1:") {
		t.Errorf("file not replaced: %q", data)
	}
}

func TestExport_Errors(t *testing.T) {
	database := openTestDB(t)
	id := saveTestRuleSet(t, database, "default")
	cfg := config.DefaultConfig()

	tests := []struct {
		name  string
		input ExportInput
		code  errors.ErrorCode
	}{
		{"missing id", ExportInput{Path: "/tmp/Snakefile"}, errors.ErrInvalidRequest},
		{"unknown id", ExportInput{ID: "01NOPE"}, errors.ErrNotFound},
		{"outside allowed dirs", ExportInput{ID: id, Path: "/tmp/Snakefile"}, errors.ErrInvalidRequest},
		{"wrong extension", ExportInput{ID: id, Path: "/tmp/rules.txt"}, errors.ErrInvalidRequest},
		{"traversal", ExportInput{ID: id, Path: "../Snakefile"}, errors.ErrInvalidRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Export(context.Background(), database, cfg, tc.input)
			if !errors.Is(err, tc.code) {
				t.Errorf("expected %s, got: %v", tc.code, err)
			}
		})
	}
}

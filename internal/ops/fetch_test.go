package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/errors"
)

func TestFetch_HappyPath(t *testing.T) {
	database := openTestDB(t)
	id := saveTestRuleSet(t, database, "default")

	output, err := Fetch(context.Background(), database, config.DefaultConfig(), FetchInput{ID: id})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if output.ID != id {
		t.Errorf("ID = %q, want %q", output.ID, id)
	}
	if len(output.Rules) != 2 {
		t.Errorf("len(Rules) = %d, want 2", len(output.Rules))
	}
	if !strings.Contains(output.Snakefile, "rule undefined_2:") {
		t.Errorf("Snakefile missing second rule: %q", output.Snakefile)
	}
	if !strings.Contains(output.Snakefile, `"wc -l {input} > {output}"`) {
		t.Errorf("Snakefile missing rewritten shell: %q", output.Snakefile)
	}
}

func TestFetch_ConfiguredPrinter(t *testing.T) {
	database := openTestDB(t)
	id := saveTestRuleSet(t, database, "default")

	cfg := config.DefaultConfig()
	cfg.Indent = 2
	cfg.Quote = "'"

	output, err := Fetch(context.Background(), database, cfg, FetchInput{ID: id})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(output.Snakefile, "\n  input:\n    'big',\n") {
		t.Errorf("Snakefile not rendered with config: %q", output.Snakefile)
	}
}

func TestFetch_ExcludeSnakefile(t *testing.T) {
	database := openTestDB(t)
	id := saveTestRuleSet(t, database, "default")

	output, err := Fetch(context.Background(), database, nil, FetchInput{ID: id, IncludeSnakefile: boolPtr(false)})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if output.Snakefile != "" {
		t.Errorf("Snakefile = %q, want empty", output.Snakefile)
	}
}

func TestFetch_Errors(t *testing.T) {
	database := openTestDB(t)

	if _, err := Fetch(context.Background(), database, nil, FetchInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
	if _, err := Fetch(context.Background(), database, nil, FetchInput{ID: "01NOPE"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

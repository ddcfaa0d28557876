package ops

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/db"
	"github.com/hpungsan/shrule/internal/errors"
)

// testStream is a shournal query result with two rule-producing commands, one
// command without writes and one duplicate.
const testStream = `HEADER:{"pathToReadFiles":"/home/user/.local/share/shournal/readfiles"}
COMMAND:{"id":1,"command":"sort big | uniq > small","workingDir":"/home/user/proj","fileReadEvents":[{"path":"/home/user/proj/big","size":10,"hash":11}],"fileWriteEvents":[{"path":"/home/user/proj/small","size":4,"hash":12}]}
COMMAND:{"id":2,"command":"ls -l","workingDir":"/home/user/proj","fileReadEvents":[],"fileWriteEvents":[]}
COMMAND:{"id":3,"command":"wc -l small > count","workingDir":"/home/user/proj","fileReadEvents":[{"path":"/home/user/proj/small","size":4,"hash":12}],"fileWriteEvents":[{"path":"/home/user/proj/count","size":2,"hash":13}]}
COMMAND:{"id":4,"command":"wc -l small > count","workingDir":"/home/user/proj","fileReadEvents":[{"path":"/home/user/proj/small","size":4,"hash":12}],"fileWriteEvents":[{"path":"/home/user/proj/count","size":2,"hash":14}]}
FOOTER:{"countOfCommands":4}
`

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// saveTestRuleSet converts testStream and stores it under workspace.
func saveTestRuleSet(t *testing.T, database *sql.DB, workspace string) string {
	t.Helper()
	out, err := Convert(context.Background(), database, config.DefaultConfig(), nil, ConvertInput{
		Input:     strings.NewReader(testStream),
		Save:      true,
		Workspace: workspace,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	return out.ID
}

func boolPtr(b bool) *bool {
	return &b
}

func stringPtr(s string) *string {
	return &s
}

func TestValidateID(t *testing.T) {
	id, err := ValidateID("  01ABC  ")
	if err != nil {
		t.Fatalf("ValidateID failed: %v", err)
	}
	if id != "01ABC" {
		t.Errorf("id = %q, want %q", id, "01ABC")
	}

	for _, in := range []string{"", "   "} {
		if _, err := ValidateID(in); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("ValidateID(%q) error = %v, want ErrInvalidRequest", in, err)
		}
	}
}

func TestPrinter_FromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Indent = 2
	cfg.Quote = "'"

	p := Printer(cfg)
	if p.Indent != 2 || p.Quote != "'" {
		t.Errorf("Printer = %+v, want indent 2 and single quote", p)
	}

	if got := Printer(nil); got.Indent != 0 || got.Quote != "" {
		t.Errorf("Printer(nil) = %+v, want zero printer", got)
	}
}

func TestGenerateULID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id, err := generateULID()
		if err != nil {
			t.Fatalf("generateULID failed: %v", err)
		}
		if len(id) != 26 {
			t.Errorf("len(id) = %d, want 26", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/db"
	"github.com/hpungsan/shrule/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	ID   string // required
	Path string // optional, default: ~/.shrule/exports/<workspace>-<id>.smk
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Rules      int    `json:"rules"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes a stored rule set to a Snakefile.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	id, err := ValidateID(input.ID)
	if err != nil {
		return nil, err
	}

	rs, err := db.GetRuleSet(ctx, database, id)
	if err != nil {
		return nil, err
	}

	exportPath := input.Path
	if exportPath == "" {
		exportPath, err = defaultExportPath(rs.WorkspaceNorm, rs.ID)
		if err != nil {
			return nil, err
		}
	}

	// Default paths are validated too: the workspace name ends up in the file name.
	if err := ValidatePath(exportPath, cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	// Write to a temp file and rename so an existing Snakefile survives a failed export.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.NewCancelled("export")
	default:
	}

	if _, err := file.WriteString(Printer(cfg).Snakefile(rs.ToRules())); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Rules:      len(rs.Rules),
		ExportedAt: time.Now().Unix(),
	}, nil
}

// defaultExportPath builds ~/.shrule/exports/<workspace>-<id>.smk.
func defaultExportPath(workspaceNorm, id string) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	name := SanitizeForFilename(workspaceNorm)
	return filepath.Join(dir, fmt.Sprintf("%s-%s.smk", name, id)), nil
}

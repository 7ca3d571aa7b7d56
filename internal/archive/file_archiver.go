package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// fileArchiver writes gzipped evidence files under a base directory.
type fileArchiver struct {
	dir    string
	logger zerolog.Logger
}

// NewFileArchiver creates an archiver that writes to dir.
func NewFileArchiver(dir string, logger zerolog.Logger) Archiver {
	return &fileArchiver{
		dir:    dir,
		logger: logger.With().Str("component", "file-archiver").Logger(),
	}
}

func (a *fileArchiver) Archive(ctx context.Context, ev Evidence) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(ev)
	if err != nil {
		return err
	}

	path := filepath.Join(a.dir, filepath.FromSlash(objectName(ev)))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o640); err != nil {
		a.logger.Error().Err(err).Str("path", path).Msg("failed to write evidence file")
		return fmt.Errorf("failed to write evidence file %s: %w", path, err)
	}

	a.logger.Info().Str("path", path).Str("kind", ev.Kind).Msg("evidence archived")
	return nil
}

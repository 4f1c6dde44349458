package services

import (
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// BackupService copies the primary store's on-disk snapshot to a sibling
// path and back. Everything here is best-effort: a failed copy is
// reported and never takes the service down.
type BackupService struct {
	DBPath string
	Log    zerolog.Logger
}

// BackupPath is the sibling path the snapshot is copied to
func (s *BackupService) BackupPath() string {
	return s.DBPath + ".bak"
}

// Backup copies the live database file to the backup path
func (s *BackupService) Backup() (string, error) {
	dst := s.BackupPath()
	if err := copyFile(s.DBPath, dst); err != nil {
		s.Log.Error().Err(err).Str("path", dst).Msg("backup failed")
		return "", err
	}
	s.Log.Info().Str("path", dst).Msg("backup written")
	return dst, nil
}

// Restore copies the backup snapshot over the live database file. This
// is an explicit operator action and overwrites whatever is at the
// database path.
func (s *BackupService) Restore() (string, error) {
	if _, err := os.Stat(s.BackupPath()); err != nil {
		return "", err
	}
	if err := copyFile(s.BackupPath(), s.DBPath); err != nil {
		s.Log.Error().Err(err).Msg("restore from backup failed")
		return "", err
	}
	s.Log.Info().Str("path", s.DBPath).Msg("database restored from backup")
	return s.DBPath, nil
}

// RestoreIfMissing restores only when the database file is absent.
// Called once at startup so a redeploy onto an empty disk picks up the
// last snapshot.
func (s *BackupService) RestoreIfMissing() error {
	if _, err := os.Stat(s.DBPath); err == nil {
		return nil
	}
	if _, err := os.Stat(s.BackupPath()); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	_, err := s.Restore()
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

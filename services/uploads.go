package services

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StoredFile describes an uploaded file after it has been written out
type StoredFile struct {
	Name        string `json:"name"`
	StoredName  string `json:"stored_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// FileMarker is the structured marker recorded in a message body when
// the message carries a file instead of text
func FileMarker(name string) string {
	return "[file]" + name
}

// UploadsService writes uploaded file streams into a directory. Stored
// names are random so colliding upload names never overwrite each other;
// the original name survives in the message marker. Durability is
// whatever the directory gives us.
type UploadsService struct {
	Dir string
	Log zerolog.Logger
}

// Save writes one upload stream to disk and sniffs its content type
func (s *UploadsService) Save(name string, r io.Reader) (*StoredFile, error) {

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, err
	}

	storedName := uuid.NewString() + filepath.Ext(name)
	path := filepath.Join(s.Dir, storedName)

	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(dst, r)
	if err != nil {
		dst.Close()
		os.Remove(path)
		return nil, err
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	// Sniff from content, not the file extension
	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = mt.String()
	}

	s.Log.Info().
		Str("name", name).
		Str("stored", storedName).
		Str("content_type", contentType).
		Int64("size", size).
		Msg("file stored")

	return &StoredFile{
		Name:        name,
		StoredName:  storedName,
		ContentType: contentType,
		Size:        size,
	}, nil

}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"crowd-monitor/internal/domain"
)

// FileStateStore keeps the live message id in a plain-text file under the
// data directory: state/telegram_message_id.txt.
type FileStateStore struct {
	path string
}

var _ domain.MessageStateStore = (*FileStateStore)(nil)

// NewFileStateStore creates a file-backed state store under dir.
func NewFileStateStore(dir string) *FileStateStore {
	return &FileStateStore{path: filepath.Join(dir, "state", "telegram_message_id.txt")}
}

// LastMessageID reads the stored id; a missing file means no message yet.
func (s *FileStateStore) LastMessageID() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read message id: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveMessageID overwrites the stored id.
func (s *FileStateStore) SaveMessageID(id string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, strings.NewReader(id)); err != nil {
		return fmt.Errorf("write message id: %w", err)
	}
	return nil
}

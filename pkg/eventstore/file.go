package eventstore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/blockforge/pkg/events"
)

// FileStore is a file-based event log for CLI usage. Each workspace's
// log is one JSON-lines file, one envelope per line, appended in fire
// order.
type FileStore struct {
	mu      sync.Mutex
	baseDir string
}

// NewFileStore creates a file-based store.
// If baseDir is empty, defaults to ~/.config/blockforge/events/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "blockforge", "events")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create event dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) logPath(workspaceID string) string {
	// Workspace ids pass errors.ValidateID, so they are safe as file names.
	return filepath.Join(s.baseDir, workspaceID+".jsonl")
}

func (s *FileStore) Append(ctx context.Context, workspaceID string, env events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	f, err := os.OpenFile(s.logPath(workspaceID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, workspaceID string) ([]events.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.logPath(workspaceID))
	if err != nil {
		if os.IsNotExist(err) {
			return []events.Envelope{}, nil
		}
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	var out []events.Envelope
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var env events.Envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			return nil, fmt.Errorf("parse event log line: %w", err)
		}
		out = append(out, env)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	if out == nil {
		out = []events.Envelope{}
	}
	return out, nil
}

func (s *FileStore) Clear(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.logPath(workspaceID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove event log: %w", err)
	}
	return nil
}

func (s *FileStore) Close(ctx context.Context) error { return nil }

// Path returns the base directory for event log files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

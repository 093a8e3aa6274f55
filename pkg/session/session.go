// Package session persists the last-used request context between runs.
//
// Loading is deliberately infallible: a missing, unreadable, or
// corrupt state file yields defaults and a warning log, never an error
// the caller must handle. Only saving can fail.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gqlnav/gqlnav/pkg/graphql"
	"github.com/gqlnav/gqlnav/pkg/logging"
)

// State is the persisted session record. Header order and duplicate
// header names survive the round trip.
type State struct {
	Endpoint string           `json:"endpoint"`
	Headers  []graphql.Header `json:"headers,omitempty"`
	// Variables holds the raw JSON text the user last entered, not a
	// decoded value, so formatting survives reload.
	Variables string `json:"variables"`
	Query     string `json:"query"`
	VerifyTLS bool   `json:"verifyTls"`
	// SchemaRootType remembers the root type the schema browser was
	// focused on.
	SchemaRootType string          `json:"schemaRootType,omitempty"`
	UIFlags        map[string]bool `json:"uiFlags,omitempty"`
}

// DefaultState returns the state used when nothing has been persisted:
// empty endpoint, headers, and query, empty-object variables, and TLS
// verification on.
func DefaultState() State {
	return State{Variables: "{}", VerifyTLS: true}
}

// Store reads and writes session state at a fixed path.
type Store struct {
	Path   string
	Logger *slog.Logger
}

// NewStore builds a store for path. A nil logger disables logging.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{Path: path, Logger: logger}
}

// DefaultPath returns the conventional state file location under the
// user's configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "gqlnav", "state.json"), nil
}

// Load returns the persisted state, or defaults when the file is
// missing or unreadable. It never fails: a corrupt file is logged and
// replaced by defaults on the next Save.
func (s *Store) Load() State {
	logger := s.logger()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("session state unreadable, using defaults", "path", s.Path, "error", err)
		}
		return DefaultState()
	}

	state := DefaultState()
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("session state corrupt, using defaults", "path", s.Path, "error", err)
		return DefaultState()
	}
	return state
}

// Save writes the state atomically: the record lands in a temp file in
// the target directory and is renamed into place, so a crash mid-write
// never leaves a truncated state file. Failures carry the persistence
// error kind.
func (s *Store) Save(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return graphql.NewError(graphql.KindPersistence, "encode session state", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return graphql.NewError(graphql.KindPersistence, "create state directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return graphql.NewError(graphql.KindPersistence, "create temp state file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return graphql.NewError(graphql.KindPersistence, "write session state", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return graphql.NewError(graphql.KindPersistence, "set state file mode", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return graphql.NewError(graphql.KindPersistence, "close temp state file", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return graphql.NewError(graphql.KindPersistence, "replace state file", err)
	}

	s.logger().Debug("session state saved", "path", s.Path)
	return nil
}

func (s *Store) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logging.Nop()
}

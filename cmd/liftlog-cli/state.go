package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/claude/liftlog/internal/session"
)

// cliState is what survives between one-shot invocations: which draft the
// user last resumed, and a set removal whose undo window may still be
// open. The server keeps both in process memory; a per-command process
// needs them on disk.
type cliState struct {
	ActiveID string              `json:"activeId,omitempty"`
	Undo     *session.RemovedSet `json:"undo,omitempty"`
}

// stateFile reads and writes the CLI state next to the store. An absent or
// unreadable file counts as empty state.
type stateFile struct {
	path string
}

func (f stateFile) read() cliState {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return cliState{}
	}
	var st cliState
	if err := json.Unmarshal(data, &st); err != nil {
		return cliState{}
	}
	return st
}

// write persists st, removing the file when st is empty.
func (f stateFile) write(st cliState) error {
	if st.ActiveID == "" && st.Undo == nil {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o644)
}

package models

import (
	"encoding/json"
	"fmt"
)

// StoreVersion is the store format version written by this build.
const StoreVersion = 1

// Store is the sole persisted aggregate root: a versioned collection of
// sessions, unique by id. It is rewritten wholesale on every mutation.
type Store struct {
	Version  int       `json:"version"`
	Sessions []Session `json:"sessions"`
}

// NewStore returns an empty store at the current format version.
func NewStore() *Store {
	return &Store{Version: StoreVersion, Sessions: []Session{}}
}

// Get returns the session with the given id.
func (st *Store) Get(id string) (Session, bool) {
	for _, s := range st.Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}

// Upsert inserts the session, or replaces the stored session with the same
// id. Insert order is preserved on replace.
func (st *Store) Upsert(sess Session) {
	for i, s := range st.Sessions {
		if s.ID == sess.ID {
			st.Sessions[i] = sess
			return
		}
	}
	st.Sessions = append(st.Sessions, sess)
}

// Delete removes the session with the given id and reports whether a
// session was removed.
func (st *Store) Delete(id string) bool {
	for i, s := range st.Sessions {
		if s.ID == id {
			st.Sessions = append(st.Sessions[:i], st.Sessions[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the store.
func (st *Store) Clone() *Store {
	out := &Store{Version: st.Version, Sessions: make([]Session, len(st.Sessions))}
	for i, s := range st.Sessions {
		out.Sessions[i] = s.Clone()
	}
	return out
}

// Encode serializes the store compactly for the persistence slot.
func (st *Store) Encode() ([]byte, error) {
	return json.Marshal(st)
}

// EncodePretty serializes the store indented, the format backup exports use.
func (st *Store) EncodePretty() ([]byte, error) {
	return json.MarshalIndent(st, "", "  ")
}

// DecodeStore parses store JSON. Any version from 1 up is accepted and
// normalized to the current version on the next save; duplicate session ids
// are collapsed keeping the first occurrence.
func DecodeStore(data []byte) (*Store, error) {
	var st Store
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing store: %w", err)
	}
	if st.Version < 1 {
		return nil, fmt.Errorf("parsing store: missing or invalid version")
	}
	if st.Sessions == nil {
		st.Sessions = []Session{}
	}
	seen := make(map[string]bool, len(st.Sessions))
	deduped := st.Sessions[:0]
	for _, s := range st.Sessions {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		deduped = append(deduped, s)
	}
	st.Sessions = deduped
	return &st, nil
}

package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dnsjumper/internal/paths"
	liberrors "dnsjumper/pkg/errors"
)

// document is the on-disk shape of the profile file: the ordered list of
// user profiles plus the names of built-ins the user has hidden.
type document struct {
	Profiles []Profile `json:"profiles"`
	Hidden   []string  `json:"hidden,omitempty"`
}

// Store owns all profile records. Mutations are serialized and every
// mutation is persisted before it becomes visible.
type Store struct {
	mu     sync.Mutex
	path   string
	users  []Profile
	hidden map[string]bool
}

// Open loads the profile store from path. A missing file means no user
// profiles yet; any other read error surfaces as a persistence failure.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		hidden: make(map[string]bool),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", liberrors.ErrPersistenceFailed, path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", liberrors.ErrPersistenceFailed, path, err)
	}

	for _, p := range doc.Profiles {
		p.Source = SourceUser
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s contains invalid profile: %v", liberrors.ErrPersistenceFailed, path, err)
		}
		s.users = append(s.users, p)
	}
	for _, name := range doc.Hidden {
		s.hidden[name] = true
	}
	return s, nil
}

// Add validates and stores a new user profile. Validation happens before
// any write: a rejected profile never touches the file.
func (s *Store) Add(p Profile) error {
	p.Source = SourceUser
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(p.Name) != nil {
		return &liberrors.ProfileError{Name: p.Name, Err: liberrors.ErrDuplicateName}
	}

	next := append(s.copyUsersLocked(), p.clone())
	if err := s.persistLocked(next, s.hidden); err != nil {
		return err
	}
	s.users = next
	return nil
}

// Remove deletes a user profile. Built-ins are protected: they can only be
// hidden via Hide.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range builtins {
		if b.Name == name {
			return &liberrors.ProfileError{Name: name, Err: liberrors.ErrProtected}
		}
	}

	idx := -1
	for i, p := range s.users {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &liberrors.ProfileError{Name: name, Err: liberrors.ErrProfileNotFound}
	}

	next := s.copyUsersLocked()
	next = append(next[:idx], next[idx+1:]...)
	if err := s.persistLocked(next, s.hidden); err != nil {
		return err
	}
	s.users = next
	return nil
}

// Hide removes a built-in profile from listings without destroying it.
func (s *Store) Hide(name string) error {
	return s.setHidden(name, true)
}

// Unhide restores a hidden built-in profile to listings.
func (s *Store) Unhide(name string) error {
	return s.setHidden(name, false)
}

func (s *Store) setHidden(name string, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, b := range builtins {
		if b.Name == name {
			found = true
			break
		}
	}
	if !found {
		return &liberrors.ProfileError{Name: name, Err: liberrors.ErrProfileNotFound}
	}

	nextHidden := make(map[string]bool, len(s.hidden))
	for k, v := range s.hidden {
		nextHidden[k] = v
	}
	if hidden {
		nextHidden[name] = true
	} else {
		delete(nextHidden, name)
	}

	if err := s.persistLocked(s.users, nextHidden); err != nil {
		return err
	}
	s.hidden = nextHidden
	return nil
}

// List returns visible profiles in a stable order: built-ins first in their
// seed order (minus hidden ones), then user profiles in creation order.
func (s *Store) List() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Profile
	for _, b := range builtins {
		if !s.hidden[b.Name] {
			out = append(out, b.clone())
		}
	}
	for _, p := range s.users {
		out = append(out, p.clone())
	}
	return out
}

// Get returns the named profile, hidden built-ins included.
func (s *Store) Get(name string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.findLocked(name); p != nil {
		return p.clone(), nil
	}
	return Profile{}, &liberrors.ProfileError{Name: name, Err: liberrors.ErrProfileNotFound}
}

func (s *Store) findLocked(name string) *Profile {
	for i := range builtins {
		if builtins[i].Name == name {
			return &builtins[i]
		}
	}
	for i := range s.users {
		if s.users[i].Name == name {
			return &s.users[i]
		}
	}
	return nil
}

func (s *Store) copyUsersLocked() []Profile {
	out := make([]Profile, 0, len(s.users))
	for _, p := range s.users {
		out = append(out, p.clone())
	}
	return out
}

// persistLocked writes the document atomically: the new content lands in a
// temp file in the same directory and replaces the old file via rename, so
// a crash mid-write never corrupts the profile file.
func (s *Store) persistLocked(users []Profile, hidden map[string]bool) error {
	doc := document{Profiles: users}
	for _, b := range builtins {
		if hidden[b.Name] {
			doc.Hidden = append(doc.Hidden, b.Name)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", liberrors.ErrPersistenceFailed, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", liberrors.ErrPersistenceFailed, err)
	}

	tmp, err := os.CreateTemp(dir, ".profiles-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", liberrors.ErrPersistenceFailed, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", liberrors.ErrPersistenceFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", liberrors.ErrPersistenceFailed, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", liberrors.ErrPersistenceFailed, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", liberrors.ErrPersistenceFailed, err)
	}
	paths.ChownToRealUser(s.path)
	return nil
}

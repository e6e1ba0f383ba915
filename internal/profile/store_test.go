package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	liberrors "dnsjumper/pkg/errors"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return s, path
}

func TestStoreAdd(t *testing.T) {
	t.Run("valid profile is listed after built-ins", func(t *testing.T) {
		s, _ := newTestStore(t)
		if err := s.Add(Profile{Name: "Home", Servers: []string{"192.168.1.1"}}); err != nil {
			t.Fatal(err)
		}

		names := listedNames(s)
		want := []string{"Google", "Cloudflare", "Quad9", "OpenDNS", "Home"}
		if diff := cmp.Diff(want, names); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		s, _ := newTestStore(t)
		if err := s.Add(Profile{Name: "Home", Servers: []string{"192.168.1.1"}}); err != nil {
			t.Fatal(err)
		}
		err := s.Add(Profile{Name: "Home", Servers: []string{"10.0.0.1"}})
		if !errors.Is(err, liberrors.ErrDuplicateName) {
			t.Fatal("expected ErrDuplicateName, got", err)
		}
	})

	t.Run("built-in name counts as duplicate", func(t *testing.T) {
		s, _ := newTestStore(t)
		err := s.Add(Profile{Name: "Google", Servers: []string{"10.0.0.1"}})
		if !errors.Is(err, liberrors.ErrDuplicateName) {
			t.Fatal("expected ErrDuplicateName, got", err)
		}
	})

	t.Run("invalid address rejected before any write", func(t *testing.T) {
		s, path := newTestStore(t)
		err := s.Add(Profile{Name: "Bad", Servers: []string{"not-an-ip"}})
		if !errors.Is(err, liberrors.ErrInvalidServer) {
			t.Fatal("expected ErrInvalidServer, got", err)
		}
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Fatal("rejected profile must not touch the file")
		}
	})

	t.Run("duplicate server within profile", func(t *testing.T) {
		s, _ := newTestStore(t)
		err := s.Add(Profile{Name: "Dup", Servers: []string{"1.1.1.1", "1.1.1.1"}})
		if !errors.Is(err, liberrors.ErrInvalidServer) {
			t.Fatal("expected ErrInvalidServer, got", err)
		}
	})

	t.Run("empty server list", func(t *testing.T) {
		s, _ := newTestStore(t)
		err := s.Add(Profile{Name: "Empty"})
		if !errors.Is(err, liberrors.ErrEmptyProfile) {
			t.Fatal("expected ErrEmptyProfile, got", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		s, _ := newTestStore(t)
		err := s.Add(Profile{Name: "  ", Servers: []string{"1.1.1.1"}})
		if !errors.Is(err, liberrors.ErrEmptyName) {
			t.Fatal("expected ErrEmptyName, got", err)
		}
	})

	t.Run("IPv6 literals accepted", func(t *testing.T) {
		s, _ := newTestStore(t)
		err := s.Add(Profile{Name: "V6", Servers: []string{"2606:4700:4700::1111", "1.1.1.1"}})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestStoreRemove(t *testing.T) {
	t.Run("user profile", func(t *testing.T) {
		s, _ := newTestStore(t)
		if err := s.Add(Profile{Name: "Home", Servers: []string{"192.168.1.1"}}); err != nil {
			t.Fatal(err)
		}
		if err := s.Remove("Home"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Get("Home"); !errors.Is(err, liberrors.ErrProfileNotFound) {
			t.Fatal("expected ErrProfileNotFound, got", err)
		}
	})

	t.Run("built-in is protected", func(t *testing.T) {
		s, _ := newTestStore(t)
		if err := s.Remove("Cloudflare"); !errors.Is(err, liberrors.ErrProtected) {
			t.Fatal("expected ErrProtected, got", err)
		}
	})

	t.Run("unknown profile", func(t *testing.T) {
		s, _ := newTestStore(t)
		if err := s.Remove("Nope"); !errors.Is(err, liberrors.ErrProfileNotFound) {
			t.Fatal("expected ErrProfileNotFound, got", err)
		}
	})
}

func TestStoreHide(t *testing.T) {
	t.Run("hidden built-in disappears from listings but stays gettable", func(t *testing.T) {
		s, _ := newTestStore(t)
		if err := s.Hide("Google"); err != nil {
			t.Fatal(err)
		}
		for _, p := range s.List() {
			if p.Name == "Google" {
				t.Fatal("hidden profile still listed")
			}
		}
		if _, err := s.Get("Google"); err != nil {
			t.Fatal("hidden built-in must remain resolvable:", err)
		}
	})

	t.Run("unhide restores listing", func(t *testing.T) {
		s, _ := newTestStore(t)
		if err := s.Hide("Google"); err != nil {
			t.Fatal(err)
		}
		if err := s.Unhide("Google"); err != nil {
			t.Fatal(err)
		}
		if listedNames(s)[0] != "Google" {
			t.Fatal("unhidden built-in should list first again")
		}
	})

	t.Run("only built-ins can be hidden", func(t *testing.T) {
		s, _ := newTestStore(t)
		if err := s.Hide("Nope"); !errors.Is(err, liberrors.ErrProfileNotFound) {
			t.Fatal("expected ErrProfileNotFound, got", err)
		}
	})
}

func TestStoreReload(t *testing.T) {
	s, path := newTestStore(t)
	if err := s.Add(Profile{Name: "Home", Servers: []string{"192.168.1.1", "fd00::1"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(Profile{Name: "Work", Servers: []string{"10.0.0.53"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Hide("OpenDNS"); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Google", "Cloudflare", "Quad9", "Home", "Work"}
	if diff := cmp.Diff(want, listedNames(reloaded)); diff != "" {
		t.Fatal(diff)
	}

	p, err := reloaded.Get("Home")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"192.168.1.1", "fd00::1"}, p.Servers); diff != "" {
		t.Fatal(diff)
	}
	if p.Source != SourceUser {
		t.Fatal("reloaded profile lost its source, got", p.Source)
	}
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, liberrors.ErrPersistenceFailed) {
		t.Fatal("expected ErrPersistenceFailed, got", err)
	}
}

func TestListReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Add(Profile{Name: "Home", Servers: []string{"192.168.1.1"}}); err != nil {
		t.Fatal(err)
	}
	listed := s.List()
	listed[len(listed)-1].Servers[0] = "tampered"

	p, err := s.Get("Home")
	if err != nil {
		t.Fatal(err)
	}
	if p.Servers[0] != "192.168.1.1" {
		t.Fatal("List must not expose store-owned slices")
	}
}

func listedNames(s *Store) []string {
	var names []string
	for _, p := range s.List() {
		names = append(names, p.Name)
	}
	return names
}

package registry

import (
	"errors"
	"sync"
	"testing"
)

func TestSessionRegistry_Open(t *testing.T) {
	tests := []struct {
		name     string
		username string
		room     string
		wantErr  error
	}{
		{
			name:     "valid join",
			username: "Ann",
			room:     "X",
		},
		{
			name:     "surrounding whitespace trimmed",
			username: "  Ann  ",
			room:     " X ",
		},
		{
			name:     "empty username",
			username: "",
			room:     "X",
			wantErr:  ErrInvalidJoin,
		},
		{
			name:     "whitespace-only username",
			username: "   ",
			room:     "X",
			wantErr:  ErrInvalidJoin,
		},
		{
			name:     "empty room",
			username: "Ann",
			room:     "",
			wantErr:  ErrInvalidJoin,
		},
		{
			name:     "whitespace-only room",
			username: "Ann",
			room:     "\t\n",
			wantErr:  ErrInvalidJoin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewSessionRegistry()
			session, err := r.Open("conn-1", tt.username, tt.room)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Open() error = %v, want %v", err, tt.wantErr)
				}
				if r.Count() != 0 {
					t.Errorf("Open() rejected join left %d sessions", r.Count())
				}
				return
			}

			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			if session.Username != "Ann" {
				t.Errorf("Open() username = %q, want %q", session.Username, "Ann")
			}
			if session.Room != "X" {
				t.Errorf("Open() room = %q, want %q", session.Room, "X")
			}
			if session.JoinedAt.IsZero() {
				t.Error("Open() JoinedAt should not be zero")
			}
		})
	}
}

func TestSessionRegistry_Open_ReplacesPerConnID(t *testing.T) {
	r := NewSessionRegistry()

	if _, err := r.Open("conn-1", "Ann", "X"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := r.Open("conn-1", "Ann", "X"); err != nil {
		t.Fatalf("Open() repeat error = %v", err)
	}

	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1 (at most one session per conn id)", r.Count())
	}
}

func TestSessionRegistry_Lookup(t *testing.T) {
	r := NewSessionRegistry()
	if _, err := r.Open("conn-1", "Ann", "X"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	session, err := r.Lookup("conn-1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if session.Username != "Ann" || session.Room != "X" {
		t.Errorf("Lookup() = (%q, %q), want (Ann, X)", session.Username, session.Room)
	}

	if _, err := r.Lookup("conn-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup() unknown conn error = %v, want ErrNotFound", err)
	}
}

func TestSessionRegistry_Close(t *testing.T) {
	r := NewSessionRegistry()
	if _, err := r.Open("conn-1", "Ann", "X"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	session, err := r.Close("conn-1")
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if session.Username != "Ann" || session.Room != "X" {
		t.Errorf("Close() = (%q, %q), want (Ann, X)", session.Username, session.Room)
	}
	if r.Count() != 0 {
		t.Errorf("Count() after Close = %d, want 0", r.Count())
	}

	if _, err := r.Close("conn-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Close() repeat error = %v, want ErrNotFound", err)
	}
}

func TestSessionRegistry_OccupantsOf(t *testing.T) {
	r := NewSessionRegistry()

	if got := r.OccupantsOf("X"); len(got) != 0 {
		t.Errorf("OccupantsOf() empty room = %v, want empty", got)
	}

	mustOpen(t, r, "conn-1", "Bob", "X")
	mustOpen(t, r, "conn-2", "Ann", "X")
	mustOpen(t, r, "conn-3", "Cid", "Y")

	users := r.OccupantsOf("X")
	if len(users) != 2 {
		t.Fatalf("OccupantsOf(X) count = %d, want 2", len(users))
	}
	// Sorted for stable emission.
	if users[0].Username != "Ann" || users[1].Username != "Bob" {
		t.Errorf("OccupantsOf(X) = %v, want [Ann Bob]", users)
	}

	if _, err := r.Close("conn-2"); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	users = r.OccupantsOf("X")
	if len(users) != 1 || users[0].Username != "Bob" {
		t.Errorf("OccupantsOf(X) after leave = %v, want [Bob]", users)
	}
}

func TestSessionRegistry_ConcurrentAccess(t *testing.T) {
	r := NewSessionRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := "conn-" + string(rune('a'+n%26)) + string(rune('a'+n/26))
			if _, err := r.Open(connID, "user", "X"); err != nil {
				t.Errorf("Open() error = %v", err)
			}
			_, _ = r.Lookup(connID)
			r.OccupantsOf("X")
		}(i)
	}
	wg.Wait()

	if r.Count() != 50 {
		t.Errorf("Count() = %d, want 50", r.Count())
	}
}

func mustOpen(t *testing.T, r *SessionRegistry, connID, username, room string) {
	t.Helper()
	if _, err := r.Open(connID, username, room); err != nil {
		t.Fatalf("Open(%s) error = %v", connID, err)
	}
}

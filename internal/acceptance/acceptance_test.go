package acceptance

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

func roster(bots int) []match.AssignedPlayer {
	var out []match.AssignedPlayer
	for i := 0; i < match.RosterSize; i++ {
		kind := match.Human
		if i < bots {
			kind = match.Bot
		}
		out = append(out, match.AssignedPlayer{ID: match.Identifier(fmt.Sprintf("p%d#t", i+1)), Kind: kind})
	}
	return out
}

func TestAcceptCompletesOnlyWithFullRoster(t *testing.T) {
	s := New("m1", roster(0), time.Now().Add(time.Minute))
	for i, id := range s.Roster {
		added, complete, err := s.Accept(id)
		if err != nil || !added {
			t.Fatalf("accept %s: added=%v err=%v", id, added, err)
		}
		if want := i == len(s.Roster)-1; complete != want {
			t.Fatalf("after %d accepts complete=%v", i+1, complete)
		}
	}
	if s.Resolved() {
		t.Fatalf("resolved before TryResolve")
	}
	if !s.TryResolve() {
		t.Fatalf("first resolve must win")
	}
	if !s.Resolved() {
		t.Fatalf("TryResolve did not resolve")
	}
	if s.TryResolve() {
		t.Fatalf("second resolve must lose")
	}
	if _, _, err := s.Accept(s.Roster[0]); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestAcceptIsIdempotent(t *testing.T) {
	s := New("m1", roster(0), time.Now())
	s.Accept("p1#t")
	added, _, err := s.Accept("p1#t")
	if err != nil || added {
		t.Fatalf("repeat accept: added=%v err=%v", added, err)
	}
	if got := s.Progress().Accepted; got != 1 {
		t.Fatalf("accepted count = %d", got)
	}
}

func TestDeclineAndPending(t *testing.T) {
	s := New("m1", roster(3), time.Now())
	s.Accept("p1#t")
	s.Accept("p2#t")
	if err := s.Decline("p2#t"); err != nil {
		t.Fatal(err)
	}
	if err := s.Decline("stranger#x"); !errors.Is(err, ErrNotInRoster) {
		t.Fatalf("expected ErrNotInRoster, got %v", err)
	}
	if got := s.Declined(); len(got) != 1 || got[0] != "p2#t" {
		t.Fatalf("declined = %v", got)
	}
	if got := len(s.Pending()); got != 9 {
		t.Fatalf("pending = %d", got)
	}
	if got := len(s.Bots()); got != 3 {
		t.Fatalf("bots = %d", got)
	}
}

func TestRemaining(t *testing.T) {
	now := time.Now()
	s := New("m1", roster(0), now.Add(5*time.Second))
	if s.Remaining(now) != 5*time.Second {
		t.Fatalf("remaining = %v", s.Remaining(now))
	}
	if s.Remaining(now.Add(time.Hour)) != 0 {
		t.Fatalf("remaining must not go negative")
	}
}

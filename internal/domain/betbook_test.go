package domain_test

import (
	"testing"

	"github.com/evetabi/roulette/internal/domain"
)

// TestBetBook_Uniqueness exercises P1 — each player appears at most once.
func TestBetBook_Uniqueness(t *testing.T) {
	b := domain.NewBetBook()
	b.Insert("alice", domain.Bet{Player: "alice", Amount: 10, Values: []uint8{1}})

	if !b.Contains("alice") {
		t.Fatal("Contains(alice) = false after insert")
	}
	if b.Contains("bob") {
		t.Fatal("Contains(bob) = true before any insert")
	}
	if got := b.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
}

// TestBetBook_StableIterationOrder exercises §5's ordering guarantee: bets
// are observed by finish in the order they were accepted.
func TestBetBook_StableIterationOrder(t *testing.T) {
	b := domain.NewBetBook()
	players := []string{"carol", "alice", "bob"}
	for i, p := range players {
		b.Insert(p, domain.Bet{Player: p, Amount: uint64(i + 1), Values: []uint8{1}})
	}

	got := b.Iter()
	if len(got) != len(players) {
		t.Fatalf("Iter() returned %d bets, want %d", len(got), len(players))
	}
	for i, p := range players {
		if got[i].Player != p {
			t.Errorf("Iter()[%d].Player = %q, want %q", i, got[i].Player, p)
		}
	}
}

// TestBetBook_InsertDoesNotDuplicateOrder ensures re-inserting the same
// player (which callers must never do — Insert's precondition) does not
// corrupt iteration order by appending a second order entry.
func TestBetBook_InsertDoesNotDuplicateOrder(t *testing.T) {
	b := domain.NewBetBook()
	b.Insert("alice", domain.Bet{Player: "alice", Amount: 1, Values: []uint8{1}})
	b.Insert("alice", domain.Bet{Player: "alice", Amount: 2, Values: []uint8{2}})

	if got := b.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
	iter := b.Iter()
	if len(iter) != 1 || iter[0].Amount != 2 {
		t.Errorf("Iter() = %+v, want single bet with Amount=2", iter)
	}
}

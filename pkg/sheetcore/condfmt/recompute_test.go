package condfmt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
)

func positiveRule(class string) Rule {
	return Rule{
		Range:     colRange(2),
		Condition: NumericCondition{Operator: OpGt, Value: decimal.Zero},
		Format:    Format{ClassName: class},
	}
}

func TestRecomputerNewerRequestWins(t *testing.T) {
	var mu sync.Mutex
	var commits []uint64
	r := NewRecomputer(RecomputerOptions{
		Delay: 20 * time.Millisecond,
		Now:   func() time.Time { return now },
		OnCommit: func(gen uint64, _ Overlay) {
			mu.Lock()
			commits = append(commits, gen)
			mu.Unlock()
		},
	})
	defer r.Close()

	r.Request(numbers(1, 1), []Rule{positiveRule("first")})
	latest := r.Request(numbers(1, 1), []Rule{positiveRule("second")})
	r.Wait()

	ov, gen := r.Overlay()
	if gen != latest {
		t.Errorf("committed generation = %d, expected %d", gen, latest)
	}
	if ov.Classes[address.Key{}] != "second" {
		t.Errorf("overlay = %v", ov.Classes)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(commits) != 1 || commits[0] != latest {
		t.Errorf("commits = %v, expected only %d", commits, latest)
	}
}

func TestRecomputerDropsStaleCommit(t *testing.T) {
	r := NewRecomputer(RecomputerOptions{Now: func() time.Time { return now }})
	defer r.Close()

	ov, ok, err := r.Recompute(context.Background(), numbers(1), []Rule{positiveRule("current")})
	if err != nil || !ok {
		t.Fatalf("Recompute = %v, %v", ok, err)
	}
	if ov.Classes[address.Key{}] != "current" {
		t.Errorf("overlay = %v", ov.Classes)
	}

	// A result computed for an older generation never replaces a newer one
	if r.commit(r.Generation()-1, newOverlay()) {
		t.Error("stale generation was committed")
	}
	if cur, _ := r.Overlay(); cur.Classes[address.Key{}] != "current" {
		t.Errorf("overlay replaced by stale result: %v", cur.Classes)
	}
}

func TestRecomputerImmediate(t *testing.T) {
	done := make(chan Overlay, 1)
	r := NewRecomputer(RecomputerOptions{
		Now:      func() time.Time { return now },
		OnCommit: func(_ uint64, ov Overlay) { done <- ov },
	})
	defer r.Close()

	r.Request(numbers(3), []Rule{positiveRule("hit")})
	select {
	case ov := <-done:
		if ov.Classes[address.Key{}] != "hit" {
			t.Errorf("overlay = %v", ov.Classes)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no commit")
	}
}

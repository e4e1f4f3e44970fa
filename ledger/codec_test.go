package ledger

import (
	"bytes"
	"math/big"
	"testing"

	"entledger/core/events"
)

func populatedLedger(t *testing.T) *Ledger {
	t.Helper()
	l, _ := newTestLedger(t, 1_000_000)
	if err := l.SetParams(alice, 10, big.NewInt(50_000_000)); err != nil {
		t.Fatalf("set params: %v", err)
	}
	if err := l.Transfer(alice, bob, big.NewInt(250_000)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := l.Approve(bob, eve, big.NewInt(42)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := l.SetAccountPrivate(alice, bob, true); err != nil {
		t.Fatalf("set private: %v", err)
	}
	if err := l.AddAccountToBlacklist(alice, eve); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	return l
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := populatedLedger(t)

	encoded, err := l.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	restored, err := Restore(encoded, events.NoopEmitter{})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.Name() != l.Name() || restored.Symbol() != l.Symbol() || restored.Decimals() != l.Decimals() {
		t.Fatalf("token params lost in round trip")
	}
	if restored.Owner() != l.Owner() {
		t.Fatalf("owner lost in round trip")
	}
	if restored.BasisPointsRate() != l.BasisPointsRate() {
		t.Fatalf("fee rate lost in round trip")
	}
	if restored.MaximumFee().Cmp(l.MaximumFee()) != 0 {
		t.Fatalf("fee cap lost in round trip")
	}
	if restored.TotalSupply().Cmp(l.TotalSupply()) != 0 {
		t.Fatalf("supply lost in round trip")
	}
	for _, account := range []struct {
		name string
		id   [20]byte
	}{{"alice", alice}, {"bob", bob}, {"eve", eve}} {
		if restored.BalanceOf(account.id).Cmp(l.BalanceOf(account.id)) != 0 {
			t.Fatalf("%s balance lost in round trip", account.name)
		}
	}
	if restored.Allowance(bob, eve).Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("allowance lost in round trip")
	}
	if !restored.IsAccountPrivate(bob) || restored.IsAccountPrivate(eve) {
		t.Fatalf("privacy flags lost in round trip")
	}
	if !restored.IsAccountBlacklisted(eve) || restored.IsAccountBlacklisted(bob) {
		t.Fatalf("blacklist flags lost in round trip")
	}
	checkConservation(t, restored)
}

func TestSnapshotDeterministic(t *testing.T) {
	first, err := populatedLedger(t).Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	second, err := populatedLedger(t).Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("equal ledgers must encode identically")
	}
}

func TestSnapshotOmitsZeroEntries(t *testing.T) {
	l, _ := newTestLedger(t, 100)
	withWrites, err := l.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// Zero-value writes must not change the canonical encoding.
	if err := l.Approve(alice, bob, big.NewInt(0)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := l.SetAccountPrivate(alice, bob, false); err != nil {
		t.Fatalf("set private: %v", err)
	}
	if err := l.AddAccountToBlacklist(alice, bob); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if err := l.RemoveAccountFromBlacklist(alice, bob); err != nil {
		t.Fatalf("unblacklist: %v", err)
	}
	afterZeroWrites, err := l.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !bytes.Equal(withWrites, afterZeroWrites) {
		t.Fatalf("zero-value entries leaked into the snapshot")
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	if _, err := Restore([]byte{0xde, 0xad, 0xbe, 0xef}, events.NoopEmitter{}); err == nil {
		t.Fatalf("expected decode error")
	}
}

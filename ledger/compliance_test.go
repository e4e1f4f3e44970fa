package ledger

import (
	"errors"
	"math/big"
	"testing"

	"entledger/core/events"
)

func TestAccountPrivacyFlag(t *testing.T) {
	l, rec := newTestLedger(t, 100)

	if l.IsAccountPrivate(bob) {
		t.Fatalf("accounts must default to public")
	}
	if err := l.SetAccountPrivate(alice, bob, true); err != nil {
		t.Fatalf("set private: %v", err)
	}
	if !l.IsAccountPrivate(bob) {
		t.Fatalf("privacy flag not set")
	}
	privacy, ok := lastEvent(t, rec).(events.Privacy)
	if !ok || privacy.Account != bob || !privacy.Private {
		t.Fatalf("unexpected privacy event %+v", lastEvent(t, rec))
	}

	if err := l.SetAccountPrivate(alice, bob, false); err != nil {
		t.Fatalf("clear private: %v", err)
	}
	if l.IsAccountPrivate(bob) {
		t.Fatalf("privacy flag not cleared")
	}
}

func TestPrivacyDoesNotBlockTransfers(t *testing.T) {
	l, _ := newTestLedger(t, 100)

	if err := l.SetAccountPrivate(alice, bob, true); err != nil {
		t.Fatalf("set private: %v", err)
	}
	if err := l.Transfer(alice, bob, big.NewInt(10)); err != nil {
		t.Fatalf("transfer to private account must succeed: %v", err)
	}
	if got := l.BalanceOf(bob); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("unexpected balance %s", got)
	}
}

func TestBlacklistLifecycle(t *testing.T) {
	l, rec := newTestLedger(t, 100)

	if l.IsAccountBlacklisted(bob) {
		t.Fatalf("accounts must default to not blacklisted")
	}
	if err := l.AddAccountToBlacklist(alice, bob); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if !l.IsAccountBlacklisted(bob) {
		t.Fatalf("blacklist flag not set")
	}
	if _, ok := lastEvent(t, rec).(events.AddedBlackList); !ok {
		t.Fatalf("expected AddedBlackList event, got %T", lastEvent(t, rec))
	}

	if err := l.RemoveAccountFromBlacklist(alice, bob); err != nil {
		t.Fatalf("unblacklist: %v", err)
	}
	if l.IsAccountBlacklisted(bob) {
		t.Fatalf("blacklist flag not cleared")
	}
	if _, ok := lastEvent(t, rec).(events.RemovedBlackList); !ok {
		t.Fatalf("expected RemovedBlackList event, got %T", lastEvent(t, rec))
	}
}

func TestBlacklistDoesNotFreezeTransfers(t *testing.T) {
	l, _ := newTestLedger(t, 100)

	if err := l.Transfer(alice, bob, big.NewInt(20)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := l.AddAccountToBlacklist(alice, bob); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	// Blacklisting only arms forced destruction; transfers still flow.
	if err := l.Transfer(bob, eve, big.NewInt(5)); err != nil {
		t.Fatalf("blacklisted account transfer must succeed: %v", err)
	}
}

func TestDestroyBlackFunds(t *testing.T) {
	l, rec := newTestLedger(t, 100)

	if err := l.Transfer(alice, bob, big.NewInt(10)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	err := l.DestroyBlackFunds(alice, bob)
	if !errors.Is(err, ErrAccountNotBlackListed) {
		t.Fatalf("expected ErrAccountNotBlackListed, got %v", err)
	}
	failed, ok := lastEvent(t, rec).(events.TransactionFailed)
	if !ok || failed.Error != "AccountNotBlackListed" {
		t.Fatalf("unexpected failure event %+v", lastEvent(t, rec))
	}

	if err := l.AddAccountToBlacklist(alice, bob); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if err := l.DestroyBlackFunds(alice, bob); err != nil {
		t.Fatalf("destroy black funds: %v", err)
	}
	if got := l.BalanceOf(bob); got.Sign() != 0 {
		t.Fatalf("funds not destroyed: %s", got)
	}
	if got := l.TotalSupply(); got.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("supply not reduced: %s", got)
	}
	destroyed, ok := lastEvent(t, rec).(events.DestroyedBlackFunds)
	if !ok || destroyed.Account != bob || destroyed.Funds.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("unexpected destruction event %+v", lastEvent(t, rec))
	}
	checkConservation(t, l)
}

func TestDestroyBlackFundsEmptyAccount(t *testing.T) {
	l, rec := newTestLedger(t, 100)

	if err := l.AddAccountToBlacklist(alice, eve); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if err := l.DestroyBlackFunds(alice, eve); err != nil {
		t.Fatalf("destroying an empty account must succeed: %v", err)
	}
	if got := l.TotalSupply(); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("supply changed destroying zero funds: %s", got)
	}
	destroyed, ok := lastEvent(t, rec).(events.DestroyedBlackFunds)
	if !ok || destroyed.Funds.Sign() != 0 {
		t.Fatalf("unexpected destruction event %+v", lastEvent(t, rec))
	}
}

package ledger

import (
	"math/big"

	"entledger/core/events"
	"entledger/core/types"
)

// SetAccountPrivate stores the advisory privacy flag for an account. The flag
// does not gate any ledger operation in this core; enforcement of privacy
// semantics belongs to the host or a higher layer. Owner only.
func (l *Ledger) SetAccountPrivate(caller, account types.AccountID, private bool) error {
	if err := l.requireOwner(caller); err != nil {
		return err
	}
	l.accountsPrivate[account] = private
	l.emit(events.Privacy{Account: account, Private: private})
	return nil
}

// AddAccountToBlacklist marks an account as blacklisted. Blacklisting alone
// does not freeze transfers; it only arms DestroyBlackFunds. Owner only.
func (l *Ledger) AddAccountToBlacklist(caller, account types.AccountID) error {
	if err := l.requireOwner(caller); err != nil {
		return err
	}
	l.accountsBlacklisted[account] = true
	l.emit(events.AddedBlackList{Account: account})
	return nil
}

// RemoveAccountFromBlacklist clears an account's blacklist flag. Owner only.
func (l *Ledger) RemoveAccountFromBlacklist(caller, account types.AccountID) error {
	if err := l.requireOwner(caller); err != nil {
		return err
	}
	l.accountsBlacklisted[account] = false
	l.emit(events.RemovedBlackList{Account: account})
	return nil
}

// DestroyBlackFunds zeroes the balance of a blacklisted account and shrinks
// the total supply by the destroyed amount. Fails with
// ErrAccountNotBlackListed when the account is not flagged. Owner only.
func (l *Ledger) DestroyBlackFunds(caller, account types.AccountID) error {
	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if !l.IsAccountBlacklisted(account) {
		return l.reject(ErrAccountNotBlackListed)
	}
	funds := l.BalanceOf(account)
	l.balances[account] = big.NewInt(0)
	l.totalSupply.Sub(l.totalSupply, funds)
	l.emit(events.DestroyedBlackFunds{Account: account, Funds: funds})
	return nil
}

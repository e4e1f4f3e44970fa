// Package ledger implements the state-transition core of a single fungible
// token book: balance and allowance accounting, a bounded proportional
// transfer fee, owner-gated issuance and redemption, and the compliance
// registry. The host environment serialises invocations, authenticates the
// caller identity passed to every command, and durably records the events the
// ledger emits.
package ledger

import (
	"math/big"

	"entledger/core/events"
	"entledger/core/types"
)

// Default token parameters applied by New when the deployment does not
// override them.
const (
	DefaultName     = "Entropy Coin"
	DefaultSymbol   = "ENT"
	DefaultDecimals = 6
)

// DefaultInitialSupply is the genesis supply minted when none is configured,
// expressed in base units (one million whole tokens at six decimals).
var DefaultInitialSupply = big.NewInt(1_000_000_000_000)

type allowanceKey struct {
	owner   types.AccountID
	spender types.AccountID
}

// Ledger is the aggregate root owning all token state. It is not safe for
// concurrent use: the host serialises calls, and every command either commits
// all of its mutations or none (preconditions are validated before the first
// write).
type Ledger struct {
	name     string
	symbol   string
	decimals uint32

	owner types.AccountID

	basisPointsRate uint32
	maximumFee      *big.Int

	totalSupply *big.Int
	balances    map[types.AccountID]*big.Int
	allowances  map[allowanceKey]*big.Int

	accountsPrivate     map[types.AccountID]bool
	accountsBlacklisted map[types.AccountID]bool

	emitter events.Emitter
}

// Construct creates a ledger with the supplied token parameters. The caller
// becomes the owner and the sole holder of the initial supply; a single
// Transfer event with no sender records the genesis mint.
func Construct(caller types.AccountID, initialSupply *big.Int, name, symbol string, decimals uint32, emitter events.Emitter) *Ledger {
	supply := amountOrZero(initialSupply)
	l := &Ledger{
		name:                name,
		symbol:              symbol,
		decimals:            decimals,
		owner:               caller,
		basisPointsRate:     0,
		maximumFee:          big.NewInt(0),
		totalSupply:         supply,
		balances:            make(map[types.AccountID]*big.Int),
		allowances:          make(map[allowanceKey]*big.Int),
		accountsPrivate:     make(map[types.AccountID]bool),
		accountsBlacklisted: make(map[types.AccountID]bool),
		emitter:             emitter,
	}
	l.balances[caller] = new(big.Int).Set(supply)
	to := caller
	l.emit(events.Transfer{From: nil, To: &to, Value: new(big.Int).Set(supply)})
	return l
}

// New creates a ledger with the default token parameters and the supplied
// initial supply.
func New(caller types.AccountID, initialSupply *big.Int, emitter events.Emitter) *Ledger {
	return Construct(caller, initialSupply, DefaultName, DefaultSymbol, DefaultDecimals, emitter)
}

// Name returns the token name.
func (l *Ledger) Name() string { return l.name }

// Symbol returns the token symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// Decimals returns the token decimal places.
func (l *Ledger) Decimals() uint32 { return l.decimals }

// Owner returns the privileged identity.
func (l *Ledger) Owner() types.AccountID { return l.owner }

// BasisPointsRate returns the transfer fee rate (per 10000).
func (l *Ledger) BasisPointsRate() uint32 { return l.basisPointsRate }

// MaximumFee returns the per-transaction fee cap.
func (l *Ledger) MaximumFee() *big.Int { return new(big.Int).Set(l.maximumFee) }

// TotalSupply returns the total token supply.
func (l *Ledger) TotalSupply() *big.Int { return new(big.Int).Set(l.totalSupply) }

// BalanceOf returns the balance of the given account, zero for accounts that
// have never been written.
func (l *Ledger) BalanceOf(account types.AccountID) *big.Int {
	if balance, ok := l.balances[account]; ok {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}

// Allowance returns the amount spender is still allowed to withdraw from
// owner, zero if unset.
func (l *Ledger) Allowance(owner, spender types.AccountID) *big.Int {
	if allowance, ok := l.allowances[allowanceKey{owner: owner, spender: spender}]; ok {
		return new(big.Int).Set(allowance)
	}
	return big.NewInt(0)
}

// IsAccountPrivate reports the advisory privacy flag for an account.
func (l *Ledger) IsAccountPrivate(account types.AccountID) bool {
	return l.accountsPrivate[account]
}

// IsAccountBlacklisted reports whether an account is blacklisted.
func (l *Ledger) IsAccountBlacklisted(account types.AccountID) bool {
	return l.accountsBlacklisted[account]
}

// SetParams replaces the fee parameters. Values above the hard ceilings
// (20 bps, 50,000,000) are clamped, not rejected. Owner only.
func (l *Ledger) SetParams(caller types.AccountID, rateBps uint32, maximumFee *big.Int) error {
	if err := l.requireOwner(caller); err != nil {
		return err
	}
	l.basisPointsRate = clampRate(rateBps)
	l.maximumFee = clampMaximumFee(maximumFee)
	l.emit(events.Params{
		BasisPointsRate: l.basisPointsRate,
		MaximumFee:      new(big.Int).Set(l.maximumFee),
	})
	return nil
}

// TransferOwnership hands the privileged identity to newOwner. Assigning the
// null identity is a silent no-op so the ledger can never be locked out by a
// zero address. Owner only. No event is emitted on success.
func (l *Ledger) TransferOwnership(caller, newOwner types.AccountID) error {
	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if !newOwner.IsZero() {
		l.owner = newOwner
	}
	return nil
}

// Transfer moves value from the caller to account to, applying the fee
// policy. Fails with ErrInsufficientBalance if the caller's balance is below
// value; no state changes on failure.
func (l *Ledger) Transfer(caller, to types.AccountID, value *big.Int) error {
	return l.transferBetween(caller, to, amountOrZero(value))
}

// Approve overwrites the caller's allowance to spender with value. The
// previous allowance does not need to be zero. Cannot fail.
func (l *Ledger) Approve(caller, spender types.AccountID, value *big.Int) error {
	l.allowances[allowanceKey{owner: caller, spender: spender}] = amountOrZero(value)
	l.emit(events.Approval{Owner: caller, Spender: spender, Value: amountOrZero(value)})
	return nil
}

// TransferFrom moves value from account from to account to on the caller's
// allowance. The allowance is checked before the balance, so allowance
// failures take priority; on any failure neither balances nor the allowance
// change.
func (l *Ledger) TransferFrom(caller, from, to types.AccountID, value *big.Int) error {
	amount := amountOrZero(value)
	key := allowanceKey{owner: from, spender: caller}
	allowance := l.Allowance(from, caller)
	if allowance.Cmp(amount) < 0 {
		return l.reject(ErrInsufficientAllowance)
	}
	if err := l.transferBetween(from, to, amount); err != nil {
		return err
	}
	l.allowances[key] = allowance.Sub(allowance, amount)
	return nil
}

// Issue credits value to the owner's balance and grows the total supply by
// the same amount. Owner only.
func (l *Ledger) Issue(caller types.AccountID, value *big.Int) error {
	if err := l.requireOwner(caller); err != nil {
		return err
	}
	amount := amountOrZero(value)
	l.credit(l.owner, amount)
	l.totalSupply.Add(l.totalSupply, amount)
	l.emit(events.Issue{Amount: amount})
	return nil
}

// Redeem debits value from the owner's balance and shrinks the total supply
// by the same amount. Owner only; fails with ErrInsufficientBalance if the
// owner holds less than value.
func (l *Ledger) Redeem(caller types.AccountID, value *big.Int) error {
	if err := l.requireOwner(caller); err != nil {
		return err
	}
	amount := amountOrZero(value)
	balance := l.BalanceOf(l.owner)
	if balance.Cmp(amount) < 0 {
		return l.reject(ErrInsufficientBalance)
	}
	l.balances[l.owner] = balance.Sub(balance, amount)
	l.totalSupply.Sub(l.totalSupply, amount)
	l.emit(events.Redeem{Amount: amount})
	return nil
}

// transferBetween is the shared transfer path: it validates the sender
// balance, splits the value per the fee policy, debits the sender in full,
// credits the recipient with the net amount, and routes the fee to the owner.
// The fee Transfer event precedes the primary Transfer event.
func (l *Ledger) transferBetween(from, to types.AccountID, value *big.Int) error {
	fromBalance := l.BalanceOf(from)
	if fromBalance.Cmp(value) < 0 {
		return l.reject(ErrInsufficientBalance)
	}

	quote := QuoteFee(value, l.basisPointsRate, l.maximumFee)

	l.balances[from] = fromBalance.Sub(fromBalance, value)
	l.credit(to, quote.Net)

	if quote.Fee.Sign() > 0 {
		l.credit(l.owner, quote.Fee)
		sender, owner := from, l.owner
		l.emit(events.Transfer{From: &sender, To: &owner, Value: quote.Fee})
	}

	sender, recipient := from, to
	l.emit(events.Transfer{From: &sender, To: &recipient, Value: quote.Net})
	return nil
}

func (l *Ledger) credit(account types.AccountID, amount *big.Int) {
	if balance, ok := l.balances[account]; ok {
		balance.Add(balance, amount)
		return
	}
	l.balances[account] = new(big.Int).Set(amount)
}

// requireOwner gates privileged commands. Privilege is re-checked on every
// invocation; a rejected caller gets a failure event before the error.
func (l *Ledger) requireOwner(caller types.AccountID) error {
	if caller != l.owner {
		return l.reject(ErrPermissionDenied)
	}
	return nil
}

// reject emits the failure audit event and returns the error unchanged.
func (l *Ledger) reject(err error) error {
	l.emit(events.TransactionFailed{Error: Code(err)})
	return err
}

func (l *Ledger) emit(evt events.Event) {
	if l.emitter == nil {
		return
	}
	l.emitter.Emit(evt)
}

// amountOrZero copies v, normalising nil and negative inputs to zero. The
// token amount domain is unsigned; negative values cannot be expressed by
// any host encoding and are treated as empty.
func amountOrZero(v *big.Int) *big.Int {
	if v == nil || v.Sign() < 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

package ledger

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"entledger/core/events"
	"entledger/core/types"
)

// The snapshot codec produces a canonical RLP encoding of the full ledger
// state so the host can persist and replicate it byte-for-byte. Entries with
// zero values or cleared flags are omitted (zero is equivalent to absence)
// and the remaining entries are sorted by account bytes, so two ledgers with
// equal state always encode identically.

type storedBalance struct {
	Account [types.AddressLength]byte
	Value   *uint256.Int
}

type storedAllowance struct {
	Owner   [types.AddressLength]byte
	Spender [types.AddressLength]byte
	Value   *uint256.Int
}

type ledgerSnapshot struct {
	Name            string
	Symbol          string
	Decimals        uint32
	Owner           [types.AddressLength]byte
	BasisPointsRate uint32
	MaximumFee      *uint256.Int
	TotalSupply     *uint256.Int
	Balances        []storedBalance
	Allowances      []storedAllowance
	Private         [][types.AddressLength]byte
	Blacklisted     [][types.AddressLength]byte
}

// Snapshot encodes the full ledger state into its canonical RLP form.
func (l *Ledger) Snapshot() ([]byte, error) {
	snap := ledgerSnapshot{
		Name:            l.name,
		Symbol:          l.symbol,
		Decimals:        l.decimals,
		Owner:           l.owner,
		BasisPointsRate: l.basisPointsRate,
	}

	var err error
	if snap.MaximumFee, err = toUint256("maximum fee", l.maximumFee); err != nil {
		return nil, err
	}
	if snap.TotalSupply, err = toUint256("total supply", l.totalSupply); err != nil {
		return nil, err
	}

	for account, balance := range l.balances {
		if balance == nil || balance.Sign() == 0 {
			continue
		}
		value, convErr := toUint256("balance", balance)
		if convErr != nil {
			return nil, convErr
		}
		snap.Balances = append(snap.Balances, storedBalance{Account: account, Value: value})
	}
	sort.Slice(snap.Balances, func(i, j int) bool {
		return bytes.Compare(snap.Balances[i].Account[:], snap.Balances[j].Account[:]) < 0
	})

	for key, allowance := range l.allowances {
		if allowance == nil || allowance.Sign() == 0 {
			continue
		}
		value, convErr := toUint256("allowance", allowance)
		if convErr != nil {
			return nil, convErr
		}
		snap.Allowances = append(snap.Allowances, storedAllowance{
			Owner:   key.owner,
			Spender: key.spender,
			Value:   value,
		})
	}
	sort.Slice(snap.Allowances, func(i, j int) bool {
		if cmp := bytes.Compare(snap.Allowances[i].Owner[:], snap.Allowances[j].Owner[:]); cmp != 0 {
			return cmp < 0
		}
		return bytes.Compare(snap.Allowances[i].Spender[:], snap.Allowances[j].Spender[:]) < 0
	})

	snap.Private = sortedFlagged(l.accountsPrivate)
	snap.Blacklisted = sortedFlagged(l.accountsBlacklisted)

	return rlp.EncodeToBytes(&snap)
}

// Restore rebuilds a ledger from a snapshot produced by Snapshot. The emitter
// is attached for subsequent commands; restoring emits nothing.
func Restore(data []byte, emitter events.Emitter) (*Ledger, error) {
	var snap ledgerSnapshot
	if err := rlp.DecodeBytes(data, &snap); err != nil {
		return nil, fmt.Errorf("ledger: decode snapshot: %w", err)
	}

	l := &Ledger{
		name:                snap.Name,
		symbol:              snap.Symbol,
		decimals:            snap.Decimals,
		owner:               snap.Owner,
		basisPointsRate:     clampRate(snap.BasisPointsRate),
		maximumFee:          fromUint256(snap.MaximumFee),
		totalSupply:         fromUint256(snap.TotalSupply),
		balances:            make(map[types.AccountID]*big.Int, len(snap.Balances)),
		allowances:          make(map[allowanceKey]*big.Int, len(snap.Allowances)),
		accountsPrivate:     make(map[types.AccountID]bool, len(snap.Private)),
		accountsBlacklisted: make(map[types.AccountID]bool, len(snap.Blacklisted)),
		emitter:             emitter,
	}
	for _, entry := range snap.Balances {
		l.balances[entry.Account] = fromUint256(entry.Value)
	}
	for _, entry := range snap.Allowances {
		l.allowances[allowanceKey{owner: entry.Owner, spender: entry.Spender}] = fromUint256(entry.Value)
	}
	for _, account := range snap.Private {
		l.accountsPrivate[account] = true
	}
	for _, account := range snap.Blacklisted {
		l.accountsBlacklisted[account] = true
	}
	return l, nil
}

func sortedFlagged(flags map[types.AccountID]bool) [][types.AddressLength]byte {
	var out [][types.AddressLength]byte
	for account, set := range flags {
		if !set {
			continue
		}
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

func toUint256(field string, v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return uint256.NewInt(0), nil
	}
	converted, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("ledger: %s overflows 256 bits", field)
	}
	return converted, nil
}

func fromUint256(v *uint256.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v.ToBig()
}

package events

import (
	"math/big"
	"strconv"

	"entledger/core/types"
)

const (
	// TypePrivacy marks an account privacy flag update.
	TypePrivacy = "compliance.privacy"
	// TypeAddedBlackList marks an account being blacklisted.
	TypeAddedBlackList = "compliance.blacklist.added"
	// TypeRemovedBlackList marks an account leaving the blacklist.
	TypeRemovedBlackList = "compliance.blacklist.removed"
	// TypeDestroyedBlackFunds marks forced destruction of a blacklisted
	// account's funds.
	TypeDestroyedBlackFunds = "compliance.blackfunds.destroyed"
	// TypeTransactionFailed marks a rejected command; emitted before the
	// error is returned so every rejection leaves an audit trail entry.
	TypeTransactionFailed = "token.transaction_failed"
)

// Privacy records an account privacy flag update.
type Privacy struct {
	Account types.AccountID
	Private bool
}

// EventType satisfies the events.Event interface.
func (Privacy) EventType() string { return TypePrivacy }

// Event converts the structured payload into a broadcastable event.
func (e Privacy) Event() *types.Event {
	return &types.Event{Type: TypePrivacy, Attributes: map[string]string{
		"account": e.Account.String(),
		"private": strconv.FormatBool(e.Private),
	}}
}

// AddedBlackList records an account being blacklisted.
type AddedBlackList struct {
	Account types.AccountID
}

// EventType satisfies the events.Event interface.
func (AddedBlackList) EventType() string { return TypeAddedBlackList }

// Event converts the structured payload into a broadcastable event.
func (e AddedBlackList) Event() *types.Event {
	return &types.Event{Type: TypeAddedBlackList, Attributes: map[string]string{
		"account": e.Account.String(),
	}}
}

// RemovedBlackList records an account leaving the blacklist.
type RemovedBlackList struct {
	Account types.AccountID
}

// EventType satisfies the events.Event interface.
func (RemovedBlackList) EventType() string { return TypeRemovedBlackList }

// Event converts the structured payload into a broadcastable event.
func (e RemovedBlackList) Event() *types.Event {
	return &types.Event{Type: TypeRemovedBlackList, Attributes: map[string]string{
		"account": e.Account.String(),
	}}
}

// DestroyedBlackFunds records forced destruction of a blacklisted account's
// entire balance.
type DestroyedBlackFunds struct {
	Account types.AccountID
	Funds   *big.Int
}

// EventType satisfies the events.Event interface.
func (DestroyedBlackFunds) EventType() string { return TypeDestroyedBlackFunds }

// Event converts the structured payload into a broadcastable event.
func (e DestroyedBlackFunds) Event() *types.Event {
	return &types.Event{Type: TypeDestroyedBlackFunds, Attributes: map[string]string{
		"account": e.Account.String(),
		"funds":   amountString(e.Funds),
	}}
}

// TransactionFailed records a rejected command together with its taxonomy
// code.
type TransactionFailed struct {
	Error string
}

// EventType satisfies the events.Event interface.
func (TransactionFailed) EventType() string { return TypeTransactionFailed }

// Event converts the structured payload into a broadcastable event.
func (e TransactionFailed) Event() *types.Event {
	return &types.Event{Type: TypeTransactionFailed, Attributes: map[string]string{
		"error": e.Error,
	}}
}

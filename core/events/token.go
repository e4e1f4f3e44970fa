package events

import (
	"math/big"
	"strconv"

	"entledger/core/types"
)

const (
	// TypeTransfer marks value moving between accounts, including the
	// construction mint (no sender) and fee routing to the owner.
	TypeTransfer = "token.transfer"
	// TypeApproval marks an allowance being overwritten by its owner.
	TypeApproval = "token.approval"
	// TypeIssue marks supply created into the owner account.
	TypeIssue = "token.issue"
	// TypeRedeem marks supply destroyed from the owner account.
	TypeRedeem = "token.redeem"
	// TypeParams marks the fee parameters being replaced.
	TypeParams = "token.params"
)

// Transfer records value moving from one account to another. From is nil for
// the construction mint; the fee leg of a transfer is emitted as its own
// Transfer with the ledger owner as recipient.
type Transfer struct {
	From  *types.AccountID
	To    *types.AccountID
	Value *big.Int
}

// EventType satisfies the events.Event interface.
func (Transfer) EventType() string { return TypeTransfer }

// Event converts the structured payload into a broadcastable event.
func (e Transfer) Event() *types.Event {
	attrs := map[string]string{
		"value": amountString(e.Value),
	}
	if e.From != nil {
		attrs["from"] = e.From.String()
	}
	if e.To != nil {
		attrs["to"] = e.To.String()
	}
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}

// Approval records an allowance overwrite from owner to spender.
type Approval struct {
	Owner   types.AccountID
	Spender types.AccountID
	Value   *big.Int
}

// EventType satisfies the events.Event interface.
func (Approval) EventType() string { return TypeApproval }

// Event converts the structured payload into a broadcastable event.
func (e Approval) Event() *types.Event {
	return &types.Event{Type: TypeApproval, Attributes: map[string]string{
		"owner":   e.Owner.String(),
		"spender": e.Spender.String(),
		"value":   amountString(e.Value),
	}}
}

// Issue records supply created into the owner account.
type Issue struct {
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (Issue) EventType() string { return TypeIssue }

// Event converts the structured payload into a broadcastable event.
func (e Issue) Event() *types.Event {
	return &types.Event{Type: TypeIssue, Attributes: map[string]string{
		"amount": amountString(e.Amount),
	}}
}

// Redeem records supply destroyed from the owner account.
type Redeem struct {
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (Redeem) EventType() string { return TypeRedeem }

// Event converts the structured payload into a broadcastable event.
func (e Redeem) Event() *types.Event {
	return &types.Event{Type: TypeRedeem, Attributes: map[string]string{
		"amount": amountString(e.Amount),
	}}
}

// Params records the fee configuration after clamping.
type Params struct {
	BasisPointsRate uint32
	MaximumFee      *big.Int
}

// EventType satisfies the events.Event interface.
func (Params) EventType() string { return TypeParams }

// Event converts the structured payload into a broadcastable event.
func (e Params) Event() *types.Event {
	return &types.Event{Type: TypeParams, Attributes: map[string]string{
		"basisPointsRate": strconv.FormatUint(uint64(e.BasisPointsRate), 10),
		"maximumFee":      amountString(e.MaximumFee),
	}}
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the raw byte width of a ledger account identity.
const AddressLength = 20

// AccountID is the opaque identity of a ledger participant. The host
// authenticates callers and hands their identity to the core as-is; the zero
// value is the designated null identity.
type AccountID [AddressLength]byte

// IsZero reports whether the identity is the null account.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// String renders the identity as 0x-prefixed hex.
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns a copy of the raw identity bytes.
func (a AccountID) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a[:])
	return out
}

// ParseAccountID normalises and validates an account identity expressed as a
// hex string, with or without the 0x prefix.
func ParseAccountID(raw string) (AccountID, error) {
	var id AccountID
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
	}
	if len(trimmed) != AddressLength*2 {
		return id, fmt.Errorf("types: account id must be %d bytes (got %d hex chars)", AddressLength, len(trimmed))
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return id, fmt.Errorf("types: decode account id: %w", err)
	}
	copy(id[:], decoded)
	return id, nil
}

// MustAccountID parses a hex identity and panics on malformed input. Intended
// for fixtures and genesis wiring where the value is static.
func MustAccountID(raw string) AccountID {
	id, err := ParseAccountID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

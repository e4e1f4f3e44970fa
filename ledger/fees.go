package ledger

import "math/big"

const (
	// BpsDenominator defines the scaling factor used for basis point math on
	// the transfer path.
	BpsDenominator = 10_000
	// MaxBasisPointsRate is the hard ceiling on the fee rate (0.2%). SetParams
	// clamps higher requests down to this value.
	MaxBasisPointsRate = 20
)

// MaxMaximumFee is the hard ceiling on the per-transaction fee cap. SetParams
// clamps higher requests down to this value.
var MaxMaximumFee = big.NewInt(50_000_000)

// FeeQuote summarises the fee split for a transfer: the sender is debited
// Fee+Net in full, the recipient is credited Net, and the owner collects Fee.
type FeeQuote struct {
	Fee *big.Int
	Net *big.Int
}

// QuoteFee evaluates the fee policy for a transfer of value under the given
// parameters. The fee is floor(value*rateBps/10000) capped at maximumFee, so
// 0 <= fee <= min(maximumFee, value) and Fee+Net always equals value.
func QuoteFee(value *big.Int, rateBps uint32, maximumFee *big.Int) FeeQuote {
	quote := FeeQuote{Fee: big.NewInt(0)}
	if value != nil && value.Sign() > 0 {
		quote.Net = new(big.Int).Set(value)
	} else {
		quote.Net = big.NewInt(0)
	}
	if rateBps == 0 || quote.Net.Sign() == 0 {
		return quote
	}
	fee := new(big.Int).Mul(quote.Net, big.NewInt(int64(rateBps)))
	fee = fee.Div(fee, big.NewInt(BpsDenominator))
	if maximumFee != nil && fee.Cmp(maximumFee) > 0 {
		fee = new(big.Int).Set(maximumFee)
	}
	if fee.Sign() <= 0 {
		return quote
	}
	quote.Fee = fee
	quote.Net = new(big.Int).Sub(quote.Net, fee)
	return quote
}

func clampRate(rateBps uint32) uint32 {
	if rateBps > MaxBasisPointsRate {
		return MaxBasisPointsRate
	}
	return rateBps
}

func clampMaximumFee(maxFee *big.Int) *big.Int {
	if maxFee == nil || maxFee.Sign() < 0 {
		return big.NewInt(0)
	}
	if maxFee.Cmp(MaxMaximumFee) > 0 {
		return new(big.Int).Set(MaxMaximumFee)
	}
	return new(big.Int).Set(maxFee)
}

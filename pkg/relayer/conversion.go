package relayer

import (
	"errors"
	"math/big"
)

var (
	ErrZeroAmount     = errors.New("converted amount is zero")
	ErrAmountOverflow = errors.New("converted amount exceeds the ASA range")
)

func pow10(decimals uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(uint64(decimals)), nil)
}

// ToAssetUnits converts a TT amount to ASA base units, flooring the remainder
func ToAssetUnits(amount *big.Int, decimals uint) (uint64, error) {
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrZeroAmount
	}

	units := new(big.Int).Quo(amount, pow10(decimals))
	if units.Sign() == 0 {
		return 0, ErrZeroAmount
	}
	if !units.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return units.Uint64(), nil
}

// ToTokenUnits converts ASA base units to a TT amount
func ToTokenUnits(units uint64, decimals uint) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(units), pow10(decimals))
}

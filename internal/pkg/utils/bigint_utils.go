package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatBigInt converts a big.Int value to a human-readable string,
// considering the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) (string, error) {
	if amount == nil {
		return "0", nil
	}
	if decimals == 0 {
		return amount.String(), nil
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(amountFloat, divisor)

	formatted := value.Text('f', int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if strings.HasPrefix(formatted, ".") {
		formatted = "0" + formatted
	}
	if formatted == "" {
		if amount.Sign() == 0 {
			return "0", nil
		}
		return value.Text('f', 2), fmt.Errorf("formatting resulted in empty string for non-zero value")
	}
	return formatted, nil
}

// CalculateValueUSD converts a raw atomic amount into its USD value given the
// token's decimals and a unit price.
func CalculateValueUSD(amount *big.Int, decimals uint8, priceUSD float64) (float64, error) {
	if amount == nil {
		return 0, nil
	}
	if priceUSD < 0 {
		return 0, fmt.Errorf("negative price %f", priceUSD)
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	human := new(big.Float).Quo(amountFloat, divisor)
	value := new(big.Float).Mul(human, big.NewFloat(priceUSD))

	out, _ := value.Float64()
	return out, nil
}

// AmountForUSD converts a USD amount into raw atomic token units for a token
// priced at priceUSD per whole unit. Used to size transfers denominated in USD.
func AmountForUSD(usd float64, decimals uint8, priceUSD float64) (*big.Int, error) {
	if usd < 0 {
		return nil, fmt.Errorf("negative usd amount %f", usd)
	}
	if priceUSD <= 0 {
		return nil, fmt.Errorf("non-positive price %f", priceUSD)
	}

	units := new(big.Float).Quo(big.NewFloat(usd), big.NewFloat(priceUSD))
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	raw := new(big.Float).Mul(units, scale)

	out, _ := raw.Int(nil)
	return out, nil
}

// PortionOfAmount returns the fraction part/whole of a raw atomic amount,
// rounded down. It caps at the full amount so float noise can never select
// more than the holder has.
func PortionOfAmount(amount *big.Int, part, whole float64) *big.Int {
	if amount == nil || whole <= 0 || part <= 0 {
		return big.NewInt(0)
	}
	if part >= whole {
		return new(big.Int).Set(amount)
	}

	scaled := new(big.Float).Mul(new(big.Float).SetInt(amount), big.NewFloat(part))
	portion := new(big.Float).Quo(scaled, big.NewFloat(whole))

	out, _ := portion.Int(nil)
	if out.Cmp(amount) > 0 {
		return new(big.Int).Set(amount)
	}
	return out
}

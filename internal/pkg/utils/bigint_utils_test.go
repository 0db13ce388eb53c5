package utils

import (
	"bytes"
	"math/big"
	"testing"
)

func TestFormatBigInt(t *testing.T) {
	cases := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		want     string
	}{
		{"nil amount", nil, 18, "0"},
		{"zero", big.NewInt(0), 18, "0"},
		{"no decimals", big.NewInt(12345), 0, "12345"},
		{"trailing zeros trimmed", big.NewInt(1_234_500_000_000_000_000), 18, "1.2345"},
		{"whole unit", big.NewInt(1_000_000), 6, "1"},
		{"sub unit", big.NewInt(500_000), 6, "0.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FormatBigInt(tc.amount, tc.decimals)
			if err != nil {
				t.Fatalf("FormatBigInt returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("FormatBigInt = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCalculateValueUSD(t *testing.T) {
	value, err := CalculateValueUSD(big.NewInt(2_500_000), 6, 1.0)
	if err != nil {
		t.Fatalf("CalculateValueUSD returned error: %v", err)
	}
	if value != 2.5 {
		t.Fatalf("expected 2.5, got %f", value)
	}

	value, err = CalculateValueUSD(big.NewInt(1_000_000_000_000_000_000), 18, 2000)
	if err != nil {
		t.Fatalf("CalculateValueUSD returned error: %v", err)
	}
	if value != 2000 {
		t.Fatalf("expected 2000, got %f", value)
	}

	if _, err := CalculateValueUSD(big.NewInt(1), 6, -1); err == nil {
		t.Fatal("expected an error for a negative price")
	}
	value, err = CalculateValueUSD(nil, 6, 1.0)
	if err != nil || value != 0 {
		t.Fatalf("nil amount should value at zero, got %f err=%v", value, err)
	}
}

func TestAmountForUSD(t *testing.T) {
	raw, err := AmountForUSD(12.5, 6, 1.0)
	if err != nil {
		t.Fatalf("AmountForUSD returned error: %v", err)
	}
	if raw.Cmp(big.NewInt(12_500_000)) != 0 {
		t.Fatalf("expected 12500000, got %s", raw)
	}

	raw, err = AmountForUSD(1000, 18, 2000)
	if err != nil {
		t.Fatalf("AmountForUSD returned error: %v", err)
	}
	if raw.Cmp(big.NewInt(500_000_000_000_000_000)) != 0 {
		t.Fatalf("expected half a unit, got %s", raw)
	}

	if _, err := AmountForUSD(-1, 6, 1.0); err == nil {
		t.Fatal("expected an error for a negative usd amount")
	}
	if _, err := AmountForUSD(10, 6, 0); err == nil {
		t.Fatal("expected an error for a zero price")
	}
}

func TestPortionOfAmount(t *testing.T) {
	amount := big.NewInt(30_000_000)

	if got := PortionOfAmount(amount, 10, 30); got.Cmp(big.NewInt(10_000_000)) != 0 {
		t.Fatalf("expected a third, got %s", got)
	}
	if got := PortionOfAmount(amount, 30, 30); got.Cmp(amount) != 0 {
		t.Fatalf("full part should return the full amount, got %s", got)
	}
	if got := PortionOfAmount(amount, 40, 30); got.Cmp(amount) != 0 {
		t.Fatalf("oversized part must cap at the full amount, got %s", got)
	}
	if got := PortionOfAmount(amount, 0, 30); got.Sign() != 0 {
		t.Fatalf("zero part should yield zero, got %s", got)
	}
	if got := PortionOfAmount(nil, 10, 30); got.Sign() != 0 {
		t.Fatalf("nil amount should yield zero, got %s", got)
	}
	if got := PortionOfAmount(amount, 10, 0); got.Sign() != 0 {
		t.Fatalf("zero whole should yield zero, got %s", got)
	}
}

func TestERC20TransferCalldata(t *testing.T) {
	data := ERC20TransferCalldata("0x000000000000000000000000000000000000dEaD", big.NewInt(1_000_000))

	if len(data) != 68 {
		t.Fatalf("expected 68 bytes of calldata, got %d", len(data))
	}
	if !bytes.Equal(data[:4], []byte{0xa9, 0x05, 0x9c, 0xbb}) {
		t.Fatalf("wrong selector: %x", data[:4])
	}
	if data[34] != 0xde || data[35] != 0xad {
		t.Fatalf("recipient not encoded in the first argument slot: %x", data[4:36])
	}
	amount := new(big.Int).SetBytes(data[36:])
	if amount.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("amount not encoded in the second argument slot, got %s", amount)
	}
}

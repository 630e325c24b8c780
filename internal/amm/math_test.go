package amm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/zenopie/animal-swap/internal/pool"
)

func bi(v int64) *big.Int { return big.NewInt(v) }

// ============================================================
// Test: fee split
// ============================================================

func TestFeeSplit(t *testing.T) {
	cases := []struct {
		amount  int64
		feeBps  uint64
		wantFee int64
		wantNet int64
	}{
		{10000, 30, 30, 9970},
		{10000, 0, 0, 10000},
		{10000, 10000, 10000, 0},
		{1, 30, 0, 1},     // rounds down to zero fee
		{333, 100, 3, 330},
		{0, 30, 0, 0},
	}

	for _, tc := range cases {
		fee, net := FeeSplit(bi(tc.amount), tc.feeBps)
		if fee.Int64() != tc.wantFee || net.Int64() != tc.wantNet {
			t.Errorf("FeeSplit(%d, %d) = (%s, %s), want (%d, %d)",
				tc.amount, tc.feeBps, fee, net, tc.wantFee, tc.wantNet)
		}
	}
}

func TestFeeSplitDoesNotMutateInput(t *testing.T) {
	amount := bi(10000)
	FeeSplit(amount, 30)
	if amount.Int64() != 10000 {
		t.Errorf("input mutated to %s", amount)
	}
}

// ============================================================
// Test: constant-product pricing
// ============================================================

func TestConstantProductOutputReferenceTrade(t *testing.T) {
	// 10,000 base into a 1,000,000/1,000,000 pool at 30 bps.
	fee, net := FeeSplit(bi(10000), 30)
	if fee.Int64() != 30 {
		t.Fatalf("fee = %s, want 30", fee)
	}
	if net.Int64() != 9970 {
		t.Fatalf("net = %s, want 9970", net)
	}

	out, err := ConstantProductOutput(net, bi(1000000), bi(1000000))
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	if out.Int64() != 9871 {
		t.Errorf("output = %s, want 9871", out)
	}
}

func TestConstantProductOutputRejectsEmptyReserves(t *testing.T) {
	// A drained side cannot price or pay out a trade, whatever the input.
	cases := []struct {
		name                         string
		input, reserveIn, reserveOut int64
	}{
		{"empty pool, zero input", 0, 0, 0},
		{"empty pool, positive input", 9970, 0, 0},
		{"drained output side", 9970, 1000, 0},
		{"drained input side", 9970, 0, 1000},
	}
	for _, tc := range cases {
		_, err := ConstantProductOutput(bi(tc.input), bi(tc.reserveIn), bi(tc.reserveOut))
		if !errors.Is(err, pool.ErrInsufficientLiquidity) {
			t.Errorf("%s: got %v, want ErrInsufficientLiquidity", tc.name, err)
		}
	}
}

func TestConstantProductOutputBoundedByReserve(t *testing.T) {
	// Output never exceeds the opposing reserve, however large the input.
	reserveIn, reserveOut := bi(1000), bi(500)
	inputs := []int64{1, 10, 1000, 1_000_000, 1_000_000_000}
	for _, in := range inputs {
		out, err := ConstantProductOutput(bi(in), reserveIn, reserveOut)
		if err != nil {
			t.Fatalf("input %d: %v", in, err)
		}
		if out.Cmp(reserveOut) > 0 {
			t.Errorf("input %d: output %s exceeds reserve %s", in, out, reserveOut)
		}
	}
}

func TestConstantProductOutputProductNonDecreasing(t *testing.T) {
	// Rounding always favors the pool: k never shrinks across a trade.
	reserveIn, reserveOut := bi(123457), bi(987653)
	before := new(big.Int).Mul(reserveIn, reserveOut)

	for in := int64(1); in < 5000; in += 137 {
		out, err := ConstantProductOutput(bi(in), reserveIn, reserveOut)
		if err != nil {
			t.Fatalf("input %d: %v", in, err)
		}
		newIn := new(big.Int).Add(reserveIn, bi(in))
		newOut := new(big.Int).Sub(reserveOut, out)
		after := new(big.Int).Mul(newIn, newOut)
		if after.Cmp(before) < 0 {
			t.Errorf("input %d: product shrank %s -> %s", in, before, after)
		}
	}
}

// ============================================================
// Test: share math
// ============================================================

func TestInitialShares(t *testing.T) {
	if got := InitialShares(bi(1000), bi(2000)); got.Int64() != 3000 {
		t.Errorf("got %s, want 3000", got)
	}
	// One-sided initial deposits are allowed.
	if got := InitialShares(bi(1000), bi(0)); got.Int64() != 1000 {
		t.Errorf("got %s, want 1000", got)
	}
}

func TestProportionalSharesBalanced(t *testing.T) {
	shares, usedBase, usedQuote := ProportionalShares(
		bi(100), bi(200), bi(1000), bi(2000), bi(3000))
	if shares.Int64() != 300 {
		t.Errorf("shares = %s, want 300", shares)
	}
	if usedBase.Int64() != 100 || usedQuote.Int64() != 200 {
		t.Errorf("used = (%s, %s), want (100, 200)", usedBase, usedQuote)
	}
}

func TestProportionalSharesLimitedByQuote(t *testing.T) {
	// Quote side is the limiting asset; base excess is left unconsumed.
	shares, usedBase, usedQuote := ProportionalShares(
		bi(500), bi(200), bi(1000), bi(2000), bi(3000))
	if shares.Int64() != 300 {
		t.Errorf("shares = %s, want 300", shares)
	}
	if usedBase.Int64() != 100 {
		t.Errorf("usedBase = %s, want 100", usedBase)
	}
	if usedQuote.Int64() != 200 {
		t.Errorf("usedQuote = %s, want 200", usedQuote)
	}
}

func TestProportionalSharesUsedNeverExceedsOffered(t *testing.T) {
	shares, usedBase, usedQuote := ProportionalShares(
		bi(333), bi(777), bi(10007), bi(20011), bi(30013))
	if shares.Sign() <= 0 {
		t.Fatalf("shares = %s", shares)
	}
	if usedBase.Cmp(bi(333)) > 0 {
		t.Errorf("usedBase %s exceeds offered 333", usedBase)
	}
	if usedQuote.Cmp(bi(777)) > 0 {
		t.Errorf("usedQuote %s exceeds offered 777", usedQuote)
	}
}

func TestRedeemAmountsProRata(t *testing.T) {
	outBase, outQuote := RedeemAmounts(bi(300), bi(1000), bi(2000), bi(3000))
	if outBase.Int64() != 100 || outQuote.Int64() != 200 {
		t.Errorf("got (%s, %s), want (100, 200)", outBase, outQuote)
	}
}

func TestRedeemAmountsFullBurnDrainsReserves(t *testing.T) {
	outBase, outQuote := RedeemAmounts(bi(3000), bi(1000), bi(2000), bi(3000))
	if outBase.Int64() != 1000 || outQuote.Int64() != 2000 {
		t.Errorf("got (%s, %s), want (1000, 2000)", outBase, outQuote)
	}
}

func TestRedeemAmountsPartialBurnLeavesReserves(t *testing.T) {
	// A partial burn can never drain a reserve completely.
	for shares := int64(1); shares < 10; shares++ {
		outBase, _ := RedeemAmounts(bi(shares), bi(1), bi(1000), bi(10))
		if outBase.Int64() >= 1 {
			t.Errorf("shares %d: drained base reserve (out=%s)", shares, outBase)
		}
	}
}

package engine

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/zenopie/animal-swap/internal/msg"
	"github.com/zenopie/animal-swap/internal/pool"
	"github.com/zenopie/animal-swap/internal/token"
)

func addLiquidityInv(id string, amountBase, amountQuote int64) msg.Invocation {
	return msg.Invocation{
		MessageID: id,
		Sender:    userAddr,
		Msg: &msg.AddLiquidity{
			Provider:    userAddr,
			AmountBase:  big.NewInt(amountBase),
			AmountQuote: big.NewInt(amountQuote),
		},
	}
}

func instructionKinds(instrs []token.Instruction) []token.Kind {
	kinds := make([]token.Kind, len(instrs))
	for i, in := range instrs {
		kinds[i] = in.Kind
	}
	return kinds
}

// ============================================================
// Test: add liquidity
// ============================================================

func TestInitialDepositSetsRatio(t *testing.T) {
	ms := pool.NewMemStore()
	ms.Seed(emptyReadyState())
	eng := newTestEngine(t, ms, 0)

	out, err := eng.Execute(context.Background(), addLiquidityInv("m-add", 1000, 2000))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// Pull base, pull quote, mint. No refunds on the initial deposit.
	if len(out.Instructions) != 3 {
		t.Fatalf("instructions = %v", instructionKinds(out.Instructions))
	}
	if out.Instructions[0].Kind != token.KindTransferFrom || out.Instructions[0].Amount.Int64() != 1000 {
		t.Errorf("base pull = %+v", out.Instructions[0])
	}
	if out.Instructions[1].Kind != token.KindTransferFrom || out.Instructions[1].Amount.Int64() != 2000 {
		t.Errorf("quote pull = %+v", out.Instructions[1])
	}
	mint := out.Instructions[2]
	if mint.Kind != token.KindMint || mint.Amount.Int64() != 3000 || mint.Recipient != userAddr {
		t.Errorf("mint = %+v", mint)
	}

	st := loadState(t, ms)
	if st.BaseReserve.Int64() != 1000 || st.QuoteReserve.Int64() != 2000 || st.TotalShares.Int64() != 3000 {
		t.Errorf("state = %s/%s/%s", st.BaseReserve, st.QuoteReserve, st.TotalShares)
	}
}

func TestProportionalDepositRefundsExcess(t *testing.T) {
	ms := pool.NewMemStore()
	ms.Seed(readyState()) // 1,000,000 / 1,000,000 / 2,000,000
	eng := newTestEngine(t, ms, 0)

	// Quote limits: 200 quote buys 400 shares; only 200 base is consumed,
	// the 300 excess comes back.
	out, err := eng.Execute(context.Background(), addLiquidityInv("m-add", 500, 200))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if len(out.Instructions) != 4 {
		t.Fatalf("instructions = %v", instructionKinds(out.Instructions))
	}
	refund := out.Instructions[2]
	if refund.Kind != token.KindTransfer || refund.Amount.Int64() != 300 || refund.Recipient != userAddr {
		t.Errorf("refund = %+v", refund)
	}
	if refund.Contract != baseAddr {
		t.Errorf("refund contract = %q, want base token", refund.Contract)
	}
	mint := out.Instructions[3]
	if mint.Kind != token.KindMint || mint.Amount.Int64() != 400 {
		t.Errorf("mint = %+v", mint)
	}

	st := loadState(t, ms)
	if st.BaseReserve.Int64() != 1_000_200 || st.QuoteReserve.Int64() != 1_000_200 {
		t.Errorf("reserves = %s/%s", st.BaseReserve, st.QuoteReserve)
	}
	if st.TotalShares.Int64() != 2_000_400 {
		t.Errorf("shares = %s", st.TotalShares)
	}
}

func TestRefundDustThresholdSuppressesSmallRefunds(t *testing.T) {
	// Pool ratio 1:1 at 1000/1000 with 2000 shares.
	seed := func() *pool.State {
		st := readyState()
		st.BaseReserve.SetInt64(1000)
		st.QuoteReserve.SetInt64(1000)
		st.TotalShares.SetInt64(2000)
		return st
	}

	// Excess of 2 with threshold 2: absorbed, no refund instruction.
	ms := pool.NewMemStore()
	ms.Seed(seed())
	eng := newTestEngine(t, ms, 2)
	out, err := eng.Execute(context.Background(), addLiquidityInv("m-a", 12, 10))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	for _, in := range out.Instructions {
		if in.Kind == token.KindTransfer {
			t.Errorf("dust excess refunded: %+v", in)
		}
	}

	// Excess of 3 with threshold 2: refunded.
	ms = pool.NewMemStore()
	ms.Seed(seed())
	eng = newTestEngine(t, ms, 2)
	out, err = eng.Execute(context.Background(), addLiquidityInv("m-b", 13, 10))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	var refunded bool
	for _, in := range out.Instructions {
		if in.Kind == token.KindTransfer && in.Amount.Int64() == 3 {
			refunded = true
		}
	}
	if !refunded {
		t.Errorf("excess above threshold not refunded: %v", instructionKinds(out.Instructions))
	}
}

func TestZeroDepositRejected(t *testing.T) {
	ms := pool.NewMemStore()
	ms.Seed(readyState())
	eng := newTestEngine(t, ms, 0)

	if _, err := eng.Execute(context.Background(), addLiquidityInv("m-z", 0, 0)); err == nil {
		t.Fatal("zero deposit accepted")
	}
}

func TestTinyDepositRejectedWhenNoSharesMint(t *testing.T) {
	// Deposits too small to buy a single share must not vanish into the pool.
	ms := pool.NewMemStore()
	st := readyState()
	st.TotalShares.SetInt64(1) // 1 share over 1M/1M reserves
	ms.Seed(st)
	eng := newTestEngine(t, ms, 0)

	if _, err := eng.Execute(context.Background(), addLiquidityInv("m-t", 10, 10)); err == nil {
		t.Fatal("share-less deposit accepted")
	}
}

// ============================================================
// Test: remove liquidity
// ============================================================

func TestRemoveLiquidityProRata(t *testing.T) {
	ms := pool.NewMemStore()
	ms.Seed(readyState())
	eng := newTestEngine(t, ms, 0)

	out, err := eng.Execute(context.Background(),
		receiveInv("m-rm", sharesAddr, userAddr, 500_000, &msg.RemoveLiquidityAction{}))
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if len(out.Instructions) != 3 {
		t.Fatalf("instructions = %v", instructionKinds(out.Instructions))
	}
	burn := out.Instructions[0]
	if burn.Kind != token.KindBurn || burn.Amount.Int64() != 500_000 || burn.Contract != sharesAddr {
		t.Errorf("burn = %+v", burn)
	}
	if out.Instructions[1].Amount.Int64() != 250_000 || out.Instructions[1].Recipient != userAddr {
		t.Errorf("base payout = %+v", out.Instructions[1])
	}
	if out.Instructions[2].Amount.Int64() != 250_000 {
		t.Errorf("quote payout = %+v", out.Instructions[2])
	}

	st := loadState(t, ms)
	if st.BaseReserve.Int64() != 750_000 || st.QuoteReserve.Int64() != 750_000 || st.TotalShares.Int64() != 1_500_000 {
		t.Errorf("state = %s/%s/%s", st.BaseReserve, st.QuoteReserve, st.TotalShares)
	}
}

func TestRemoveLiquidityFullBurnEmptiesPool(t *testing.T) {
	ms := pool.NewMemStore()
	ms.Seed(readyState())
	eng := newTestEngine(t, ms, 0)

	_, err := eng.Execute(context.Background(),
		receiveInv("m-rm", sharesAddr, userAddr, 2_000_000, &msg.RemoveLiquidityAction{}))
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	st := loadState(t, ms)
	if st.BaseReserve.Sign() != 0 || st.QuoteReserve.Sign() != 0 || st.TotalShares.Sign() != 0 {
		t.Errorf("pool not empty after full burn: %s/%s/%s", st.BaseReserve, st.QuoteReserve, st.TotalShares)
	}
}

func TestRemoveLiquidityRequiresShareLedger(t *testing.T) {
	ms := pool.NewMemStore()
	ms.Seed(readyState())
	eng := newTestEngine(t, ms, 0)

	// The shares must arrive via the share ledger, not a reserve token.
	_, err := eng.Execute(context.Background(),
		receiveInv("m-rm", baseAddr, userAddr, 1000, &msg.RemoveLiquidityAction{}))
	if !errors.Is(err, pool.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestRemoveLiquidityOverRedemption(t *testing.T) {
	ms := pool.NewMemStore()
	ms.Seed(readyState())
	eng := newTestEngine(t, ms, 0)

	_, err := eng.Execute(context.Background(),
		receiveInv("m-rm", sharesAddr, userAddr, 2_000_001, &msg.RemoveLiquidityAction{}))
	if !errors.Is(err, pool.ErrInsufficientLiquidity) {
		t.Fatalf("got %v, want ErrInsufficientLiquidity", err)
	}
}

package raydium

import (
	"encoding/binary"
	"testing"

	"raydium-sniper/internal/codec"

	"github.com/gagliardetto/solana-go"
)

func putKey(buf []byte, offset int, key solana.PublicKey) {
	copy(buf[offset:offset+32], key[:])
}

func TestDecodeLiquidityStateV4Offsets(t *testing.T) {
	buf := make([]byte, 752)
	baseVault := solana.NewWallet().PublicKey()
	quoteVault := solana.NewWallet().PublicKey()
	baseMint := solana.NewWallet().PublicKey()
	quoteMint := solana.NewWallet().PublicKey()
	openOrders := solana.NewWallet().PublicKey()
	market := solana.NewWallet().PublicKey()
	marketProgram := solana.NewWallet().PublicKey()
	targetOrders := solana.NewWallet().PublicKey()

	// known byte offsets of the pubkey block in the on-chain layout
	putKey(buf, 336, baseVault)
	putKey(buf, 368, quoteVault)
	putKey(buf, 400, baseMint)
	putKey(buf, 432, quoteMint)
	putKey(buf, 496, openOrders)
	putKey(buf, 528, market)
	putKey(buf, 560, marketProgram)
	putKey(buf, 592, targetOrders)
	binary.LittleEndian.PutUint64(buf[32:], 6) // baseDecimal

	state, err := DecodeLiquidityStateV4(buf)
	if err != nil {
		t.Fatal(err)
	}
	if state.BaseVault != baseVault || state.QuoteVault != quoteVault {
		t.Fatal("vault offsets wrong")
	}
	if state.BaseMint != baseMint || state.QuoteMint != quoteMint {
		t.Fatal("mint offsets wrong")
	}
	if state.OpenOrders != openOrders || state.TargetOrders != targetOrders {
		t.Fatal("orders offsets wrong")
	}
	if state.MarketID != market || state.MarketProgramID != marketProgram {
		t.Fatal("market offsets wrong")
	}
	if state.BaseDecimal != 6 {
		t.Fatalf("baseDecimal: want 6, got %d", state.BaseDecimal)
	}
}

func TestDecodeCpmmPoolState(t *testing.T) {
	// 8-byte anchor discriminator, then 10 pubkeys, then scalars
	buf := make([]byte, 8+10*32+5+6*8)
	creator := solana.NewWallet().PublicKey()
	vault0 := solana.NewWallet().PublicKey()
	mint0 := solana.NewWallet().PublicKey()
	putKey(buf, 8+32, creator)
	putKey(buf, 8+2*32, vault0)
	putKey(buf, 8+5*32, mint0)

	state, err := DecodeCpmmPoolState(buf)
	if err != nil {
		t.Fatal(err)
	}
	if state.PoolCreator != creator || state.Token0Vault != vault0 || state.Token0Mint != mint0 {
		t.Fatal("cpmm layout offsets wrong")
	}

	if _, err := DecodeCpmmPoolState([]byte{1, 2, 3}); err == nil {
		t.Fatal("short cpmm account accepted")
	}
}

func testPoolV4() *PoolAccounts {
	authority, _ := AmmV4Authority()
	return &PoolAccounts{
		Variant:       codec.AmmV4,
		Pool:          solana.NewWallet().PublicKey(),
		Authority:     authority,
		BaseMint:      solana.NewWallet().PublicKey(),
		QuoteMint:     solana.MustPublicKeyFromBase58(NativeMint),
		BaseVault:     solana.NewWallet().PublicKey(),
		QuoteVault:    solana.NewWallet().PublicKey(),
		OpenOrders:    solana.NewWallet().PublicKey(),
		TargetOrders:  solana.NewWallet().PublicKey(),
		Market:        solana.NewWallet().PublicKey(),
		MarketProgram: solana.NewWallet().PublicKey(),
	}
}

func TestBuildAmmV4Swap(t *testing.T) {
	pool := testPoolV4()
	user := solana.NewWallet().PublicKey()
	src := solana.NewWallet().PublicKey()
	dst := solana.NewWallet().PublicKey()

	ix, err := BuildSwapInstruction(pool, SwapParams{
		User:         user,
		UserSource:   src,
		UserDest:     dst,
		AmountIn:     1_000_000,
		MinAmountOut: 995_000,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !ix.ProgramID().Equals(ProgramID(codec.AmmV4)) {
		t.Fatal("wrong program id")
	}
	accounts := ix.Accounts()
	if len(accounts) != 12 {
		t.Fatalf("v4 swap wants 12 accounts, got %d", len(accounts))
	}
	if !accounts[0].PublicKey.Equals(user) || !accounts[0].IsSigner {
		t.Fatal("account 0 must be the signing user")
	}
	if !accounts[1].PublicKey.Equals(pool.Pool) {
		t.Fatal("account 1 must be the pool state")
	}
	if !accounts[7].PublicKey.Equals(src) || !accounts[8].PublicKey.Equals(dst) {
		t.Fatal("user token accounts misplaced")
	}
	if !accounts[11].PublicKey.Equals(solana.SystemProgramID) {
		t.Fatal("last account must be the system program")
	}

	data, err := ix.Data()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 24 {
		t.Fatalf("swap data must be 24 bytes, got %d", len(data))
	}
	for i, b := range []byte{225, 226, 218, 232, 240, 105, 206, 129} {
		if data[i] != b {
			t.Fatalf("v4 swap discriminator mismatch at %d", i)
		}
	}
	if got := binary.LittleEndian.Uint64(data[8:]); got != 1_000_000 {
		t.Fatalf("amountIn encoding: got %d", got)
	}
	if got := binary.LittleEndian.Uint64(data[16:]); got != 995_000 {
		t.Fatalf("minOut encoding: got %d", got)
	}
}

func TestBuildAmmV4SwapMissingAccounts(t *testing.T) {
	pool := testPoolV4()
	pool.Market = solana.PublicKey{}
	_, err := BuildSwapInstruction(pool, SwapParams{User: solana.NewWallet().PublicKey()})
	if err == nil {
		t.Fatal("missing market accounts must fail the build")
	}
}

func TestBuildCpmmSwap(t *testing.T) {
	pool := &PoolAccounts{
		Variant:    codec.Cpmm,
		Pool:       solana.NewWallet().PublicKey(),
		BaseMint:   solana.MustPublicKeyFromBase58(NativeMint),
		QuoteMint:  solana.NewWallet().PublicKey(),
		BaseVault:  solana.NewWallet().PublicKey(),
		QuoteVault: solana.NewWallet().PublicKey(),
	}

	ix, err := BuildSwapInstruction(pool, SwapParams{
		User:         solana.NewWallet().PublicKey(),
		UserSource:   solana.NewWallet().PublicKey(),
		UserDest:     solana.NewWallet().PublicKey(),
		AmountIn:     42,
		MinAmountOut: 40,
	})
	if err != nil {
		t.Fatal(err)
	}

	accounts := ix.Accounts()
	if len(accounts) != 7 {
		t.Fatalf("cpmm swap wants 7 accounts, got %d", len(accounts))
	}
	// SOL is the base side here, so input vault is the base vault
	if !accounts[4].PublicKey.Equals(pool.BaseVault) {
		t.Fatal("input vault must be the wrapped-SOL vault")
	}
	if !accounts[5].PublicKey.Equals(pool.QuoteVault) {
		t.Fatal("output vault must be the token vault")
	}

	data, _ := ix.Data()
	for i, b := range []byte{143, 190, 90, 218, 196, 30, 51, 222} {
		if data[i] != b {
			t.Fatalf("cpmm swap discriminator mismatch at %d", i)
		}
	}
}

func TestBuildCpmmSwapNoSolSide(t *testing.T) {
	pool := &PoolAccounts{
		Variant:   codec.Cpmm,
		Pool:      solana.NewWallet().PublicKey(),
		BaseMint:  solana.NewWallet().PublicKey(),
		QuoteMint: solana.NewWallet().PublicKey(),
	}
	if _, err := BuildSwapInstruction(pool, SwapParams{}); err == nil {
		t.Fatal("pool without a SOL side must fail the build")
	}
}

func TestEstimateSwapOut(t *testing.T) {
	// 100 in against 1000/2000 reserves: 2000*100/1100 = 181
	if got := EstimateSwapOut(1000, 2000, 100); got != 181 {
		t.Fatalf("want 181, got %d", got)
	}
	if got := EstimateSwapOut(0, 2000, 100); got != 0 {
		t.Fatalf("empty pool must estimate 0, got %d", got)
	}
}

func TestTargetMint(t *testing.T) {
	wsol := solana.MustPublicKeyFromBase58(NativeMint)
	other := solana.NewWallet().PublicKey()

	p := &PoolAccounts{BaseMint: other, QuoteMint: wsol}
	mint, ok := p.TargetMint()
	if !ok || mint != other {
		t.Fatal("quote-side SOL: target must be the base mint")
	}

	p = &PoolAccounts{BaseMint: wsol, QuoteMint: other}
	mint, ok = p.TargetMint()
	if !ok || mint != other {
		t.Fatal("base-side SOL: target must be the quote mint")
	}

	p = &PoolAccounts{BaseMint: other, QuoteMint: solana.NewWallet().PublicKey()}
	if _, ok = p.TargetMint(); ok {
		t.Fatal("pool without SOL side must not resolve a target mint")
	}
}

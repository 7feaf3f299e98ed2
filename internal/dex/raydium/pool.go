package raydium

import (
	"context"

	"raydium-sniper/internal/codec"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

// AccountFetcher is the slice of the RPC surface pool resolution
// needs. *rpc.Client satisfies it.
type AccountFetcher interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// LiquidityStateV4 is the C layout of a v4 pool account
// (752 bytes). Field order is the on-chain layout; do not reorder.
type LiquidityStateV4 struct {
	Status                 uint64
	Nonce                  uint64
	MaxOrder               uint64
	Depth                  uint64
	BaseDecimal            uint64
	QuoteDecimal           uint64
	State                  uint64
	ResetFlag              uint64
	MinSize                uint64
	VolMaxCutRatio         uint64
	AmountWaveRatio        uint64
	BaseLotSize            uint64
	QuoteLotSize           uint64
	MinPriceMultiplier     uint64
	MaxPriceMultiplier     uint64
	SystemDecimalValue     uint64
	MinSeparateNumerator   uint64
	MinSeparateDenominator uint64
	TradeFeeNumerator      uint64
	TradeFeeDenominator    uint64
	PnlNumerator           uint64
	PnlDenominator         uint64
	SwapFeeNumerator       uint64
	SwapFeeDenominator     uint64
	BaseNeedTakePnl        uint64
	QuoteNeedTakePnl       uint64
	QuoteTotalPnl          uint64
	BaseTotalPnl           uint64
	PoolOpenTime           uint64
	PunishPcAmount         uint64
	PunishCoinAmount       uint64
	OrderbookToInitTime    uint64
	SwapBaseInAmount       bin.Uint128
	SwapQuoteOutAmount     bin.Uint128
	SwapBase2QuoteFee      uint64
	SwapQuoteInAmount      bin.Uint128
	SwapBaseOutAmount      bin.Uint128
	SwapQuote2BaseFee      uint64
	BaseVault              solana.PublicKey
	QuoteVault             solana.PublicKey
	BaseMint               solana.PublicKey
	QuoteMint              solana.PublicKey
	LpMint                 solana.PublicKey
	OpenOrders             solana.PublicKey
	MarketID               solana.PublicKey
	MarketProgramID        solana.PublicKey
	TargetOrders           solana.PublicKey
	WithdrawQueue          solana.PublicKey
	LpVault                solana.PublicKey
	Owner                  solana.PublicKey
	LpReserve              uint64
	Padding                [3]uint64
}

// CpmmPoolState is the Anchor account layout of a CPMM pool, minus
// the 8-byte account discriminator and trailing padding.
type CpmmPoolState struct {
	AmmConfig          solana.PublicKey
	PoolCreator        solana.PublicKey
	Token0Vault        solana.PublicKey
	Token1Vault        solana.PublicKey
	LpMint             solana.PublicKey
	Token0Mint         solana.PublicKey
	Token1Mint         solana.PublicKey
	Token0Program      solana.PublicKey
	Token1Program      solana.PublicKey
	ObservationKey     solana.PublicKey
	AuthBump           uint8
	Status             uint8
	LpMintDecimals     uint8
	Mint0Decimals      uint8
	Mint1Decimals      uint8
	LpSupply           uint64
	ProtocolFeesToken0 uint64
	ProtocolFeesToken1 uint64
	FundFeesToken0     uint64
	FundFeesToken1     uint64
	OpenTime           uint64
}

func DecodeLiquidityStateV4(data []byte) (*LiquidityStateV4, error) {
	state := new(LiquidityStateV4)
	if err := bin.NewBinDecoder(data).Decode(state); err != nil {
		return nil, errors.Wrap(err, "decode v4 pool state")
	}
	return state, nil
}

func DecodeCpmmPoolState(data []byte) (*CpmmPoolState, error) {
	if len(data) < 8 {
		return nil, errors.New("cpmm pool account too short")
	}
	state := new(CpmmPoolState)
	if err := bin.NewBinDecoder(data[8:]).Decode(state); err != nil {
		return nil, errors.Wrap(err, "decode cpmm pool state")
	}
	return state, nil
}

// PoolAccounts is the variant-independent view of a pool that the
// filter and the swap builder share: both mints, both vaults, and
// whatever extra accounts the swap instruction needs.
type PoolAccounts struct {
	Variant       codec.Variant
	Pool          solana.PublicKey
	Authority     solana.PublicKey
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	BaseVault     solana.PublicKey
	QuoteVault    solana.PublicKey
	OpenOrders    solana.PublicKey
	TargetOrders  solana.PublicKey
	Market        solana.PublicKey
	MarketProgram solana.PublicKey

	// owning token program per side; CPMM pools may pair Token-2022
	// mints, v4 is always the classic token program
	BaseTokenProgram  solana.PublicKey
	QuoteTokenProgram solana.PublicKey
}

// TargetMint returns the non-SOL side of the pool, i.e. the token
// being sniped. The second value is false when neither side is
// wrapped SOL.
func (p *PoolAccounts) TargetMint() (solana.PublicKey, bool) {
	wsol := solana.MustPublicKeyFromBase58(NativeMint)
	switch {
	case p.QuoteMint.Equals(wsol):
		return p.BaseMint, true
	case p.BaseMint.Equals(wsol):
		return p.QuoteMint, true
	default:
		return solana.PublicKey{}, false
	}
}

// TargetTokenProgram returns the token program owning the target
// mint, defaulting to the classic token program when unset.
func (p *PoolAccounts) TargetTokenProgram() solana.PublicKey {
	wsol := solana.MustPublicKeyFromBase58(NativeMint)
	program := p.BaseTokenProgram
	if p.BaseMint.Equals(wsol) {
		program = p.QuoteTokenProgram
	}
	if program.IsZero() {
		return solana.TokenProgramID
	}
	return program
}

// SolVault returns the vault holding the wrapped-SOL side, the input
// side of a buy.
func (p *PoolAccounts) SolVault() (in, out solana.PublicKey, ok bool) {
	wsol := solana.MustPublicKeyFromBase58(NativeMint)
	switch {
	case p.QuoteMint.Equals(wsol):
		return p.QuoteVault, p.BaseVault, true
	case p.BaseMint.Equals(wsol):
		return p.BaseVault, p.QuoteVault, true
	default:
		return solana.PublicKey{}, solana.PublicKey{}, false
	}
}

// FetchPoolAccounts reads and decodes the pool state account for
// either variant.
func FetchPoolAccounts(ctx context.Context, fetcher AccountFetcher, variant codec.Variant, pool solana.PublicKey) (*PoolAccounts, error) {
	info, err := fetcher.GetAccountInfo(ctx, pool)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch pool account %s", pool)
	}
	if info == nil || info.Value == nil {
		return nil, errors.Errorf("pool account %s not found", pool)
	}
	data := info.Value.Data.GetBinary()

	switch variant {
	case codec.AmmV4:
		state, err := DecodeLiquidityStateV4(data)
		if err != nil {
			return nil, err
		}
		authority, err := AmmV4Authority()
		if err != nil {
			return nil, errors.Wrap(err, "derive v4 authority")
		}
		return &PoolAccounts{
			Variant:           codec.AmmV4,
			Pool:              pool,
			Authority:         authority,
			BaseMint:          state.BaseMint,
			QuoteMint:         state.QuoteMint,
			BaseVault:         state.BaseVault,
			QuoteVault:        state.QuoteVault,
			OpenOrders:        state.OpenOrders,
			TargetOrders:      state.TargetOrders,
			Market:            state.MarketID,
			MarketProgram:     state.MarketProgramID,
			BaseTokenProgram:  solana.TokenProgramID,
			QuoteTokenProgram: solana.TokenProgramID,
		}, nil

	case codec.Cpmm:
		state, err := DecodeCpmmPoolState(data)
		if err != nil {
			return nil, err
		}
		return &PoolAccounts{
			Variant:           codec.Cpmm,
			Pool:              pool,
			BaseMint:          state.Token0Mint,
			QuoteMint:         state.Token1Mint,
			BaseVault:         state.Token0Vault,
			QuoteVault:        state.Token1Vault,
			BaseTokenProgram:  state.Token0Program,
			QuoteTokenProgram: state.Token1Program,
		}, nil

	default:
		return nil, errors.Errorf("unsupported pool variant %d", variant)
	}
}

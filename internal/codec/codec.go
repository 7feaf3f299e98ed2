package codec

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Variant identifies which Raydium pool program an instruction
// belongs to. The two variants share the Anchor "initialize"
// discriminator, so the variant is always determined by the owning
// program id before instruction data is inspected.
type Variant int

const (
	AmmV4 Variant = iota
	Cpmm
)

func (v Variant) String() string {
	switch v {
	case AmmV4:
		return "amm_v4"
	case Cpmm:
		return "cpmm"
	default:
		return "unknown"
	}
}

// PoolInit is the structural decode of a pool initialization
// instruction: the three accounts a snipe decision needs, pulled out
// of the instruction's account list by position.
type PoolInit struct {
	Variant Variant
	Pool    solana.PublicKey
	Amm     solana.PublicKey
	Creator solana.PublicKey
}

// layout describes where a variant keeps the interesting accounts in
// its initialize instruction.
type layout struct {
	initDiscriminator []byte
	minAccounts       int
	poolIdx           int
	ammIdx            int
	creatorIdx        int
}

var layouts = map[Variant]layout{
	AmmV4: {
		initDiscriminator: []byte{175, 175, 109, 31, 13, 152, 155, 237},
		minAccounts:       4,
		poolIdx:           0,
		ammIdx:            1,
		creatorIdx:        2,
	},
	Cpmm: {
		initDiscriminator: []byte{175, 175, 109, 31, 13, 152, 155, 237},
		minAccounts:       5,
		creatorIdx:        0,
		ammIdx:            1,
		poolIdx:           3,
	},
}

// IsPoolInitialization reports whether the instruction data starts
// with the variant's pool-creation discriminator. Short or foreign
// data is simply "not a pool init", never an error.
func IsPoolInitialization(v Variant, data []byte) bool {
	l, ok := layouts[v]
	if !ok || len(data) < 8 {
		return false
	}
	return bytes.Equal(data[:8], l.initDiscriminator)
}

// DecodePoolInit extracts the pool, AMM and creator accounts from a
// pool initialization instruction. keys is the transaction's account
// table, accountIdx the instruction's indexes into it. Returns false
// on any structural mismatch: wrong discriminator, too few accounts,
// or an index past the end of the table.
func DecodePoolInit(v Variant, data []byte, keys []solana.PublicKey, accountIdx []uint16) (*PoolInit, bool) {
	if !IsPoolInitialization(v, data) {
		return nil, false
	}
	l := layouts[v]
	if len(accountIdx) < l.minAccounts {
		return nil, false
	}

	resolve := func(pos int) (solana.PublicKey, bool) {
		idx := int(accountIdx[pos])
		if idx >= len(keys) {
			return solana.PublicKey{}, false
		}
		return keys[idx], true
	}

	pool, ok := resolve(l.poolIdx)
	if !ok {
		return nil, false
	}
	amm, ok := resolve(l.ammIdx)
	if !ok {
		return nil, false
	}
	creator, ok := resolve(l.creatorIdx)
	if !ok {
		return nil, false
	}

	return &PoolInit{
		Variant: v,
		Pool:    pool,
		Amm:     amm,
		Creator: creator,
	}, true
}

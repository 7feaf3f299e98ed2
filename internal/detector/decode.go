package detector

import (
	"time"

	"raydium-sniper/internal/codec"

	pb "github.com/lonelybeanz/solanaswap-go/yellowstone-grpc"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// eventsFromTransaction scans a decoded transaction's top-level
// instructions for pool initializations against any monitored
// program. Anything structurally off is skipped, never an error.
func eventsFromTransaction(
	programs map[solana.PublicKey]codec.Variant,
	tx *solana.Transaction,
	signature string,
	slot uint64,
	ts time.Time,
) []*PoolCreationEvent {
	if tx == nil {
		return nil
	}
	keys := tx.Message.AccountKeys

	var events []*PoolCreationEvent
	for _, ix := range tx.Message.Instructions {
		if int(ix.ProgramIDIndex) >= len(keys) {
			continue
		}
		program := keys[ix.ProgramIDIndex]
		variant, ok := programs[program]
		if !ok {
			continue
		}
		init, ok := codec.DecodePoolInit(variant, ix.Data, keys, ix.Accounts)
		if !ok {
			continue
		}
		events = append(events, newEvent(init, program, signature, slot, ts))
	}
	return events
}

// eventsFromPbTransaction is the Geyser-side twin of
// eventsFromTransaction, working on the protobuf shapes.
func eventsFromPbTransaction(
	programs map[solana.PublicKey]codec.Variant,
	txInfo *pb.SubscribeUpdateTransactionInfo,
	slot uint64,
	ts time.Time,
) []*PoolCreationEvent {
	if txInfo == nil || txInfo.Transaction == nil || txInfo.Transaction.Message == nil {
		return nil
	}
	msg := txInfo.Transaction.Message

	keys := make([]solana.PublicKey, 0, len(msg.AccountKeys))
	for _, raw := range msg.AccountKeys {
		if len(raw) != solana.PublicKeyLength {
			return nil
		}
		keys = append(keys, solana.PublicKeyFromBytes(raw))
	}

	signature := base58.Encode(txInfo.Signature)

	var events []*PoolCreationEvent
	for _, ix := range msg.Instructions {
		if int(ix.ProgramIdIndex) >= len(keys) {
			continue
		}
		program := keys[ix.ProgramIdIndex]
		variant, ok := programs[program]
		if !ok {
			continue
		}
		accountIdx := make([]uint16, len(ix.Accounts))
		for i, a := range ix.Accounts {
			accountIdx[i] = uint16(a)
		}
		init, ok := codec.DecodePoolInit(variant, ix.Data, keys, accountIdx)
		if !ok {
			continue
		}
		events = append(events, newEvent(init, program, signature, slot, ts))
	}
	return events
}

func newEvent(init *codec.PoolInit, program solana.PublicKey, signature string, slot uint64, ts time.Time) *PoolCreationEvent {
	return &PoolCreationEvent{
		Variant:   init.Variant,
		Pool:      init.Pool,
		Amm:       init.Amm,
		Creator:   init.Creator,
		Program:   program,
		Signature: signature,
		Slot:      slot,
		Timestamp: ts,
	}
}

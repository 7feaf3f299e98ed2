package rpcs

import (
	"context"
	"math/rand"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	jito_go "github.com/weeaa/jito-go"
	"github.com/weeaa/jito-go/clients/searcher_client"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	jitoName          = "Jito"
	jitoRPCAddr       = "https://mainnet.block-engine.jito.wtf"
	broadcastDeadline = 8 * time.Second
)

// JitoRelay pushes signed transactions through the Jito block engine
// as single-transaction bundles, alongside plain RPC submission.
type JitoRelay struct {
	clients []*searcher_client.Client
}

// NewJitoRelay connects to the NY block engine without auth. A failed
// connection is logged and skipped so the bot can still trade over
// plain RPC.
func NewJitoRelay(ctx context.Context) *JitoRelay {
	clients := []*searcher_client.Client{}

	for region, endpoint := range jito_go.JitoEndpoints {
		if region != "NY" {
			continue
		}
		client, err := searcher_client.NewNoAuth(
			ctx,
			endpoint.BlockEngineURL,
			rpc.New(jitoRPCAddr),
			rpc.New(rpc.MainNetBeta_RPC),
			"",
			nil,
		)
		if err != nil {
			logx.Errorf("[%s] connect %s failed: %v", jitoName, endpoint.BlockEngineURL, err)
			continue
		}
		clients = append(clients, client)
	}

	return &JitoRelay{clients: clients}
}

// TipInstruction transfers the tip to a random mainnet tip account.
func (r *JitoRelay) TipInstruction(owner solana.PublicKey, tip uint64) solana.Instruction {
	tipAccount := jito_go.MainnetTipAccounts[rand.Intn(len(jito_go.MainnetTipAccounts))]
	return system.NewTransferInstruction(tip, owner, tipAccount).Build()
}

// BroadcastSigned sends an already-signed transaction to every
// connected block engine. Fire and forget: errors are logged, never
// surfaced, since the same payload is also going out over plain RPC.
func (r *JitoRelay) BroadcastSigned(ctx context.Context, tx *solana.Transaction) {
	txns := []*solana.Transaction{tx}
	sig := tx.Signatures[0]

	for _, c := range r.clients {
		go func(c *searcher_client.Client) {
			bctx, cancel := context.WithTimeout(ctx, broadcastDeadline)
			defer cancel()
			if _, err := c.BroadcastBundleWithConfirmation(bctx, txns); err != nil {
				logx.Errorf("[%s] {%s} bundle broadcast failed: %v", jitoName, sig, err)
				return
			}
			logx.Infof("[%s] {%s} bundle landed", jitoName, sig)
		}(c)
	}
}

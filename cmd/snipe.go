/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"raydium-sniper/internal/client"
	"raydium-sniper/internal/config"
	"raydium-sniper/internal/detector"
	"raydium-sniper/internal/executor"
	"raydium-sniper/internal/filter"
	"raydium-sniper/internal/monitor"
	"raydium-sniper/internal/notify"
	"raydium-sniper/internal/rpcs"
	"raydium-sniper/internal/status"
	"raydium-sniper/internal/utils"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"
)

// snipeCmd represents the snipe command
var snipeCmd = &cobra.Command{
	Use:   "snipe",
	Short: "watch for new Raydium pools and buy into them",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSnipe(cmd); err != nil {
			logx.Must(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(snipeCmd)

	snipeCmd.Flags().String("rpc-endpoint", "", "Solana RPC endpoint")
	snipeCmd.Flags().String("grpc-endpoint", "", "Yellowstone Geyser gRPC endpoint")
	snipeCmd.Flags().String("grpc-x-token", "", "Geyser x-token credential")
	snipeCmd.Flags().Float64("buy-amount-sol", 0.1, "SOL spent per snipe")
	snipeCmd.Flags().Uint64("slippage-bps", 50, "slippage tolerance in basis points")
	snipeCmd.Flags().Float64("min-liquidity-usd", 1000, "minimum pool liquidity in USD")
	snipeCmd.Flags().Float64("max-liquidity-usd", 0, "maximum pool liquidity in USD, 0 for no ceiling")
	snipeCmd.Flags().Bool("rug-check", false, "consult rugcheck.xyz before buying")
	snipeCmd.Flags().String("blacklist-file", "", "yaml file of blocked creators and mints")
	snipeCmd.Flags().Bool("monitor-amm-v4", true, "watch AMM v4 pool creations")
	snipeCmd.Flags().Bool("monitor-cpmm", true, "watch CPMM pool creations")
	snipeCmd.Flags().Bool("poll-fallback", true, "fall back to RPC polling when streaming fails")
	snipeCmd.Flags().Bool("dry-run", false, "evaluate pools but never submit")
	snipeCmd.Flags().Bool("jito-enabled", false, "mirror transactions through the Jito block engine")
	snipeCmd.Flags().String("status-addr", "", "listen address for the status endpoint, empty to disable")
}

func runSnipe(cmd *cobra.Command) error {
	godotenv.Load()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	wallet, err := solana.WalletFromPrivateKeyBase58(os.Getenv("PRIVATE_KEY"))
	if err != nil {
		logx.Must(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rpcClient := rpc.New(cfg.RPCEndpoint)
	if balance, err := client.GetWalletBalance(ctx, rpcClient, wallet.PublicKey()); err != nil {
		logx.Errorf("wallet balance unavailable: %v", err)
	} else {
		logx.Infof("wallet %s holds %.4f SOL", wallet.PublicKey(), utils.LamportsToSol(balance))
	}

	blacklist, err := config.NewBlacklist(cfg.BlacklistFile)
	if err != nil {
		return err
	}
	go func() {
		if err := blacklist.Watch(ctx); err != nil {
			logx.Errorf("blacklist watch stopped: %v", err)
		}
	}()

	det, err := detector.New(cfg, rpcClient)
	if err != nil {
		return err
	}

	var rug filter.RugReporter
	if cfg.RugCheck {
		rug = filter.RugCheckReporter{}
	}
	flt := filter.NewEngine(cfg, blacklist, &filter.RPCChainReader{Client: rpcClient}, rug)

	var relay executor.BundleRelay
	if cfg.JitoEnabled {
		relay = rpcs.NewJitoRelay(ctx)
	}
	exec := executor.NewEngine(cfg, wallet, rpcClient, relay)

	notifier, err := notify.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		return err
	}

	counters := status.NewCounters()
	sniper := monitor.NewSniper(cfg, det, flt, exec, notifier, counters)

	g, ctx := errgroup.WithContext(ctx)
	if cfg.StatusAddr != "" {
		server := status.NewServer(cfg.StatusAddr, counters)
		g.Go(func() error { return server.Run(ctx) })
	}
	g.Go(func() error { return sniper.Run(ctx) })

	if cfg.DryRun {
		logx.Info("dry run: pools will be evaluated but never bought")
	}
	return g.Wait()
}

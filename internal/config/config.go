package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeromicro/go-zero/core/logx"
)

// Config is the full runtime configuration, merged from defaults,
// environment (SNIPER_* variables) and command-line flags, in that
// order of increasing precedence. Read-only after Load.
type Config struct {
	RPCEndpoint  string `validate:"required,url"`
	GrpcEndpoint string
	GrpcXToken   string
	GrpcInsecure bool

	BuyAmountSOL             float64 `validate:"gt=0"`
	SlippageBps              uint64  `validate:"lte=10000"`
	PriorityFeeMicroLamports uint64
	PriorityFeeJitter        uint64
	ComputeUnitLimit         uint32 `validate:"gt=0"`

	MinLiquidityUSD float64
	MaxLiquidityUSD float64
	RugCheck        bool
	BlacklistFile   string

	MonitorAmmV4 bool
	MonitorCpmm  bool
	PollFallback bool

	PollInterval  time.Duration `validate:"gt=0"`
	SnipeInterval time.Duration

	DryRun bool

	JitoEnabled     bool
	JitoTipLamports uint64

	TelegramToken  string
	TelegramChatID int64
	StatusAddr     string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rpc_endpoint", "https://api.mainnet-beta.solana.com")
	v.SetDefault("buy_amount_sol", 0.1)
	v.SetDefault("slippage_bps", 50)
	v.SetDefault("priority_fee_micro_lamports", 100_000)
	v.SetDefault("priority_fee_jitter", 50_000)
	v.SetDefault("compute_unit_limit", 1_400_000)
	v.SetDefault("min_liquidity_usd", 1000.0)
	v.SetDefault("max_liquidity_usd", 0.0)
	v.SetDefault("monitor_amm_v4", true)
	v.SetDefault("monitor_cpmm", true)
	v.SetDefault("poll_fallback", true)
	v.SetDefault("poll_interval", "100ms")
	v.SetDefault("snipe_interval", "100ms")
	v.SetDefault("jito_tip_lamports", 1_000_000)
}

// Load builds the configuration. flags may be nil when no command
// line is involved (tests). Only flags the user actually set
// override the environment.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SNIPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.Visit(func(f *pflag.Flag) {
			// flags are named with dashes, keys with underscores
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, errors.Wrap(bindErr, "bind flags")
		}
	}

	cfg := &Config{
		RPCEndpoint:  v.GetString("rpc_endpoint"),
		GrpcEndpoint: v.GetString("grpc_endpoint"),
		GrpcXToken:   v.GetString("grpc_x_token"),
		GrpcInsecure: cast.ToBool(v.Get("grpc_insecure")),

		BuyAmountSOL:             cast.ToFloat64(v.Get("buy_amount_sol")),
		SlippageBps:              cast.ToUint64(v.Get("slippage_bps")),
		PriorityFeeMicroLamports: cast.ToUint64(v.Get("priority_fee_micro_lamports")),
		PriorityFeeJitter:        cast.ToUint64(v.Get("priority_fee_jitter")),
		ComputeUnitLimit:         cast.ToUint32(v.Get("compute_unit_limit")),

		MinLiquidityUSD: cast.ToFloat64(v.Get("min_liquidity_usd")),
		MaxLiquidityUSD: cast.ToFloat64(v.Get("max_liquidity_usd")),
		RugCheck:        cast.ToBool(v.Get("rug_check")),
		BlacklistFile:   v.GetString("blacklist_file"),

		MonitorAmmV4: cast.ToBool(v.Get("monitor_amm_v4")),
		MonitorCpmm:  cast.ToBool(v.Get("monitor_cpmm")),
		PollFallback: cast.ToBool(v.Get("poll_fallback")),

		PollInterval:  cast.ToDuration(v.Get("poll_interval")),
		SnipeInterval: cast.ToDuration(v.Get("snipe_interval")),

		DryRun: cast.ToBool(v.Get("dry_run")),

		JitoEnabled:     cast.ToBool(v.Get("jito_enabled")),
		JitoTipLamports: cast.ToUint64(v.Get("jito_tip_lamports")),

		TelegramToken:  v.GetString("telegram_token"),
		TelegramChatID: cast.ToInt64(v.Get("telegram_chat_id")),
		StatusAddr:     v.GetString("status_addr"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	if cfg.SlippageBps == 10_000 {
		logx.Errorf("slippage_bps=10000 disables the min-out floor entirely; every fill price will be accepted")
	}

	return cfg, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BuyAmountSOL != 0.1 {
		t.Fatalf("default buy amount: got %v", cfg.BuyAmountSOL)
	}
	if cfg.SlippageBps != 50 {
		t.Fatalf("default slippage: got %d", cfg.SlippageBps)
	}
	if cfg.ComputeUnitLimit != 1_400_000 {
		t.Fatalf("default compute unit limit: got %d", cfg.ComputeUnitLimit)
	}
	if !cfg.MonitorAmmV4 || !cfg.MonitorCpmm {
		t.Fatal("both variants must be monitored by default")
	}
	if !cfg.PollFallback {
		t.Fatal("poll fallback must default to enabled")
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Fatalf("default poll interval: got %v", cfg.PollInterval)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SNIPER_BUY_AMOUNT_SOL", "0.5")
	t.Setenv("SNIPER_SLIPPAGE_BPS", "200")
	t.Setenv("SNIPER_DRY_RUN", "true")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BuyAmountSOL != 0.5 {
		t.Fatalf("env override ignored: got %v", cfg.BuyAmountSOL)
	}
	if cfg.SlippageBps != 200 {
		t.Fatalf("env override ignored: got %d", cfg.SlippageBps)
	}
	if !cfg.DryRun {
		t.Fatal("dry run env override ignored")
	}
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	t.Setenv("SNIPER_BUY_AMOUNT_SOL", "0.5")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("buy-amount-sol", 0.1, "")
	if err := flags.Parse([]string{"--buy-amount-sol=0.9"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BuyAmountSOL != 0.9 {
		t.Fatalf("flag must beat env: got %v", cfg.BuyAmountSOL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("SNIPER_SLIPPAGE_BPS", "10001")
	if _, err := Load(nil); err == nil {
		t.Fatal("slippage above 10000 bps must fail validation")
	}

	t.Setenv("SNIPER_SLIPPAGE_BPS", "50")
	t.Setenv("SNIPER_BUY_AMOUNT_SOL", "0")
	if _, err := Load(nil); err == nil {
		t.Fatal("zero buy amount must fail validation")
	}
}

func TestBlacklist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blacklist.yaml")
	content := "creators:\n  - badguy\nmints:\n  - badmint\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := NewBlacklist(path)
	if err != nil {
		t.Fatal(err)
	}
	if !b.HasCreator("badguy") || !b.HasMint("badmint") {
		t.Fatal("blacklist entries missing after load")
	}
	if b.HasCreator("innocent") {
		t.Fatal("unknown creator reported as blacklisted")
	}

	// rewrite and reload
	if err := os.WriteFile(path, []byte("creators:\n  - other\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := b.Reload(); err != nil {
		t.Fatal(err)
	}
	if b.HasCreator("badguy") {
		t.Fatal("stale entry survived reload")
	}
	if !b.HasCreator("other") {
		t.Fatal("new entry missing after reload")
	}
}

func TestBlacklistEmpty(t *testing.T) {
	b, err := NewBlacklist("")
	if err != nil {
		t.Fatal(err)
	}
	if b.HasCreator("anyone") || b.HasMint("anything") {
		t.Fatal("empty blacklist must reject nothing")
	}
}

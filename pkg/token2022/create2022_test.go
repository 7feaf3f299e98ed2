package token2022

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestCreate2022Instruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	ix := NewCreate2022Instruction(payer, payer, mint).Build()

	if !ix.ProgramID().Equals(solana.SPLAssociatedTokenAccountProgramID) {
		t.Fatalf("wrong program: %s", ix.ProgramID())
	}
	accounts := ix.Accounts()
	if len(accounts) != 7 {
		t.Fatalf("want 7 accounts, got %d", len(accounts))
	}
	if !accounts[0].PublicKey.Equals(payer) || !accounts[0].IsSigner {
		t.Fatal("payer must be the signer at position 0")
	}
	ata, _, err := FindAssociatedTokenAddress2022(payer, mint)
	if err != nil {
		t.Fatal(err)
	}
	if !accounts[1].PublicKey.Equals(ata) {
		t.Fatal("position 1 must be the derived token-2022 ata")
	}
	if !accounts[5].PublicKey.Equals(solana.Token2022ProgramID) {
		t.Fatal("position 5 must be the token-2022 program")
	}

	data, err := ix.Data()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Fatalf("create has no instruction data, got %d bytes", len(data))
	}
}

func TestCreate2022Validate(t *testing.T) {
	ix := NewCreate2022Instruction(solana.PublicKey{}, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	if _, err := ix.ValidateAndBuild(); err == nil {
		t.Fatal("missing payer must not validate")
	}
}

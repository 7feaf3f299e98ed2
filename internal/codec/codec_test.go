package codec

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

var initDisc = []byte{175, 175, 109, 31, 13, 152, 155, 237}

func testKeys(n int) []solana.PublicKey {
	keys := make([]solana.PublicKey, n)
	for i := range keys {
		keys[i] = solana.NewWallet().PublicKey()
	}
	return keys
}

func TestIsPoolInitialization(t *testing.T) {
	if IsPoolInitialization(AmmV4, initDisc) != true {
		t.Fatal("v4 initialize discriminator not recognized")
	}
	if IsPoolInitialization(Cpmm, initDisc) != true {
		t.Fatal("cpmm initialize discriminator not recognized")
	}

	// short data can never be a pool init
	if IsPoolInitialization(AmmV4, initDisc[:7]) {
		t.Fatal("7-byte data accepted as pool init")
	}
	if IsPoolInitialization(AmmV4, nil) {
		t.Fatal("empty data accepted as pool init")
	}

	// swap discriminator must not match
	swap := []byte{225, 226, 218, 232, 240, 105, 206, 129}
	if IsPoolInitialization(AmmV4, swap) {
		t.Fatal("swap discriminator accepted as pool init")
	}
}

func TestDecodePoolInit(t *testing.T) {
	keys := testKeys(8)

	ev, ok := DecodePoolInit(AmmV4, initDisc, keys, []uint16{5, 6, 7, 0})
	if !ok {
		t.Fatal("valid v4 pool init rejected")
	}
	if ev.Pool != keys[5] || ev.Amm != keys[6] || ev.Creator != keys[7] {
		t.Fatalf("v4 positional extraction wrong: %+v", ev)
	}
	if ev.Variant != AmmV4 {
		t.Fatalf("variant not carried through: %v", ev.Variant)
	}

	ev, ok = DecodePoolInit(Cpmm, initDisc, keys, []uint16{0, 1, 2, 3, 4})
	if !ok {
		t.Fatal("valid cpmm pool init rejected")
	}
	if ev.Creator != keys[0] || ev.Amm != keys[1] || ev.Pool != keys[3] {
		t.Fatalf("cpmm positional extraction wrong: %+v", ev)
	}
}

func TestDecodePoolInitMalformed(t *testing.T) {
	keys := testKeys(4)

	// too few accounts for the variant
	if _, ok := DecodePoolInit(AmmV4, initDisc, keys, []uint16{0, 1, 2}); ok {
		t.Fatal("v4 accepted with 3 accounts")
	}
	if _, ok := DecodePoolInit(Cpmm, initDisc, keys, []uint16{0, 1, 2, 3}); ok {
		t.Fatal("cpmm accepted with 4 accounts")
	}

	// account index past the end of the key table
	if _, ok := DecodePoolInit(AmmV4, initDisc, keys, []uint16{0, 99, 2, 3}); ok {
		t.Fatal("out-of-range account index accepted")
	}

	// wrong discriminator
	bad := append([]byte{0}, initDisc[1:]...)
	if _, ok := DecodePoolInit(AmmV4, bad, keys, []uint16{0, 1, 2, 3}); ok {
		t.Fatal("wrong discriminator accepted")
	}
}

package token

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pflow-xyz/go-tokenbound/chain"
)

func testAddr(b byte) chain.Address {
	return chain.AddressFromBytes([]byte{b})
}

// recordingHook records pipeline calls and optionally vetoes transfers.
type recordingHook struct {
	name   string
	calls  *[]string
	reject error
}

func (h *recordingHook) BeforeTransfer(tokenID uint64, from, to chain.Address) error {
	*h.calls = append(*h.calls, h.name+":before")
	return h.reject
}

func (h *recordingHook) AfterTransfer(tokenID uint64, from, to chain.Address) {
	*h.calls = append(*h.calls, h.name+":after")
}

func TestMintAndOwnerOf(t *testing.T) {
	c := NewCollection("Bound Accounts", "BOUND")
	alice := testAddr(1)

	if err := c.Mint(alice, 1); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	owner, err := c.OwnerOf(1)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != alice {
		t.Errorf("owner = %s, want %s", owner, alice)
	}

	if err := c.Mint(testAddr(2), 1); !errors.Is(err, ErrTokenExists) {
		t.Fatalf("double mint: expected ErrTokenExists, got %v", err)
	}
	if err := c.Mint(chain.ZeroAddress, 2); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("zero address mint: expected ErrZeroAddress, got %v", err)
	}
	if _, err := c.OwnerOf(99); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("unknown token: expected ErrUnknownToken, got %v", err)
	}
}

func TestBurn(t *testing.T) {
	c := NewCollection("Bound Accounts", "BOUND")
	alice := testAddr(1)
	c.Mint(alice, 1)

	if err := c.Burn(testAddr(2), 1); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := c.Burn(alice, 1); err != nil {
		t.Fatalf("burn failed: %v", err)
	}
	if c.Exists(1) {
		t.Error("token should be gone after burn")
	}
	if err := c.Burn(alice, 1); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}

	// The id is mintable again.
	if err := c.Mint(alice, 1); err != nil {
		t.Fatalf("remint failed: %v", err)
	}
}

func TestTransfer(t *testing.T) {
	c := NewCollection("Bound Accounts", "BOUND")
	alice, bob := testAddr(1), testAddr(2)
	c.Mint(alice, 1)

	if err := c.Transfer(alice, bob, 1); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	owner, _ := c.OwnerOf(1)
	if owner != bob {
		t.Errorf("owner after transfer = %s, want %s", owner, bob)
	}

	// alice no longer owns it.
	if err := c.Transfer(alice, testAddr(3), 1); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := c.Transfer(bob, testAddr(3), 42); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
	if err := c.Transfer(bob, chain.ZeroAddress, 1); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress, got %v", err)
	}
}

func TestTransferHookPipelineOrder(t *testing.T) {
	c := NewCollection("Bound Accounts", "BOUND")
	alice, bob := testAddr(1), testAddr(2)
	c.Mint(alice, 1)

	var calls []string
	c.AddHook(&recordingHook{name: "first", calls: &calls})
	c.AddHook(&recordingHook{name: "second", calls: &calls})

	if err := c.Transfer(alice, bob, 1); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	want := []string{"first:before", "second:before", "first:after", "second:after"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestTransferRejectedByHook(t *testing.T) {
	c := NewCollection("Bound Accounts", "BOUND")
	alice, bob := testAddr(1), testAddr(2)
	c.Mint(alice, 1)

	veto := fmt.Errorf("vetoed")
	var calls []string
	c.AddHook(&recordingHook{name: "guard", calls: &calls, reject: veto})
	c.AddHook(&recordingHook{name: "late", calls: &calls})

	err := c.Transfer(alice, bob, 1)
	if !errors.Is(err, veto) {
		t.Fatalf("expected hook veto, got %v", err)
	}

	// Ownership unchanged, later stages never ran.
	owner, _ := c.OwnerOf(1)
	if owner != alice {
		t.Errorf("owner changed on rejected transfer: %s", owner)
	}
	for _, call := range calls {
		if call == "late:before" || call == "guard:after" || call == "late:after" {
			t.Errorf("stage %q ran after rejection", call)
		}
	}
}

type staticMetadata struct{}

func (staticMetadata) Metadata(tokenID uint64) ([]Attribute, error) {
	return []Attribute{{TraitType: "Account Address", Value: "0x00"}}, nil
}

func TestMetadata(t *testing.T) {
	c := NewCollection("Bound Accounts", "BOUND")
	c.Mint(testAddr(1), 1)

	if _, err := c.Metadata(1); !errors.Is(err, ErrNoMetadata) {
		t.Fatalf("expected ErrNoMetadata, got %v", err)
	}

	c.SetMetadataProvider(staticMetadata{})
	attrs, err := c.Metadata(1)
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if len(attrs) != 1 || attrs[0].TraitType != "Account Address" {
		t.Errorf("attrs = %v, want the Account Address attribute", attrs)
	}

	if _, err := c.Metadata(99); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

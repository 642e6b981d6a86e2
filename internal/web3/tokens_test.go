package web3

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultTokenCatalogLookup(t *testing.T) {
	catalog := DefaultTokenCatalog()

	token, err := catalog.Lookup("wmon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Symbol != "WMON" || token.Decimals != 18 {
		t.Fatalf("unexpected token: %+v", token)
	}
}

func TestTokenCatalogLookupUnknown(t *testing.T) {
	catalog := DefaultTokenCatalog()

	_, err := catalog.Lookup("unknown")
	if err == nil {
		t.Fatalf("expected error for unknown token")
	}
	msg := err.Error()
	if !strings.Contains(msg, `Token "unknown" not found`) {
		t.Fatalf("unexpected error message: %q", msg)
	}
	if !strings.Contains(msg, "MONAI") || !strings.Contains(msg, "WMON") {
		t.Fatalf("error message should enumerate available tokens: %q", msg)
	}
}

func TestLoadTokenCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")
	content := `tokens:
  USDT:
    address: "0x88b8E2161DEDC77EF4ab7585569D2415a1C1055D"
    decimals: 6
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write token catalog: %v", err)
	}

	catalog, err := LoadTokenCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err := catalog.Lookup("USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Decimals != 6 {
		t.Fatalf("unexpected decimals: %d", token.Decimals)
	}
	if _, err := catalog.Lookup("WMON"); err == nil {
		t.Fatalf("custom catalog should replace the built-in table")
	}
}

func TestLoadTokenCatalogInvalidAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")
	content := `tokens:
  BAD:
    address: "not-an-address"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write token catalog: %v", err)
	}
	if _, err := LoadTokenCatalog(path); err == nil {
		t.Fatalf("expected error for invalid contract address")
	}
}

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int
		want     string
	}{
		{"1500000000000000000", 18, "1.5"},
		{"1000000000000000000", 18, "1"},
		{"0", 18, "0"},
		{"1", 18, "0.000000000000000001"},
		{"123456", 6, "0.123456"},
		{"-2500000", 6, "-2.5"},
	}
	for _, tc := range cases {
		amount, ok := new(big.Int).SetString(tc.amount, 10)
		if !ok {
			t.Fatalf("bad test amount %q", tc.amount)
		}
		if got := FormatUnits(amount, tc.decimals); got != tc.want {
			t.Fatalf("FormatUnits(%s, %d) = %q, want %q", tc.amount, tc.decimals, got, tc.want)
		}
	}
}

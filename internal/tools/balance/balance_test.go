package balance

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"Monad-Agent-Kit/internal/tools"
	"Monad-Agent-Kit/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
)

type stubReader struct {
	native *big.Int
	token  *big.Int
	err    error

	lastAccount common.Address
	lastToken   common.Address
}

func (s *stubReader) NativeBalance(_ context.Context, account common.Address) (*big.Int, error) {
	s.lastAccount = account
	if s.err != nil {
		return nil, s.err
	}
	return new(big.Int).Set(s.native), nil
}

func (s *stubReader) TokenBalance(_ context.Context, token, account common.Address) (*big.Int, error) {
	s.lastToken = token
	s.lastAccount = account
	if s.err != nil {
		return nil, s.err
	}
	return new(big.Int).Set(s.token), nil
}

func (s *stubReader) Close() {}

func newRegistry(reader *stubReader) *tools.Registry {
	registry := tools.NewRegistry()
	Register(registry, Config{Reader: reader})
	return registry
}

func mustWallet(t *testing.T, address string) *wallet.Wallet {
	t.Helper()
	w, err := wallet.NewReadOnly(address)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return w
}

func TestNativeBalanceFallsBackToSessionWallet(t *testing.T) {
	amount, _ := new(big.Int).SetString("1500000000000000000", 10)
	reader := &stubReader{native: amount}
	registry := newRegistry(reader)
	w := mustWallet(t, "0xABC0000000000000000000000000000000000001")

	tool, ok := registry.Get(NativeToolName)
	if !ok {
		t.Fatalf("native balance tool not registered")
	}
	out, err := tool.Handler(context.Background(), map[string]any{}, w, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "1.5" {
		t.Fatalf("unexpected output: %q", out)
	}
	if reader.lastAccount != w.Address() {
		t.Fatalf("expected query for session wallet, got %s", reader.lastAccount)
	}
}

func TestNativeBalanceExplicitAddressWins(t *testing.T) {
	reader := &stubReader{native: big.NewInt(0)}
	registry := newRegistry(reader)
	w := mustWallet(t, "0xABC0000000000000000000000000000000000001")
	explicit := "0xDEF0000000000000000000000000000000000002"

	tool, _ := registry.Get(NativeToolName)
	if _, err := tool.Handler(context.Background(), map[string]any{"address": explicit}, w, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader.lastAccount != common.HexToAddress(explicit) {
		t.Fatalf("expected query for explicit address, got %s", reader.lastAccount)
	}
}

func TestNativeBalanceWithoutAnyAddress(t *testing.T) {
	registry := newRegistry(&stubReader{native: big.NewInt(1)})

	tool, _ := registry.Get(NativeToolName)
	_, err := tool.Handler(context.Background(), nil, nil, nil)
	if err == nil {
		t.Fatalf("expected error when no address is resolvable")
	}
}

func TestTokenBalanceUnknownToken(t *testing.T) {
	registry := newRegistry(&stubReader{token: big.NewInt(1)})
	w := mustWallet(t, "0xABC0000000000000000000000000000000000001")

	tool, _ := registry.Get(TokenToolName)
	_, err := tool.Handler(context.Background(), map[string]any{"tokenName": "unknown"}, w, nil)
	if err == nil {
		t.Fatalf("expected error for unknown token")
	}
	msg := err.Error()
	if !strings.Contains(msg, `Token "unknown" not found`) || !strings.Contains(msg, "WMON") {
		t.Fatalf("unexpected error message: %q", msg)
	}
}

func TestTokenBalanceSuccess(t *testing.T) {
	amount, _ := new(big.Int).SetString("2500000000000000000", 10)
	reader := &stubReader{token: amount}
	registry := newRegistry(reader)
	w := mustWallet(t, "0xABC0000000000000000000000000000000000001")

	tool, _ := registry.Get(TokenToolName)
	out, err := tool.Handler(context.Background(), map[string]any{"tokenName": "WMON"}, w, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "2.5" {
		t.Fatalf("unexpected output: %q", out)
	}
	if (reader.lastToken == common.Address{}) {
		t.Fatalf("token contract address was not resolved")
	}
}

func TestTokenBalanceBackendFailure(t *testing.T) {
	reader := &stubReader{err: errors.New("rpc down")}
	registry := newRegistry(reader)
	w := mustWallet(t, "0xABC0000000000000000000000000000000000001")

	tool, _ := registry.Get(TokenToolName)
	if _, err := tool.Handler(context.Background(), map[string]any{"tokenName": "WMON"}, w, nil); err == nil {
		t.Fatalf("expected error when backend fails")
	}
}

package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

type fakeBackend struct {
	native *big.Int
	token  *big.Int
	err    error

	lastCall *gethcore.CallMsg
}

func (f *fakeBackend) BalanceAt(_ context.Context, _ common.Address, _ *big.Int) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.native), nil
}

func (f *fakeBackend) CallContract(_ context.Context, call gethcore.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastCall = &call
	if f.err != nil {
		return nil, f.err
	}
	return common.LeftPadBytes(f.token.Bytes(), 32), nil
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error when rpc url is missing")
	}
}

func TestNativeBalance(t *testing.T) {
	backend := &fakeBackend{native: big.NewInt(1_500_000)}
	client, err := NewClientWithBackend(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, err := client.NativeBalance(context.Background(), common.HexToAddress("0xABC0000000000000000000000000000000000001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.Cmp(big.NewInt(1_500_000)) != 0 {
		t.Fatalf("unexpected balance: %s", balance)
	}
}

func TestTokenBalance(t *testing.T) {
	want, _ := new(big.Int).SetString("1500000000000000000", 10)
	backend := &fakeBackend{token: want}
	client, err := NewClientWithBackend(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token := common.HexToAddress("0x760AfE86e5de5fa0Ee542fc7B7B713e1C5425701")
	holder := common.HexToAddress("0xABC0000000000000000000000000000000000001")
	balance, err := client.TokenBalance(context.Background(), token, holder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.Cmp(want) != 0 {
		t.Fatalf("unexpected balance: %s", balance)
	}

	if backend.lastCall == nil || backend.lastCall.To == nil || *backend.lastCall.To != token {
		t.Fatalf("call should target the token contract: %+v", backend.lastCall)
	}
	if len(backend.lastCall.Data) < 4 {
		t.Fatalf("call data should carry the balanceOf selector")
	}
}

func TestCloseWithConcurrentQueries(t *testing.T) {
	backend := &fakeBackend{native: big.NewInt(1)}
	client, err := NewClientWithBackend(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.NativeBalance(context.Background(), common.Address{})
		}()
	}
	client.Close()
	wg.Wait()

	if _, err := client.NativeBalance(context.Background(), common.Address{}); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestTokenBalanceBackendError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("rpc down")}
	client, err := NewClientWithBackend(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.TokenBalance(context.Background(), common.Address{}, common.Address{}); err == nil {
		t.Fatalf("expected error when backend fails")
	}
}

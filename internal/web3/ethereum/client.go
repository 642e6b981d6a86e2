package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"Monad-Agent-Kit/internal/web3"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// erc20ABI 只保留余额查询所需的最小 ABI 片段。
const erc20ABI = `[{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

// Config describes how to construct an EVM compatible balance client.
type Config struct {
	RPCURL string
}

// Client implements the web3.BalanceReader interface for EVM compatible
// chains such as Monad. Close may race with in-flight queries; queries
// issued after Close return an error.
type Client struct {
	mu        sync.RWMutex
	rpcClient *gethrpc.Client
	eth       *ethclient.Client
	backend   contractCaller
	erc20     abi.ABI
}

// contractCaller mirrors the subset of ethclient used for read-only calls,
// so tests can substitute a fake backend.
type contractCaller interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call gethcore.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// NewClient dials the configured RPC endpoint and returns a ready-to-use
// client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("未配置 Monad RPC 地址")
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接 Monad 节点失败: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("解析 ERC-20 ABI 失败: %w", err)
	}

	eth := ethclient.NewClient(rpcClient)
	return &Client{
		rpcClient: rpcClient,
		eth:       eth,
		backend:   eth,
		erc20:     parsed,
	}, nil
}

// NewClientWithBackend wraps a caller backend directly, used by tests.
func NewClientWithBackend(backend contractCaller) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("解析 ERC-20 ABI 失败: %w", err)
	}
	return &Client{backend: backend, erc20: parsed}, nil
}

// Close releases network connections held by the client.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
	c.backend = nil
}

// NativeBalance 查询账户的原生代币余额（最小单位）。
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	backend := c.callBackend()
	if backend == nil {
		return nil, errors.New("未初始化的 Monad 客户端")
	}
	balance, err := backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("查询余额失败: %w", err)
	}
	return balance, nil
}

// TokenBalance 通过 ERC-20 balanceOf 查询账户的代币余额（最小单位）。
func (c *Client) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	backend := c.callBackend()
	if backend == nil {
		return nil, errors.New("未初始化的 Monad 客户端")
	}

	input, err := c.erc20.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("编码 balanceOf 调用失败: %w", err)
	}

	output, err := backend.CallContract(ctx, gethcore.CallMsg{To: &token, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("调用代币合约失败: %w", err)
	}

	results, err := c.erc20.Unpack("balanceOf", output)
	if err != nil {
		return nil, fmt.Errorf("解析 balanceOf 返回值失败: %w", err)
	}
	if len(results) == 0 {
		return nil, errors.New("代币合约没有返回余额")
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, errors.New("balanceOf 返回值类型异常")
	}
	return balance, nil
}

func (c *Client) callBackend() contractCaller {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend
}

var _ web3.BalanceReader = (*Client)(nil)

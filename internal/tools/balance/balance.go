package balance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Monad-Agent-Kit/internal/tools"
	"Monad-Agent-Kit/internal/wallet"
	"Monad-Agent-Kit/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

// 工具名称与远端助手声明的函数名保持一致。
const (
	NativeToolName = "get_balance"
	TokenToolName  = "get_token_balance"
)

// Config 绑定余额工具所需的链客户端与代币表。
type Config struct {
	Reader  web3.BalanceReader
	Catalog *web3.TokenCatalog
}

// Register 将内置的余额查询工具注册到指定注册表。
func Register(registry *tools.Registry, cfg Config) {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = web3.DefaultTokenCatalog()
	}

	registry.Register(NativeToolName, tools.Tool{
		Definition: tools.Definition{
			Name: NativeToolName,
			Description: fmt.Sprintf("Get the native %s balance of a wallet on the Monad network. "+
				"Defaults to the agent's own wallet when no address is given.", web3.NativeSymbol),
			Parameters: tools.Parameters{
				Type: "object",
				Properties: map[string]tools.Property{
					"address": {
						Type:        "string",
						Description: "Wallet address to query. Optional, defaults to the session wallet.",
					},
				},
			},
		},
		Handler: nativeHandler(cfg.Reader),
	})

	registry.Register(TokenToolName, tools.Tool{
		Definition: tools.Definition{
			Name: TokenToolName,
			Description: "Get the ERC-20 token balance of a wallet on the Monad network " +
				"for a token identified by its symbol.",
			Parameters: tools.Parameters{
				Type: "object",
				Properties: map[string]tools.Property{
					"tokenName": {
						Type:        "string",
						Description: "Symbol of the token to query.",
						Enum:        catalog.Symbols(),
					},
					"address": {
						Type:        "string",
						Description: "Wallet address to query. Optional, defaults to the session wallet.",
					},
				},
				Required: []string{"tokenName"},
			},
		},
		Handler: tokenHandler(cfg.Reader, catalog),
	})
}

func nativeHandler(reader web3.BalanceReader) tools.Handler {
	return func(ctx context.Context, args map[string]any, w *wallet.Wallet, _ map[string]any) (string, error) {
		if reader == nil {
			return "", errors.New("balance backend is not configured")
		}
		account, err := resolveAddress(args, w)
		if err != nil {
			return "", err
		}
		amount, err := reader.NativeBalance(ctx, account)
		if err != nil {
			return "", err
		}
		return web3.FormatUnits(amount, web3.NativeDecimals), nil
	}
}

func tokenHandler(reader web3.BalanceReader, catalog *web3.TokenCatalog) tools.Handler {
	return func(ctx context.Context, args map[string]any, w *wallet.Wallet, _ map[string]any) (string, error) {
		if reader == nil {
			return "", errors.New("balance backend is not configured")
		}
		name := stringArg(args, "tokenName")
		if name == "" {
			return "", errors.New("tokenName is required")
		}
		token, err := catalog.Lookup(name)
		if err != nil {
			return "", err
		}
		account, err := resolveAddress(args, w)
		if err != nil {
			return "", err
		}
		amount, err := reader.TokenBalance(ctx, token.Address, account)
		if err != nil {
			return "", err
		}
		return web3.FormatUnits(amount, token.Decimals), nil
	}
}

// resolveAddress 优先使用显式传入的地址，缺省时回退到会话钱包。
func resolveAddress(args map[string]any, w *wallet.Wallet) (common.Address, error) {
	if explicit := stringArg(args, "address"); explicit != "" {
		if !common.IsHexAddress(explicit) {
			return common.Address{}, fmt.Errorf("invalid wallet address: %q", explicit)
		}
		return common.HexToAddress(explicit), nil
	}
	if w == nil {
		return common.Address{}, errors.New("no wallet address provided and the session has no default wallet")
	}
	return w.Address(), nil
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	value, _ := args[key].(string)
	return strings.TrimSpace(value)
}

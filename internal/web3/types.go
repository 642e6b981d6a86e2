package web3

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NativeSymbol 是 Monad 网络原生代币的符号。
const NativeSymbol = "MON"

// NativeDecimals 是原生代币的小数位数。
const NativeDecimals = 18

// BalanceReader defines the common interface that any chain implementation
// must provide so the agent tools can query balances uniformly.
type BalanceReader interface {
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
	Close()
}

// FormatUnits 将链上最小单位的余额转换为带小数点的十进制字符串，
// 去掉多余的尾随零，例如 1500000000000000000 (18 位) -> "1.5"。
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}

	value := new(big.Int).Abs(amount)
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	integer, fraction := new(big.Int).QuoRem(value, divisor, new(big.Int))

	result := integer.String()
	if fraction.Sign() > 0 {
		frac := fraction.String()
		for len(frac) < decimals {
			frac = "0" + frac
		}
		frac = strings.TrimRight(frac, "0")
		if frac != "" {
			result += "." + frac
		}
	}
	if amount.Sign() < 0 {
		result = "-" + result
	}
	return result
}

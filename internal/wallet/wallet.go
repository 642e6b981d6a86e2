package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet 表示会话持有的链上账户上下文。核心只读取地址，签名能力
// 由持有私钥的调用方自行使用。
type Wallet struct {
	address common.Address
	key     *ecdsa.PrivateKey
}

// NewFromPrivateKey 通过十六进制私钥推导账户地址。
func NewFromPrivateKey(hexKey string) (*Wallet, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, errors.New("未提供钱包私钥")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("解析钱包私钥失败: %w", err)
	}
	return &Wallet{
		address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}, nil
}

// NewReadOnly 创建一个只包含地址、不具备签名能力的钱包上下文。
func NewReadOnly(address string) (*Wallet, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("无效的钱包地址: %q", address)
	}
	return &Wallet{address: common.HexToAddress(address)}, nil
}

// Address 返回账户地址。
func (w *Wallet) Address() common.Address {
	if w == nil {
		return common.Address{}
	}
	return w.address
}

// AddressHex 返回 0x 前缀的地址字符串。
func (w *Wallet) AddressHex() string {
	if w == nil {
		return ""
	}
	return w.address.Hex()
}

// CanSign 报告该钱包是否持有私钥。
func (w *Wallet) CanSign() bool {
	return w != nil && w.key != nil
}

// PrivateKey 返回底层私钥，只读钱包返回 nil。
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	if w == nil {
		return nil
	}
	return w.key
}

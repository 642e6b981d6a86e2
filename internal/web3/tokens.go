package web3

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Token 描述代币表中的一个 ERC-20 代币。
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int
}

// TokenCatalog 保存符号到代币的映射，供余额工具按名称解析合约地址。
type TokenCatalog struct {
	tokens map[string]Token
}

// tokenDefinition models one entry of configs/tokens.yaml.
type tokenDefinition struct {
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// tokenDefinitions models the structure of configs/tokens.yaml.
type tokenDefinitions struct {
	Tokens map[string]tokenDefinition `yaml:"tokens"`
}

// DefaultTokenCatalog 返回内置的 Monad 测试网代币表。
func DefaultTokenCatalog() *TokenCatalog {
	catalog := &TokenCatalog{tokens: map[string]Token{}}
	catalog.add(Token{
		Symbol:   "WMON",
		Address:  common.HexToAddress("0x760AfE86e5de5fa0Ee542fc7B7B713e1C5425701"),
		Decimals: 18,
	})
	catalog.add(Token{
		Symbol:   "MONAI",
		Address:  common.HexToAddress("0x5D876D73f4441D5f2438B1A3e2A51771B337F27A"),
		Decimals: 18,
	})
	return catalog
}

// LoadTokenCatalog 解析 YAML 代币表文件。路径为空时返回内置代币表。
func LoadTokenCatalog(path string) (*TokenCatalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTokenCatalog(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取代币表失败: %w", err)
	}

	var defs tokenDefinitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return nil, fmt.Errorf("解析代币表失败: %w", err)
	}
	if len(defs.Tokens) == 0 {
		return nil, fmt.Errorf("代币表 %s 中没有任何代币", path)
	}

	catalog := &TokenCatalog{tokens: map[string]Token{}}
	for symbol, def := range defs.Tokens {
		if !common.IsHexAddress(def.Address) {
			return nil, fmt.Errorf("代币 %s 的合约地址无效: %q", symbol, def.Address)
		}
		decimals := def.Decimals
		if decimals <= 0 {
			decimals = 18
		}
		catalog.add(Token{
			Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
			Address:  common.HexToAddress(def.Address),
			Decimals: decimals,
		})
	}
	return catalog, nil
}

func (c *TokenCatalog) add(token Token) {
	c.tokens[strings.ToUpper(token.Symbol)] = token
}

// Lookup 按符号检索代币，大小写不敏感。未命中时返回的错误会列出全部
// 可用符号，该文案会原样转交给远端助手。
func (c *TokenCatalog) Lookup(symbol string) (Token, error) {
	if c == nil {
		return Token{}, fmt.Errorf("token catalog is not configured")
	}
	token, ok := c.tokens[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Token{}, fmt.Errorf("Token %q not found. Available tokens: %s",
			symbol, strings.Join(c.Symbols(), ", "))
	}
	return token, nil
}

// Symbols 返回排序后的代币符号列表。
func (c *TokenCatalog) Symbols() []string {
	if c == nil {
		return nil
	}
	symbols := make([]string, 0, len(c.tokens))
	for symbol := range c.tokens {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

package envelope

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedEnvelope 编码数据无法解析
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrInvalidKey 密钥摘要不匹配
	ErrInvalidKey = errors.New("invalid encryption key")
)

// LineItem 报价行项（信封编码的基本单元）
type LineItem struct {
	ItemName    string  `json:"item_name"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
}

// Total 行项小计
func (li LineItem) Total() float64 {
	return li.Quantity * li.UnitPrice
}

// SumTotal 行项合计金额
func SumTotal(items []LineItem) float64 {
	var total float64
	for _, li := range items {
		total += li.Total()
	}
	return total
}

// Encode 把行项序列化为可入库的字符串（JSON + base64）。
// 只是编码不是加密，不提供任何保密性。
func Encode(items []LineItem) (string, error) {
	if items == nil {
		items = []LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode line items: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode Encode的逆操作
func Decode(blob string) ([]LineItem, error) {
	b, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, ErrMalformedEnvelope
	}
	var items []LineItem
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, ErrMalformedEnvelope
	}
	return items, nil
}

// GenerateKey 生成随机对称密钥（16字节，hex编码）。
// 密钥只在创建报价时返回一次，服务端只保存摘要。
func GenerateKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// KeyDigest 密钥的sha256摘要（入库用，单向）
func KeyDigest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Encrypt XOR流加密（密钥循环对齐明文长度），密文hex编码。
// 无认证：篡改密文会得到另一段"看起来合法"的明文，
// 完整性由签名服务保证。
func Encrypt(payload, key string) string {
	return hex.EncodeToString(xorBytes([]byte(payload), []byte(key)))
}

// Decrypt Encrypt的逆操作
func Decrypt(ciphertext, key string) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", ErrMalformedEnvelope
	}
	return string(xorBytes(raw, []byte(key))), nil
}

// DecryptChecked 先校验密钥摘要再解密。摘要不匹配时返回
// ErrInvalidKey，不泄露任何解密字节。
func DecryptChecked(ciphertext, presentedKey, storedDigest string) (string, error) {
	if KeyDigest(presentedKey) != storedDigest {
		return "", ErrInvalidKey
	}
	return Decrypt(ciphertext, presentedKey)
}

func xorBytes(data, key []byte) []byte {
	if len(key) == 0 {
		return data
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}

package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/envelope"
)

// canonicalQuotation 签名输入的规范化结构。字段顺序固定，
// 序列化结果对相同数据是确定的。行项用解码后的结构形式，
// 不用编码blob，编码方式变化不影响签名。
type canonicalQuotation struct {
	QuoteNumber string              `json:"quote_number"`
	RFQID       string              `json:"rfq_id"`
	TotalAmount float64             `json:"total_amount"`
	LineItems   []envelope.LineItem `json:"line_items"`
}

// CanonicalPayload 生成报价核心字段的规范化序列化
func CanonicalPayload(quoteNumber, rfqID string, totalAmount float64, items []envelope.LineItem) ([]byte, error) {
	if items == nil {
		items = []envelope.LineItem{}
	}
	b, err := json.Marshal(canonicalQuotation{
		QuoteNumber: quoteNumber,
		RFQID:       rfqID,
		TotalAmount: totalAmount,
		LineItems:   items,
	})
	if err != nil {
		return nil, fmt.Errorf("canonical payload: %w", err)
	}
	return b, nil
}

// GenerateKeyPair 每个报价生成独立的ed25519密钥对（base64编码）。
// 私钥只在创建时返回一次，服务端不保存——服务端能验签但无法重签。
func GenerateKeyPair() (publicKey, privateKey string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate key pair: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pub),
		base64.StdEncoding.EncodeToString(priv), nil
}

// Sign 用私钥对规范化数据签名
func Sign(data []byte, privateKey string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(privateKey)
	if err != nil {
		return "", fmt.Errorf("decode private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("invalid private key size %d", len(raw))
	}
	sig := ed25519.Sign(ed25519.PrivateKey(raw), data)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify 验签。任何畸形输入或不匹配都返回false，从不panic——
// 验签失败是正常的布尔结果，调用方显式分支处理。
func Verify(data []byte, sig, publicKey string) bool {
	rawPub, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil || len(rawPub) != ed25519.PublicKeySize {
		return false
	}
	rawSig, err := base64.StdEncoding.DecodeString(sig)
	if err != nil || len(rawSig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(rawPub), data, rawSig)
}

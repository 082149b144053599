// Package payment LiqPay支付网关协议
//
// 协议要点:
//   - data = base64(JSON载荷)
//   - signature = base64(sha1(private_key + data + private_key))
//   - 支付回调以表单字段 data、signature 发送,先验签再解码
package payment

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
)

// Signer 使用商户私钥签名与验签
type Signer struct {
	privateKey string
}

// NewSigner 创建签名器
func NewSigner(privateKey string) *Signer {
	return &Signer{privateKey: privateKey}
}

// Sign 计算data的签名
func (s *Signer) Sign(data string) string {
	h := sha1.New()
	h.Write([]byte(s.privateKey))
	h.Write([]byte(data))
	h.Write([]byte(s.privateKey))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Verify 常量时间比较签名
func (s *Signer) Verify(data, signature string) bool {
	expected := s.Sign(data)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

package order

import (
	"strings"

	"github.com/google/uuid"
)

// NewOrderID 生成订单ID
// 使用UUIDv4:全局唯一且不可预测,订单ID会出现在支付链接中,不能被遍历
func NewOrderID() string {
	return uuid.NewString()
}

// NewConfirmationToken 生成一次性确认令牌(32位十六进制)
func NewConfirmationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 应用错误
// 设计说明：
// 1. Code是业务错误码，客户端依据它判断错误类型
// 2. Message是可以直接展示给用户的提示（店面前端直接渲染，因此使用英文）
// 3. Err是内部错误，只写日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使预定义错误在被WithMessage复制后仍可用errors.Is判断
// 因此每个需要单独判断的预定义错误都要有自己的错误码
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus 错误码 → HTTP状态码
func (e *AppError) HTTPStatus() int {
	return HTTPStatus(e.Code)
}

// WithMessage 复制错误并替换提示信息（错误码不变）
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{Code: e.Code, Message: message, Err: e.Err}
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装底层错误（数据库、网络），对外只暴露message
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// WrapCode 用指定错误码包装底层错误
func WrapCode(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 400xx: 业务规则错误
// - 401xx: 认证授权
// - 404xx: 资源不存在
// - 409xx: 参数错误（请求在进入业务逻辑前被拒绝）
// - 5xxxx: 服务端错误

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal       = 50000
	ErrCodeDatabaseError  = 50001
	ErrCodeRedisError     = 50002
	ErrCodeMessagingError = 50003

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized     = 40100
	ErrCodeInvalidToken     = 40101
	ErrCodeTokenExpired     = 40102
	ErrCodeInvalidPassword  = 40103
	ErrCodeForbidden        = 40104
	ErrCodeInvalidSignature = 40105 // 支付回调签名不匹配

	// 资源错误（40400-40499）
	ErrCodeNotFound                  = 40400
	ErrCodeUserNotFound              = 40401
	ErrCodeBookNotFound              = 40402
	ErrCodeOrderNotFound             = 40403
	ErrCodePromoCodeNotFound         = 40404
	ErrCodeConfirmationTokenNotFound = 40405

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError      = 40000
	ErrCodeInsufficientStock  = 40001
	ErrCodeInvalidOrderStatus = 40002
	ErrCodeEmailDuplicate     = 40003
	ErrCodeTitleDuplicate     = 40004
	ErrCodeWeakPassword       = 40005
	ErrCodePromoCodeExpired   = 40006
	ErrCodePromoMinimumNotMet = 40007
	ErrCodeNoBooksResolved    = 40008
	ErrCodeDuplicateEntry     = 40009
	ErrCodePromoCodeDuplicate = 40010
	ErrCodeAmountMismatch     = 40011

	// 参数错误（40900-40999）
	ErrCodeInvalidParams          = 40900
	ErrCodeBindError              = 40901
	ErrCodeEmptyPromoCode         = 40902
	ErrCodeInvalidDiscountPercent = 40903
	ErrCodeNegativeAmount         = 40904
	ErrCodeMalformedCallback      = 40905
	ErrCodeInvalidPrice           = 40906
	ErrCodeInvalidDiscountedPrice = 40907
	ErrCodeInvalidStock           = 40908
	ErrCodeInvalidPaymentMethod   = 40909

	// 限流（42900）
	ErrCodeTooManyRequests = 42900
)

// =========================================
// 预定义错误
// =========================================

var (
	ErrInternal      = New(ErrCodeInternal, "Internal server error")
	ErrDatabaseError = New(ErrCodeDatabaseError, "Database error")
	ErrRedisError    = New(ErrCodeRedisError, "Cache service error")

	ErrUnauthorized     = New(ErrCodeUnauthorized, "Please log in")
	ErrInvalidToken     = New(ErrCodeInvalidToken, "Invalid token")
	ErrTokenExpired     = New(ErrCodeTokenExpired, "Token has expired")
	ErrInvalidPassword  = New(ErrCodeInvalidPassword, "Wrong email or password")
	ErrForbidden        = New(ErrCodeForbidden, "Access denied")
	ErrInvalidSignature = New(ErrCodeInvalidSignature, "Signature mismatch")

	ErrNotFound      = New(ErrCodeNotFound, "Resource not found")
	ErrUserNotFound  = New(ErrCodeUserNotFound, "User not found")
	ErrBookNotFound  = New(ErrCodeBookNotFound, "Book not found")
	ErrOrderNotFound = New(ErrCodeOrderNotFound, "Order doesn't exist")

	ErrInsufficientStock  = New(ErrCodeInsufficientStock, "Insufficient stock")
	ErrInvalidOrderStatus = New(ErrCodeInvalidOrderStatus, "Order status does not allow this operation")
	ErrEmailDuplicate     = New(ErrCodeEmailDuplicate, "Email is already registered")
	ErrWeakPassword       = New(ErrCodeWeakPassword, "Password must be 8-20 characters and contain letters and digits")
	ErrDuplicateEntry     = New(ErrCodeDuplicateEntry, "Record already exists")

	ErrInvalidParams = New(ErrCodeInvalidParams, "Invalid parameters")
	ErrBindError     = New(ErrCodeBindError, "Malformed request body")

	ErrTooManyRequests = New(ErrCodeTooManyRequests, "Too many requests")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（非AppError包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "Internal server error")
}

// HTTPStatus 把业务错误码映射到HTTP状态码
// 规则：
// 1. 401xx → 401，其中无权限和签名不匹配 → 403
// 2. 404xx → 404
// 3. 唯一字段冲突 → 409
// 4. 限流 → 429
// 5. 其余4xxxx → 400
// 6. 5xxxx及未知 → 500
func HTTPStatus(code int) int {
	switch {
	case code == 0:
		return http.StatusOK
	case code == ErrCodeForbidden || code == ErrCodeInvalidSignature:
		return http.StatusForbidden
	case code >= 40100 && code < 40200:
		return http.StatusUnauthorized
	case code >= 40400 && code < 40500:
		return http.StatusNotFound
	case code == ErrCodeDuplicateEntry || code == ErrCodeEmailDuplicate ||
		code == ErrCodeTitleDuplicate || code == ErrCodePromoCodeDuplicate:
		return http.StatusConflict
	case code == ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case code >= 40000 && code < 50000:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError 错误链上的AppError错误码小于50000(业务、参数、资源类错误)
// 非AppError视为服务端错误
func IsClientError(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code < ErrCodeInternal
}

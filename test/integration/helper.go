//go:build integration

// Package integration 针对运行中的服务的黑盒测试
//
//	BOOKSTORE_IT_BASE_URL=http://localhost:8080 \
//	BOOKSTORE_IT_ADMIN_EMAIL=admin@bookstore.local \
//	BOOKSTORE_IT_LIQPAY_PRIVATE_KEY=sandbox_private_key \
//	go test -tags integration ./test/integration/...
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	Timeout      = 10 * time.Second
	TestPassword = "Test1234"
)

// Response 统一响应结构
type Response struct {
	Status  int             `json:"-"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Decode 解析Data
func (r *Response) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v), "解析响应数据失败: %s", string(r.Data))
}

type LoginData struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		ID   uint   `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

type BookData struct {
	ID             uint   `json:"id"`
	AvailableBooks int    `json:"availableBooks"`
	SalesCount     int    `json:"salesCount"`
	Price          string `json:"price"`
}

type CheckoutData struct {
	OrderID  string `json:"orderId"`
	Message  string `json:"message"`
	TotalSum string `json:"totalSum"`
}

var client = &http.Client{
	Timeout: Timeout,
	// 支付回调失败时服务端返回302,测试需要看到原始状态码
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}

// BaseURL 未配置时跳过整个测试
func BaseURL(t *testing.T) string {
	t.Helper()
	base := os.Getenv("BOOKSTORE_IT_BASE_URL")
	if base == "" {
		t.Skip("BOOKSTORE_IT_BASE_URL not set")
	}
	return strings.TrimRight(base, "/")
}

func requireEnv(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}

func do(t *testing.T, req *http.Request, token string) *Response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	result := &Response{Status: resp.StatusCode}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(body, result), "解析JSON响应失败: %s", string(body))
	}
	return result
}

// Send 发送JSON请求,data为nil时不带请求体
func Send(t *testing.T, method, url string, data interface{}, token string) *Response {
	t.Helper()
	var body io.Reader
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err, "创建HTTP请求失败")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return do(t, req, token)
}

// PostForm 以表单提交,模拟支付网关回调
func PostForm(t *testing.T, url string, form url.Values) *Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, req, "")
}

// GenerateTestEmail 纳秒时间戳保证重复运行不冲突
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, time.Now().UnixNano())
}

// Login 登录并返回access token
func Login(t *testing.T, base, email string) *LoginData {
	t.Helper()
	resp := Send(t, http.MethodPost, base+"/users/login", map[string]string{
		"email":    email,
		"password": TestPassword,
	}, "")
	require.Equal(t, http.StatusOK, resp.Status, "登录失败: %s", resp.Message)

	var data LoginData
	resp.Decode(t, &data)
	return &data
}

// RegisterTestUser 注册并登录
func RegisterTestUser(t *testing.T, base, nickname string) (string, *LoginData) {
	t.Helper()
	email := GenerateTestEmail(nickname)
	resp := Send(t, http.MethodPost, base+"/users/register", map[string]string{
		"email":    email,
		"password": TestPassword,
		"nickname": nickname,
	}, "")
	require.Equal(t, http.StatusCreated, resp.Status, "注册失败: %s", resp.Message)
	return email, Login(t, base, email)
}

// AdminToken 管理员邮箱需在服务端auth.admin_emails中;已注册时直接登录
func AdminToken(t *testing.T, base string) string {
	t.Helper()
	email := requireEnv(t, "BOOKSTORE_IT_ADMIN_EMAIL")
	resp := Send(t, http.MethodPost, base+"/users/register", map[string]string{
		"email":    email,
		"password": TestPassword,
		"nickname": "admin",
	}, "")
	require.Contains(t, []int{http.StatusCreated, http.StatusConflict}, resp.Status, resp.Message)

	data := Login(t, base, email)
	require.Equal(t, "admin", data.User.Role, "账号不在管理员名单中")
	return data.AccessToken
}

// PublishTestBook 上架图书并返回ID
func PublishTestBook(t *testing.T, base, token, price string, stock int) uint {
	t.Helper()
	resp := Send(t, http.MethodPost, base+"/books", map[string]interface{}{
		"title":          fmt.Sprintf("Integration %d", time.Now().UnixNano()),
		"author":         "Tester",
		"genre":          "testing",
		"price":          json.Number(price),
		"availableBooks": stock,
	}, token)
	require.Equal(t, http.StatusCreated, resp.Status, "上架失败: %s", resp.Message)

	var book BookData
	resp.Decode(t, &book)
	return book.ID
}

// GetBook 图书详情
func GetBook(t *testing.T, base string, id uint) *BookData {
	t.Helper()
	resp := Send(t, http.MethodGet, fmt.Sprintf("%s/books/%d", base, id), nil, "")
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)

	var book BookData
	resp.Decode(t, &book)
	return &book
}

// CheckoutRequest 下单请求体
func CheckoutRequest(method, total string, books ...uint) map[string]interface{} {
	return map[string]interface{}{
		"username":       "Taras",
		"lastName":       "Shevchenko",
		"phoneNumber":    "+380501234567",
		"email":          GenerateTestEmail("buyer"),
		"city":           "Kyiv",
		"paymentMethod":  method,
		"totalSum":       json.Number(total),
		"books":          books,
		"deliveryMethod": "post",
		"branchAddress":  "Branch 1",
	}
}

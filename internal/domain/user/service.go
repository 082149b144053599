package user

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/bookstore-orders/pkg/errors"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	hasLetter    = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit     = regexp.MustCompile(`[0-9]`)
)

// Service 用户领域服务
type Service interface {
	// Register 注册,邮箱在管理员名单中的账号获得admin角色
	Register(ctx context.Context, email, password, nickname string) (*User, error)

	// Login 邮箱不存在与密码错误统一返回ErrInvalidPassword,避免探测账号
	Login(ctx context.Context, email, password string) (*User, error)

	GetByID(ctx context.Context, id uint) (*User, error)
}

// Options 服务选项
type Options struct {
	AdminEmails []string
	// BcryptCost 默认12,测试时可调低
	BcryptCost int
}

type service struct {
	repo   Repository
	admins map[string]struct{}
	cost   int
}

// NewService 创建用户服务
func NewService(repo Repository, opts Options) Service {
	s := &service{repo: repo, admins: make(map[string]struct{}), cost: opts.BcryptCost}
	if s.cost == 0 {
		s.cost = 12
	}
	for _, e := range opts.AdminEmails {
		s.admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return s
}

// Register 用户注册
// 业务规则:
// 1. 邮箱格式校验
// 2. 密码8-20位,包含字母和数字
// 3. 邮箱唯一性由数据库唯一索引保证
func (s *service) Register(ctx context.Context, email, password, nickname string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "Email must be valid")
	}
	if err := validatePasswordStrength(password); err != nil {
		return nil, err
	}
	if n := len([]rune(nickname)); n < 2 || n > 50 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "Nickname must be 2-50 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to hash password")
	}

	role := RoleCustomer
	if _, ok := s.admins[email]; ok {
		role = RoleAdmin
	}

	u := NewUser(email, string(hashed), nickname, role)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, apperrors.Wrap(err, "Failed to verify password")
	}
	return u, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// validatePasswordStrength 8-20位,必须包含字母和数字
func validatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return apperrors.ErrWeakPassword
	}
	if !hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return apperrors.ErrWeakPassword
	}
	return nil
}

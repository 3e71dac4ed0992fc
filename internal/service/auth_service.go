package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/hrsync_server/config"
	"github.com/qs3c/hrsync_server/internal/model"
	"github.com/qs3c/hrsync_server/internal/model/dto"
	"github.com/qs3c/hrsync_server/internal/pkg/backend"
	"github.com/qs3c/hrsync_server/internal/pkg/jwt"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
	"github.com/qs3c/hrsync_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("Email is already registered")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrUserNotFound       = errors.New("User not found")
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// ValidationError 表单校验失败，Message 直接展示给用户
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Authenticator 账户来源：远程网站后端或本地用户表
type Authenticator interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (int64, error)
	// Login 返回计费后端使用的 bearer token（本地模式为空）和用户信息
	Login(ctx context.Context, email, password string) (string, session.User, error)
}

type AuthService struct {
	auth     Authenticator
	sessions *session.Service
	cfg      *config.Config
}

func NewAuthService(auth Authenticator, sessions *session.Service, cfg *config.Config) *AuthService {
	return &AuthService{
		auth:     auth,
		sessions: sessions,
		cfg:      cfg,
	}
}

// Register 用户注册
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	normalizeRegister(req)
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	userID, err := s.auth.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dto.RegisterResponse{UserID: userID}, nil
}

// Login 用户登录，成功后写入会话并广播登录事件
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	if err := validateCredentials(email, req.Password); err != nil {
		return nil, err
	}

	backendToken, user, err := s.auth.Login(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	// 本地模式没有外部 token，会话里保存本服务签发的 token
	sessionToken := backendToken
	if sessionToken == "" {
		sessionToken = token
	}
	if err := s.sessions.Save(ctx, user.ID, sessionToken, user); err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  toUserInfo(user),
	}, nil
}

// Logout 清除会话，并广播登出事件
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.sessions.Clear(ctx, userID)
}

// Me 当前会话用户
func (s *AuthService) Me(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserInfo(sess.User), nil
}

func toUserInfo(u session.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
	}
}

// normalizeRegister 手机号只保留数字，去掉 91 国家码或前导 0，不截断
func normalizeRegister(req *dto.RegisterRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = normalizePhone(req.Phone)
}

func normalizePhone(raw string) string {
	phone := nonDigit.ReplaceAllString(raw, "")
	switch {
	case len(phone) == 12 && strings.HasPrefix(phone, "91"):
		phone = phone[2:]
	case len(phone) == 11 && strings.HasPrefix(phone, "0"):
		phone = phone[1:]
	}
	return phone
}

func validateRegister(req *dto.RegisterRequest) error {
	switch {
	case req.Name == "":
		return &ValidationError{Field: "name", Message: "Company name is required"}
	case len([]rune(req.Name)) < 2:
		return &ValidationError{Field: "name", Message: "Company name must be at least 2 characters"}
	case req.Phone == "":
		return &ValidationError{Field: "phone", Message: "Phone number is required"}
	case !phonePattern.MatchString(req.Phone):
		return &ValidationError{Field: "phone", Message: "Enter a valid 10-digit Indian phone number"}
	}
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return err
	}
	if len(req.Password) < 8 {
		return &ValidationError{Field: "password", Message: "Password must be at least 8 characters"}
	}
	return nil
}

func validateCredentials(email, password string) error {
	switch {
	case email == "":
		return &ValidationError{Field: "email", Message: "Email is required"}
	case !emailPattern.MatchString(email):
		return &ValidationError{Field: "email", Message: "Enter a valid email address"}
	case password == "":
		return &ValidationError{Field: "password", Message: "Password is required"}
	}
	return nil
}

// RemoteAuthenticator 账户在网站后端
type RemoteAuthenticator struct {
	client *backend.Client
}

func NewRemoteAuthenticator(client *backend.Client) *RemoteAuthenticator {
	return &RemoteAuthenticator{client: client}
}

func (a *RemoteAuthenticator) Register(ctx context.Context, req *dto.RegisterRequest) (int64, error) {
	err := a.client.Register(ctx, &backend.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	return 0, err
}

func (a *RemoteAuthenticator) Login(ctx context.Context, email, password string) (string, session.User, error) {
	result, err := a.client.Login(ctx, &backend.LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", session.User{}, err
	}
	return result.Token, session.User{
		ID:    result.User.ID,
		Name:  result.User.Name,
		Email: result.User.Email,
		Phone: result.User.Phone,
	}, nil
}

// LocalAuthenticator 账户在本地 users 表
type LocalAuthenticator struct {
	userRepo *repository.UserRepository
}

func NewLocalAuthenticator(userRepo *repository.UserRepository) *LocalAuthenticator {
	return &LocalAuthenticator{userRepo: userRepo}
}

func (a *LocalAuthenticator) Register(ctx context.Context, req *dto.RegisterRequest) (int64, error) {
	email := strings.ToLower(req.Email)
	exists, err := a.userRepo.ExistsByEmail(email)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: string(hashedPassword),
	}
	if err := a.userRepo.Create(user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (a *LocalAuthenticator) Login(ctx context.Context, email, password string) (string, session.User, error) {
	user, err := a.userRepo.GetByEmail(strings.ToLower(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", session.User{}, ErrInvalidCredentials
		}
		return "", session.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", session.User{}, ErrInvalidCredentials
	}

	return "", session.User{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	}, nil
}

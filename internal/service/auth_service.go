package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/feelins/flask-admin/config"
	"github.com/feelins/flask-admin/internal/dto"
	"github.com/feelins/flask-admin/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrAuthDisabled       = errors.New("后台未启用登录")
)

// AuthService 后台登录业务接口（单一管理员账号，配置于 auth 段）
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Verify 校验会话 Token，返回用户名
	Verify(token string) (string, error)
}

type authService struct {
	cfg    *config.AuthConfig
	jwtMgr *jwt.Manager
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(cfg *config.AuthConfig, jwtMgr *jwt.Manager, logger *zap.Logger) AuthService {
	return &authService{cfg: cfg, jwtMgr: jwtMgr, logger: logger}
}

func (s *authService) Login(_ context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	if !s.cfg.Enabled {
		return nil, ErrAuthDisabled
	}

	// 1. 校验用户名（常量时间比较）
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.Username)) == 1

	// 2. 验证密码 (bcrypt)，用户名错误时同样执行比较
	pwErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(req.Password))
	if !userOK || pwErr != nil {
		s.logger.Warn("后台登录失败", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	// 3. 签发会话 Token
	token, err := s.jwtMgr.GenerateSessionToken(s.cfg.Username)
	if err != nil {
		s.logger.Error("生成会话 Token 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("后台登录成功", zap.String("username", s.cfg.Username))
	return &dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(s.jwtMgr.TTL().Seconds()),
	}, nil
}

func (s *authService) Verify(token string) (string, error) {
	claims, err := s.jwtMgr.ParseToken(token)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}

// HashPassword 生成 bcrypt 密码哈希，用于填写 auth.password_hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("密码不能为空")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

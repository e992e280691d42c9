package service

import (
	"context"
	"errors"
	"time"

	"skymate/internal/api/dto"
	"skymate/internal/config"
	"skymate/internal/model"
	"skymate/pkg/logger"
	"skymate/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameExists    = errors.New("username already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrTokenRevoked      = errors.New("token has been revoked")
)

// UserRepo 用户存储
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *model.User) error
}

// TokenRevoker 已注销 token 记录
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthService struct {
	userRepo UserRepo
	revoker  TokenRevoker
	jwtCfg   config.JWTConfig
	issuer   string
}

// NewAuthService revoker 为 nil 时不支持注销
func NewAuthService(userRepo UserRepo, revoker TokenRevoker, jwtCfg config.JWTConfig, issuer string) *AuthService {
	return &AuthService{userRepo: userRepo, revoker: revoker, jwtCfg: jwtCfg, issuer: issuer}
}

// Register 用户注册
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserInfo, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		UserName: req.Username,
		Password: hashedPassword,
		Avatar:   req.Avatar,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	return toUserInfo(user), nil
}

// Login 用户登录，返回 token 数据
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenData, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	if !utils.VerifyPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredential
	}

	token, _, err := utils.GenerateToken(s.jwtCfg.Secret, s.issuer, s.jwtCfg.ExpireDuration(), user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.TokenData{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(s.jwtCfg.ExpireDuration().Seconds()),
		User:      *toUserInfo(user),
	}, nil
}

// Authenticate 校验 token 并检查是否已注销。Redis 故障时放行并记录告警
func (s *AuthService) Authenticate(ctx context.Context, token string) (*utils.Claims, error) {
	claims, err := utils.ParseToken(s.jwtCfg.Secret, token)
	if err != nil {
		return nil, err
	}

	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			logger.Warn("Token revocation check skipped", zap.Error(err))
		} else if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Logout 注销 token 直到其自然过期
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	if s.revoker == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	return s.revoker.Revoke(ctx, claims.ID, ttl)
}

// GetCurrentUser 根据用户 ID 获取用户信息
func (s *AuthService) GetCurrentUser(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserInfo(user), nil
}

func toUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:        user.ID,
		Username:  user.UserName,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
	}
}

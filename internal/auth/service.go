package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelinehq/storeline-backend/internal/users"
	pkgauth "github.com/storelinehq/storeline-backend/pkg/auth"
	"github.com/storelinehq/storeline-backend/pkg/auth/session"
	"github.com/storelinehq/storeline-backend/pkg/config"
	"github.com/storelinehq/storeline-backend/pkg/db/models"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
	"github.com/storelinehq/storeline-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	ActivatePhone(ctx context.Context, req ActivateRequest) error
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	MarkPhoneVerified(ctx context.Context, id uuid.UUID) error
}

type codeStore interface {
	StoreActivationCode(ctx context.Context, phone, code string, ttl time.Duration) error
	GetActivationCode(ctx context.Context, phone string) (string, error)
	DeleteActivationCode(ctx context.Context, phone string) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type smsSender interface {
	SendActivationCode(ctx context.Context, phone, code string) error
}

type codeGenerator interface {
	NewCode() (string, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	users       userRepository
	codes       codeStore
	sms         smsSender
	codegen     codeGenerator
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	rateCfg     config.AuthRateLimitConfig
	codeTTL     time.Duration
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo        userRepository
	CodeStore       codeStore
	SMSSender       smsSender
	CodeGenerator   codeGenerator
	SessionManager  sessionManager
	JWTConfig       config.JWTConfig
	PasswordConfig  config.PasswordConfig
	RateLimitConfig config.AuthRateLimitConfig
	CodeTTL         time.Duration
}

// NewService constructs the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.CodeStore == nil {
		return nil, fmt.Errorf("code store is required")
	}
	if params.SMSSender == nil {
		return nil, fmt.Errorf("sms sender is required")
	}
	if params.CodeGenerator == nil {
		return nil, fmt.Errorf("code generator is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	codeTTL := params.CodeTTL
	if codeTTL <= 0 {
		codeTTL = 5 * time.Minute
	}
	return &service{
		users:       params.UserRepo,
		codes:       params.CodeStore,
		sms:         params.SMSSender,
		codegen:     params.CodeGenerator,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		rateCfg:     params.RateLimitConfig,
		codeTTL:     codeTTL,
	}, nil
}

// Register creates the account and sends the activation code. The phone
// stays unverified until ActivatePhone succeeds.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, "register:phone:"+phone, s.rateCfg.RegisterPhoneLimit, s.rateCfg.RegisterWindow); err != nil {
		return nil, err
	}
	if req.IP != "" {
		if err := s.allow(ctx, "register:ip:"+req.IP, s.rateCfg.RegisterIPLimit, s.rateCfg.RegisterWindow); err != nil {
			return nil, err
		}
	}

	if _, err := s.users.FindByPhone(ctx, phone); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup phone")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Phone:        phone,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	code, err := s.codegen.NewCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate activation code")
	}
	if err := s.codes.StoreActivationCode(ctx, phone, code, s.codeTTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store activation code")
	}
	if err := s.sms.SendActivationCode(ctx, phone, code); err != nil {
		return nil, err
	}

	return &RegisterResponse{User: users.FromModel(user)}, nil
}

// ActivatePhone checks the SMS code and flips the account to verified. The
// code is single-use.
func (s *service) ActivatePhone(ctx context.Context, req ActivateRequest) error {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return err
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "activation code is required")
	}

	stored, err := s.codes.GetActivationCode(ctx, phone)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "activation code expired or not found")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "activation code mismatch")
	}

	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if err := s.users.MarkPhoneVerified(ctx, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark phone verified")
	}
	if err := s.codes.DeleteActivationCode(ctx, phone); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume activation code")
	}
	return nil
}

// Login authenticates by phone and password and issues a token pair.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if err := s.allow(ctx, "login:phone:"+phone, s.rateCfg.LoginPhoneLimit, s.rateCfg.LoginWindow); err != nil {
		return nil, err
	}
	if req.IP != "" {
		if err := s.allow(ctx, "login:ip:"+req.IP, s.rateCfg.LoginIPLimit, s.rateCfg.LoginWindow); err != nil {
			return nil, err
		}
	}

	user, err := s.authenticate(ctx, phone, req.Password)
	if err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{TokenPair: *pair, User: users.FromModel(user)}, nil
}

// Refresh rotates the session and mints a fresh token pair. The expired
// access token identifies the session being rotated.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: claims.UserID,
		Role:   claims.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Logout revokes the session behind the provided access identifier.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, phone, password string) (*models.User, error) {
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive || !user.PhoneVerified {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *service) allow(ctx context.Context, scope string, limit int, window time.Duration) error {
	if limit <= 0 || window <= 0 {
		return nil
	}
	allowed, _, err := s.codes.FixedWindowAllow(ctx, scope, int64(limit), window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limit check")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, retry later")
	}
	return nil
}

func normalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	for _, r := range phone {
		if (r < '0' || r > '9') && r != '+' {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "phone must contain digits only")
		}
	}
	if len(phone) < 10 || len(phone) > 15 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone length is invalid")
	}
	return phone, nil
}

package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"money-transfer/internal/config"
	"money-transfer/internal/domain"
	"money-transfer/internal/errors"
	"money-transfer/internal/repository"
)

// InitialBalance is credited to every freshly registered account.
const InitialBalance int64 = 1000

const bcryptCost = 10

type UserService struct {
	store  *repository.Store
	cfg    *config.Config
	logger *slog.Logger
}

func NewUserService(store *repository.Store, cfg *config.Config, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

type RegisterRequest struct {
	Username       string
	FullName       string
	Email          string
	Password       string
	ProfilePicture string
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
}

// Register creates the user row and its 1:1 account (seeded with the
// initial balance) in one transaction, so a user can never exist without
// an account.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to hash password").WithDetails(err.Error())
	}

	user := &domain.User{
		ID:             uuid.New(),
		Username:       strings.ToLower(strings.TrimSpace(req.Username)),
		FullName:       strings.TrimSpace(req.FullName),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   string(hash),
		ProfilePicture: req.ProfilePicture,
	}

	err = s.store.WithTransaction(ctx, func(tx *repository.Store) error {
		if err := tx.User().CreateUser(ctx, user); err != nil {
			return err
		}

		account := &domain.Account{
			ID:      uuid.New(),
			UserID:  user.ID,
			Balance: InitialBalance,
		}
		return tx.Account().CreateAccount(ctx, account)
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.NewAppError(errors.InternalError, "failed to register user").WithDetails(err.Error())
	}

	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login authenticates by username or email and issues an access/refresh
// token pair. The refresh token is persisted on the user row; issuing a
// new one invalidates the old.
func (s *UserService) Login(ctx context.Context, login, password string) (*domain.User, *AuthTokens, error) {
	user, err := s.store.User().GetUserByLogin(ctx, strings.ToLower(strings.TrimSpace(login)))
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			return nil, nil, errors.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, errors.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return user, tokens, nil
}

// Refresh rotates the token pair. A token that does not match the one
// stored on the user row is treated as expired or already used.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, errors.ErrUnauthorized.WithDetails("invalid refresh token")
	}

	userID, err := subjectID(claims)
	if err != nil {
		return nil, errors.ErrUnauthorized.WithDetails("invalid refresh token subject")
	}

	user, err := s.store.User().GetUserByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrUnauthorized.WithDetails("unknown user")
		}
		return nil, err
	}

	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, errors.ErrUnauthorized.WithDetails("refresh token is expired or already used")
	}

	return s.issueTokens(ctx, user)
}

func (s *UserService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.store.User().UpdateRefreshToken(ctx, userID, "")
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.store.User().GetUserByID(ctx, userID)
}

func (s *UserService) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.store.Account().GetAccount(ctx, accountID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.store.User().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return errors.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to hash password").WithDetails(err.Error())
	}

	return s.store.User().UpdatePassword(ctx, userID, string(hash))
}

func (s *UserService) UpdateFullName(ctx context.Context, userID uuid.UUID, fullName string) error {
	return s.store.User().UpdateFullName(ctx, userID, strings.TrimSpace(fullName))
}

// UpdateProfilePicture stores the reference to an already-uploaded image.
// Ledger snapshots taken before this call keep the old reference.
func (s *UserService) UpdateProfilePicture(ctx context.Context, userID uuid.UUID, profilePicture string) error {
	return s.store.User().UpdateProfilePicture(ctx, userID, profilePicture)
}

func (s *UserService) issueTokens(ctx context.Context, user *domain.User) (*AuthTokens, error) {
	account, err := s.store.Account().GetAccountByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        user.ID.String(),
		"username":   user.Username,
		"account_id": account.ID.String(),
		"iat":        now.Unix(),
		"exp":        now.Add(s.cfg.AccessTokenTTL).Unix(),
	})
	accessToken, err := access.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to sign access token").WithDetails(err.Error())
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.RefreshTokenTTL).Unix(),
	})
	refreshToken, err := refresh.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to sign refresh token").WithDetails(err.Error())
	}

	if err := s.store.User().UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, err
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *UserService) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, stderrors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, stderrors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, stderrors.New("invalid claims")
	}
	return claims, nil
}

func subjectID(claims jwt.MapClaims) (uuid.UUID, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(sub)
}

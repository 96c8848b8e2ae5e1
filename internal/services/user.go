// Package services contains the storefront's business logic. This file
// implements UserService: registration, login, token rotation and the
// password reset flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ritvika/paintshop/internal/auth"
	"github.com/ritvika/paintshop/internal/common"
	"github.com/ritvika/paintshop/internal/config"
	"github.com/ritvika/paintshop/internal/dbx"
	"github.com/ritvika/paintshop/internal/logging"
	"github.com/ritvika/paintshop/internal/mail"
	"github.com/ritvika/paintshop/internal/models"
	"github.com/ritvika/paintshop/internal/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	mailer                       mail.Mailer
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	resetTokenValidityDuration   time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, mailer mail.Mailer, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		mailer:                       mailer,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		resetTokenValidityDuration:   cfg.ResetTokenValidityDuration,
	}
}

// Register creates a user with a bcrypt password hash and an empty cart.
// The welcome mail is best effort and never fails the registration.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || len(password) < 6 {
		return nil, fmt.Errorf("email and a password of at least 6 characters are required: %w", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrInternal
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, PasswordHash: hash})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		if _, err := s.repomanager.Carts(tx).GetOrCreate(ctx, u.ID); err != nil {
			return fmt.Errorf("error creating cart: %w", err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.mailer.Send(ctx, user.Email, "Signup succeeded!",
		"<h1>You successfully signed up!</h1>"); err != nil {
		s.logger.Warn(ctx, "welcome mail not sent", "email", user.Email, "error", err)
	}

	return user, nil
}

// Login verifies the password and mints a token pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrUnauthorized
	}
	return s.generateTokenPair(ctx, user, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes a single refresh token. Revoking an unknown token is a no-op.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// RequestPasswordReset issues a single-use reset token and mails it. To
// avoid leaking account existence, an unknown email reports success.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return common.ErrInternal
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return common.ErrInternal
	}

	expires := time.Now().Add(s.resetTokenValidityDuration)
	if err := userRepo.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}

	body := fmt.Sprintf(`<p>You requested a password reset.</p>
<p>Use token <b>%s</b> to set a new password. It is valid for one hour.</p>`, token)
	if err := s.mailer.Send(ctx, user.Email, "Password reset", body); err != nil {
		s.logger.Warn(ctx, "reset mail not sent", "email", user.Email, "error", err)
	}
	return nil
}

// ResetPassword sets a new password for the user holding a live reset
// token. The token is cleared and all refresh tokens revoked in the same
// transaction, so a stolen session dies with the old password.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters: %w", common.ErrValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrResetTokenExpired
		}
		return fmt.Errorf("error searching reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePasswordAndClearResetToken(ctx, user.ID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		if err := s.repomanager.RefreshTokens(tx).DeleteForUser(ctx, user.ID); err != nil {
			return fmt.Errorf("error revoking sessions: %w", err)
		}
		return nil
	})
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.IsAdmin, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

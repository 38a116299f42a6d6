package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/store"
)

// UserService covers registration, login, token refresh and account changes.
type UserService interface {
	// Register creates an active user. Returns store.ErrEmailExists if the
	// email is already taken, case-insensitively.
	Register(ctx context.Context, email, password string) (*domain.User, error)

	// Login checks credentials and issues an access/refresh pair.
	// Unknown email and wrong password both return auth.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*auth.TokenPair, error)

	// Refresh exchanges a refresh token for a new pair.
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)

	// IssuePasswordReset issues a password reset token for an existing user.
	IssuePasswordReset(ctx context.Context, userID uuid.UUID) (*auth.IssuedToken, error)

	// ResetPassword consumes a password reset token and sets a new password.
	ResetPassword(ctx context.Context, resetToken, newPassword string) error

	// GetUser retrieves a user by id.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetUserByEmail retrieves a user by email, case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateEmail changes the user's email address.
	UpdateEmail(ctx context.Context, userID uuid.UUID, email string) (*domain.User, error)

	// ChangePassword replaces the password after checking the current one.
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error

	// SetActive activates or deactivates an account.
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
}

// userServiceImpl implements the UserService interface
type userServiceImpl struct {
	users  store.UserStore
	tx     store.TxRunner
	hasher auth.PasswordHasher
	tokens auth.JWTService
	logger *slog.Logger

	// unknownDigest is compared against on logins for unknown emails so they
	// cost the same bcrypt work as a wrong password.
	unknownDigest     string
	unknownDigestOnce sync.Once
}

// Ensure userServiceImpl implements UserService
var _ UserService = (*userServiceImpl)(nil)

// NewUserService creates a new UserService.
// It returns an error if any of the required dependencies are nil.
func NewUserService(
	users store.UserStore,
	tx store.TxRunner,
	hasher auth.PasswordHasher,
	tokens auth.JWTService,
	log *slog.Logger,
) (UserService, error) {
	if users == nil {
		return nil, &ServiceError{Service: "user", Operation: "create_service", Message: "users cannot be nil"}
	}
	if tx == nil {
		return nil, &ServiceError{Service: "user", Operation: "create_service", Message: "tx cannot be nil"}
	}
	if hasher == nil {
		return nil, &ServiceError{Service: "user", Operation: "create_service", Message: "hasher cannot be nil"}
	}
	if tokens == nil {
		return nil, &ServiceError{Service: "user", Operation: "create_service", Message: "tokens cannot be nil"}
	}
	if log == nil {
		log = slog.Default()
	}

	return &userServiceImpl{
		users:  users,
		tx:     tx,
		hasher: hasher,
		tokens: tokens,
		logger: log.With(slog.String("component", "user_service")),
	}, nil
}

// Register implements UserService.Register
func (s *userServiceImpl) Register(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, NewServiceError("user", "register", "failed to hash password", err)
	}

	user, err := domain.NewUser(email, digest)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("registration with existing email rejected")
		}
		return nil, NewServiceError("user", "register", "failed to save user", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login implements UserService.Login
func (s *userServiceImpl) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("login for unknown email")
			_ = s.hasher.Compare(s.unknownUserDigest(), password)
			return nil, auth.ErrInvalidCredentials
		}
		return nil, NewServiceError("user", "login", "failed to look up user", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login with wrong password", slog.String("user_id", user.ID.String()))
		return nil, auth.ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Info("login for inactive user", slog.String("user_id", user.ID.String()))
		return nil, ErrInactiveUser
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, NewServiceError("user", "login", "failed to issue tokens", err)
	}
	return pair, nil
}

// unknownUserDigest returns a digest made with the configured work factor
// that no submitted password is expected to match.
func (s *userServiceImpl) unknownUserDigest() string {
	s.unknownDigestOnce.Do(func() {
		digest, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warn("failed to prepare unknown-user digest", slog.Any("error", err))
			return
		}
		s.unknownDigest = digest
	})
	return s.unknownDigest
}

// Refresh implements UserService.Refresh
func (s *userServiceImpl) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.Verify(ctx, refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, NewServiceError("user", "refresh", "failed to issue tokens", err)
	}
	return pair, nil
}

// IssuePasswordReset implements UserService.IssuePasswordReset
func (s *userServiceImpl) IssuePasswordReset(ctx context.Context, userID uuid.UUID) (*auth.IssuedToken, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, NewServiceError("user", "issue_password_reset", "failed to look up user", err)
	}

	token, err := s.tokens.IssuePasswordReset(ctx, userID)
	if err != nil {
		return nil, NewServiceError("user", "issue_password_reset", "failed to issue token", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).
		Info("password reset token issued", slog.String("user_id", userID.String()))
	return token, nil
}

// ResetPassword implements UserService.ResetPassword
func (s *userServiceImpl) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.tokens.Verify(ctx, resetToken, auth.KindPasswordReset)
	if err != nil {
		return err
	}

	if err := s.setPassword(ctx, "reset_password", claims.UserID, "", newPassword, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnknownTokenSubject
		}
		return err
	}

	logger.FromContextOrDefault(ctx, s.logger).
		Info("password reset", slog.String("user_id", claims.UserID.String()))
	return nil
}

// GetUser implements UserService.GetUser
func (s *userServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, NewServiceError("user", "get", "failed to retrieve user", err)
	}
	return user, nil
}

// GetUserByEmail implements UserService.GetUserByEmail
func (s *userServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, NewServiceError("user", "get_by_email", "failed to retrieve user", err)
	}
	return user, nil
}

// UpdateEmail implements UserService.UpdateEmail
// The read and the write run in one transaction.
func (s *userServiceImpl) UpdateEmail(ctx context.Context, userID uuid.UUID, email string) (*domain.User, error) {
	normalized := domain.NormalizeEmail(email)

	var updated *domain.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.users.WithTx(tx)

		user, err := txUsers.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if user.Email == normalized {
			updated = user
			return nil
		}

		existing, err := txUsers.GetByEmail(ctx, normalized)
		switch {
		case err == nil && existing.ID != user.ID:
			return store.ErrEmailExists
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return err
		}

		user.Email = normalized
		if err := txUsers.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, NewServiceError("user", "update_email", "failed to update email", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).
		Info("user email updated", slog.String("user_id", userID.String()))
	return updated, nil
}

// ChangePassword implements UserService.ChangePassword
func (s *userServiceImpl) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	currentPassword, newPassword string,
) error {
	if err := s.setPassword(ctx, "change_password", userID, currentPassword, newPassword, true); err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, s.logger).
		Info("password changed", slog.String("user_id", userID.String()))
	return nil
}

// SetActive implements UserService.SetActive
func (s *userServiceImpl) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return NewServiceError("user", "set_active", "failed to update account state", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("account state changed",
		slog.String("user_id", userID.String()),
		slog.Bool("active", active))
	return nil
}

// setPassword hashes newPassword and stores it for userID. When checkCurrent
// is set, currentPassword must match the stored digest first.
func (s *userServiceImpl) setPassword(
	ctx context.Context,
	operation string,
	userID uuid.UUID,
	currentPassword, newPassword string,
	checkCurrent bool,
) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return NewServiceError("user", operation, "failed to hash password", err)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.users.WithTx(tx)

		user, err := txUsers.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if checkCurrent {
			if err := s.hasher.Compare(user.HashedPassword, currentPassword); err != nil {
				return auth.ErrInvalidCredentials
			}
		}

		user.HashedPassword = digest
		return txUsers.Update(ctx, user)
	})
	return NewServiceError("user", operation, "failed to update password", err)
}

// activeUser loads the subject of an already verified token.
func (s *userServiceImpl) activeUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownTokenSubject
		}
		return nil, NewServiceError("user", "resolve_subject", "failed to look up user", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

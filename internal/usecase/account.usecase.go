package usecase

import (
	"context"
	"strings"

	"accounts-service/internal/domain"
	"accounts-service/pkg/id"
	"accounts-service/pkg/utils"
	"accounts-service/pkg/xerrors"

	"go.uber.org/zap"
)

// UserRepository is the credential-store contract.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateEmail(ctx context.Context, userID, email string) error
	UpdatePhone(ctx context.Context, userID, phone string) error
	SetActive(ctx context.Context, userID string, active bool) error
	EmailInUseByOther(ctx context.Context, email, excludeUserID string) (bool, error)
}

// UserExtra carries the optional registration fields.
type UserExtra struct {
	PhoneNumber string
	IsStaff     bool
	IsSuperuser bool
}

type RegisterInput struct {
	Email           string
	PhoneNumber     string
	Password        string
	ConfirmPassword string
	Superuser       bool
}

// AccountUsecase is the credential store plus the mutation service on top of
// it: registration, password/email/profile change, activation.
type AccountUsecase struct {
	userRepo UserRepository
	sf       *id.Snowflake
	logger   *zap.Logger
}

func NewAccountUsecase(userRepo UserRepository, sf *id.Snowflake, logger *zap.Logger) *AccountUsecase {
	return &AccountUsecase{userRepo: userRepo, sf: sf, logger: logger}
}

// CreateUser validates, normalizes and persists a new inactive account.
// Activation happens separately, after OTP verification.
func (uc *AccountUsecase) CreateUser(ctx context.Context, email, password string, extra UserExtra) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, xerrors.ErrEmailRequired
	}
	email = utils.NormalizeEmail(email)
	if !utils.ValidateEmail(email) {
		return nil, xerrors.ErrInvalidEmailFormat
	}

	if password == "" {
		return nil, xerrors.ErrPasswordRequired
	}
	if _, err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}

	if extra.PhoneNumber != "" && !utils.ValidatePhone(extra.PhoneNumber) {
		return nil, xerrors.ErrInvalidPhoneFormat
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uc.sf.Generate(),
		Email:        email,
		PhoneNumber:  extra.PhoneNumber,
		PasswordHash: hash,
		IsActive:     false,
		IsStaff:      extra.IsStaff,
		IsSuperuser:  extra.IsSuperuser,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.logger.Info("user created", zap.String("user_id", user.ID))
	return user, nil
}

// CreateSuperuser creates an account with staff and superuser flags set.
func (uc *AccountUsecase) CreateSuperuser(ctx context.Context, email, password string, extra UserExtra) (*domain.User, error) {
	extra.IsStaff = true
	extra.IsSuperuser = true
	return uc.CreateUser(ctx, email, password, extra)
}

// Register is the collaborator-facing registration operation.
func (uc *AccountUsecase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, xerrors.ErrPasswordMismatch
	}

	extra := UserExtra{PhoneNumber: in.PhoneNumber}
	if in.Superuser {
		return uc.CreateSuperuser(ctx, in.Email, in.Password, extra)
	}
	return uc.CreateUser(ctx, in.Email, in.Password, extra)
}

// ChangePassword re-verifies the caller's current password before accepting
// the new one.
func (uc *AccountUsecase) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !utils.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return xerrors.ErrIncorrectPassword
	}

	if _, err := utils.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return uc.userRepo.UpdatePassword(ctx, userID, hash)
}

// ChangeEmail requires the new address be unique across all other users.
func (uc *AccountUsecase) ChangeEmail(ctx context.Context, userID, newEmail string) error {
	newEmail = utils.NormalizeEmail(newEmail)
	if !utils.ValidateEmail(newEmail) {
		return xerrors.ErrInvalidEmailFormat
	}

	inUse, err := uc.userRepo.EmailInUseByOther(ctx, newEmail, userID)
	if err != nil {
		return err
	}
	if inUse {
		return xerrors.ErrEmailAlreadyInUse
	}

	// The unique index still backs this up if a concurrent writer slips in
	// between the check and the update.
	return uc.userRepo.UpdateEmail(ctx, userID, newEmail)
}

// ChangeProfile applies a partial profile update; nil fields stay untouched.
func (uc *AccountUsecase) ChangeProfile(ctx context.Context, userID string, phoneNumber *string) (domain.ProfileSnapshot, error) {
	if phoneNumber != nil {
		if *phoneNumber != "" && !utils.ValidatePhone(*phoneNumber) {
			return domain.ProfileSnapshot{}, xerrors.ErrInvalidPhoneFormat
		}
		if err := uc.userRepo.UpdatePhone(ctx, userID, *phoneNumber); err != nil {
			return domain.ProfileSnapshot{}, err
		}
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return domain.ProfileSnapshot{}, err
	}
	return user.Profile(), nil
}

// Activate flips is_active after a successful verification.
func (uc *AccountUsecase) Activate(ctx context.Context, userID string) error {
	return uc.userRepo.SetActive(ctx, userID, true)
}

func (uc *AccountUsecase) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *AccountUsecase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetByEmail(ctx, utils.NormalizeEmail(email))
}

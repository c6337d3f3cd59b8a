package usecase

import (
	"context"
	"testing"

	"accounts-service/internal/domain"
	"accounts-service/pkg/id"
	"accounts-service/pkg/utils"
	"accounts-service/pkg/xerrors"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    map[string]*domain.User{},
		byEmail: map[string]*domain.User{},
	}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return xerrors.ErrEmailAlreadyInUse
	}
	cp := *u
	f.byID[u.ID] = &cp
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID string) (*domain.User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID, hash string) error {
	u, ok := f.byID[userID]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) UpdateEmail(_ context.Context, userID, email string) error {
	u, ok := f.byID[userID]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	if other, taken := f.byEmail[email]; taken && other.ID != userID {
		return xerrors.ErrEmailAlreadyInUse
	}
	delete(f.byEmail, u.Email)
	u.Email = email
	f.byEmail[email] = u
	return nil
}

func (f *fakeUserRepo) UpdatePhone(_ context.Context, userID, phone string) error {
	u, ok := f.byID[userID]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	u.PhoneNumber = phone
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, userID string, active bool) error {
	u, ok := f.byID[userID]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

func (f *fakeUserRepo) EmailInUseByOther(_ context.Context, email, excludeUserID string) (bool, error) {
	u, ok := f.byEmail[email]
	return ok && u.ID != excludeUserID, nil
}

func newAccountUsecase(t *testing.T, repo UserRepository) *AccountUsecase {
	t.Helper()
	sf, err := id.NewSnowflake(1)
	require.NoError(t, err)
	return NewAccountUsecase(repo, sf, zap.NewNop())
}

func TestCreateUserStartsInactive(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newAccountUsecase(t, repo)

	u, err := uc.CreateUser(context.Background(), "alice@Example.COM", "Str0ngpass", UserExtra{})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", u.Email)
	require.False(t, u.IsActive)
	require.False(t, u.IsStaff)
	require.False(t, u.IsSuperuser)
	require.NotEmpty(t, u.ID)

	// stored hash verifies against the original password, never equals it
	stored := repo.byID[u.ID]
	require.NotEqual(t, "Str0ngpass", stored.PasswordHash)
	require.True(t, utils.CheckPasswordHash("Str0ngpass", stored.PasswordHash))
}

func TestCreateUserRejections(t *testing.T) {
	uc := newAccountUsecase(t, newFakeUserRepo())
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, "", "Str0ngpass", UserExtra{})
	require.ErrorIs(t, err, xerrors.ErrEmailRequired)

	_, err = uc.CreateUser(ctx, "not-an-email", "Str0ngpass", UserExtra{})
	require.ErrorIs(t, err, xerrors.ErrInvalidEmailFormat)

	_, err = uc.CreateUser(ctx, "bob@example.com", "", UserExtra{})
	require.ErrorIs(t, err, xerrors.ErrPasswordRequired)

	_, err = uc.CreateUser(ctx, "bob@example.com", "alllowercase1", UserExtra{})
	require.ErrorIs(t, err, xerrors.ErrPasswordUppercase)

	_, err = uc.CreateUser(ctx, "bob@example.com", "Str0ngpass", UserExtra{PhoneNumber: "banana"})
	require.ErrorIs(t, err, xerrors.ErrInvalidPhoneFormat)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newAccountUsecase(t, repo)
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, "dup@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)

	_, err = uc.CreateUser(ctx, "dup@example.com", "Str0ngpass", UserExtra{})
	require.ErrorIs(t, err, xerrors.ErrEmailAlreadyInUse)
}

func TestCreateSuperuserSetsFlags(t *testing.T) {
	uc := newAccountUsecase(t, newFakeUserRepo())

	u, err := uc.CreateSuperuser(context.Background(), "root@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)
	require.True(t, u.IsStaff)
	require.True(t, u.IsSuperuser)
	require.False(t, u.IsActive)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	uc := newAccountUsecase(t, newFakeUserRepo())

	_, err := uc.Register(context.Background(), RegisterInput{
		Email:           "carol@example.com",
		Password:        "Str0ngpass",
		ConfirmPassword: "Different1",
	})
	require.ErrorIs(t, err, xerrors.ErrPasswordMismatch)
}

func TestChangePassword(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newAccountUsecase(t, repo)
	ctx := context.Background()

	u, err := uc.CreateUser(ctx, "dave@example.com", "Old1password", UserExtra{})
	require.NoError(t, err)
	originalHash := repo.byID[u.ID].PasswordHash

	err = uc.ChangePassword(ctx, u.ID, "wrong-guess", "New1password")
	require.ErrorIs(t, err, xerrors.ErrIncorrectPassword)
	require.Equal(t, originalHash, repo.byID[u.ID].PasswordHash)

	err = uc.ChangePassword(ctx, u.ID, "Old1password", "weak")
	require.ErrorIs(t, err, xerrors.ErrPasswordTooShort)
	require.Equal(t, originalHash, repo.byID[u.ID].PasswordHash)

	err = uc.ChangePassword(ctx, u.ID, "Old1password", "New1password")
	require.NoError(t, err)
	require.True(t, utils.CheckPasswordHash("New1password", repo.byID[u.ID].PasswordHash))
}

func TestChangeEmail(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newAccountUsecase(t, repo)
	ctx := context.Background()

	a, err := uc.CreateUser(ctx, "a@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)
	b, err := uc.CreateUser(ctx, "b@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)

	err = uc.ChangeEmail(ctx, a.ID, "b@example.com")
	require.ErrorIs(t, err, xerrors.ErrEmailAlreadyInUse)
	require.Equal(t, "a@example.com", repo.byID[a.ID].Email)

	err = uc.ChangeEmail(ctx, a.ID, "bad-address")
	require.ErrorIs(t, err, xerrors.ErrInvalidEmailFormat)

	// domain part is lowercased before storage
	err = uc.ChangeEmail(ctx, a.ID, "a.new@Example.COM")
	require.NoError(t, err)
	require.Equal(t, "a.new@example.com", repo.byID[a.ID].Email)

	// changing to your own current address is a no-op, not a conflict
	err = uc.ChangeEmail(ctx, b.ID, "b@example.com")
	require.NoError(t, err)
}

func TestChangeProfile(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newAccountUsecase(t, repo)
	ctx := context.Background()

	u, err := uc.CreateUser(ctx, "eve@example.com", "Str0ngpass", UserExtra{PhoneNumber: "+254700000001"})
	require.NoError(t, err)

	// nil phone leaves the stored value alone
	snap, err := uc.ChangeProfile(ctx, u.ID, nil)
	require.NoError(t, err)
	require.Equal(t, "+254700000001", snap.PhoneNumber)

	bad := "not-a-phone"
	_, err = uc.ChangeProfile(ctx, u.ID, &bad)
	require.ErrorIs(t, err, xerrors.ErrInvalidPhoneFormat)

	next := "+254700000002"
	snap, err = uc.ChangeProfile(ctx, u.ID, &next)
	require.NoError(t, err)
	require.Equal(t, next, snap.PhoneNumber)
	require.Equal(t, "eve@example.com", snap.Email)
}

func TestActivate(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newAccountUsecase(t, repo)
	ctx := context.Background()

	u, err := uc.CreateUser(ctx, "frank@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)
	require.False(t, repo.byID[u.ID].IsActive)

	require.NoError(t, uc.Activate(ctx, u.ID))
	require.True(t, repo.byID[u.ID].IsActive)
}

func TestGetUserByEmailNormalizes(t *testing.T) {
	repo := newFakeUserRepo()
	uc := newAccountUsecase(t, repo)
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, "grace@example.com", "Str0ngpass", UserExtra{})
	require.NoError(t, err)

	u, err := uc.GetUserByEmail(ctx, "  grace@EXAMPLE.com ")
	require.NoError(t, err)
	require.Equal(t, "grace@example.com", u.Email)
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
	"blog-server/internal/repository/memory"
)

const testRegisterSecret = "let-me-in"

func newTestService(users repository.UserRepository) *userService {
	return &userService{users: users, registerSecret: testRegisterSecret, hashCost: bcrypt.MinCost}
}

// failingRepo reports a storage failure on every lookup.
type failingRepo struct {
	repository.UserRepository
	err error
}

func (f *failingRepo) FindByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	return nil, false, f.err
}

func (f *failingRepo) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return nil, false, f.err
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewUserRepository())

	user, err := svc.Register(ctx, "  alice ", "correct-horse", "ADMIN", testRegisterSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Empty(t, user.PasswordHash, "returned user must not carry the hash")

	user, err = svc.Register(ctx, "bob", "correct-horse", "", testRegisterSecret)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "missing username", username: " ", password: "correct-horse"},
		{name: "missing password", username: "alice", password: ""},
		{name: "short password", username: "alice", password: "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(memory.NewUserRepository())
			_, err := svc.Register(context.Background(), tt.username, tt.password, "", testRegisterSecret)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegister_RegistrationSecret(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		role     string
		provided string
		wantErr  error
	}{
		{name: "admin without secret", secret: testRegisterSecret, role: "ADMIN", provided: "", wantErr: ErrInvalidRegistrationPassword},
		{name: "user without secret", secret: testRegisterSecret, role: "", provided: "", wantErr: ErrInvalidRegistrationPassword},
		{name: "wrong secret", secret: testRegisterSecret, role: "ADMIN", provided: "guess", wantErr: ErrInvalidRegistrationPassword},
		{name: "secret not configured", secret: "", role: "", provided: "", wantErr: ErrInvalidRegistrationPassword},
		{name: "correct secret", secret: testRegisterSecret, role: "ADMIN", provided: " " + testRegisterSecret + " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewUserRepository()
			svc := &userService{users: repo, registerSecret: tt.secret, hashCost: bcrypt.MinCost}

			user, err := svc.Register(context.Background(), "mallory", "whatever1", tt.role, tt.provided)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, found, err := repo.FindByUsername(context.Background(), "mallory")
				require.NoError(t, err)
				assert.False(t, found, "rejected registration must not create a user")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.Role(tt.role), user.Role)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewUserRepository())

	_, err := svc.Register(ctx, "alice", "correct-horse", "", testRegisterSecret)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "another-pass", "", testRegisterSecret)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewUserRepository())
	_, err := svc.Register(ctx, "alice", "correct-horse", "ADMIN", testRegisterSecret)
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_StorageFailure(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newTestService(&failingRepo{err: boom})

	_, err := svc.Authenticate(context.Background(), "alice", "correct-horse")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewUserRepository())
	_, err := svc.Register(ctx, "alice", "s3cr3t-pass", "ADMIN", testRegisterSecret)
	require.NoError(t, err)

	got, found, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", got.Username())
	assert.Equal(t, "ADMIN", got.Role())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.Password()), []byte("s3cr3t-pass")))

	got, found, err = svc.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, got.Username())
}

func TestGetByID_StorageFailure(t *testing.T) {
	boom := errors.New("disk I/O error")
	svc := newTestService(&failingRepo{err: boom})

	_, found, err := svc.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.False(t, found)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"shopadmin/internal/model"
	appErr "shopadmin/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "this-is-a-test-secret-with-32-bytes!"

func setupAuthService(t *testing.T) (AuthService, *fakeUserRepo, *fakeTokenRepo) {
	t.Helper()
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	issuer := NewTokenService(testSecret, tokens, users, nil)
	return NewAuthService(users, issuer), users, tokens
}

func registerUser(t *testing.T, svc AuthService, username, email, password string) *UserResponse {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterRequest{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	return user
}

func TestRegister_Success(t *testing.T) {
	svc, users, _ := setupAuthService(t)

	user := registerUser(t, svc, "Ann", "ann@x.com", "secret1")

	assert.NotZero(t, user.ID)
	assert.Equal(t, "Ann", user.Username)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret1")))

	out, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "password")
	assert.NotContains(t, string(out), stored.Password)
}

func TestRegister_IgnoresRoleInBody(t *testing.T) {
	svc, _, _ := setupAuthService(t)

	var req RegisterRequest
	require.NoError(t, json.Unmarshal([]byte(`{"username":"Eve","email":"eve@x.com","password":"secret1","role":"admin"}`), &req))

	user, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)
}

func TestRegister_ValidationReportsAllFields(t *testing.T) {
	svc, users, _ := setupAuthService(t)

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "", Email: "not-an-email", Password: "123"})
	require.Error(t, err)

	ae, ok := appErr.As(err)
	require.True(t, ok)
	assert.Equal(t, appErr.CodeValidation, ae.Code)
	assert.Contains(t, ae.Fields, "username")
	assert.Contains(t, ae.Fields, "email")
	assert.Contains(t, ae.Fields, "password")
	assert.Equal(t, "The password must be at least 6 characters.", ae.Fields["password"])
	assert.Zero(t, users.count())
}

func TestRegister_LengthLimits(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}

	_, err := svc.Register(context.Background(), RegisterRequest{Username: string(long), Email: "a@x.com", Password: "secret1"})
	ae, ok := appErr.As(err)
	require.True(t, ok)
	assert.Equal(t, "The username may not be greater than 255 characters.", ae.Fields["username"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, users, _ := setupAuthService(t)
	registerUser(t, svc, "Ann", "ann@x.com", "secret1")

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "Other", Email: "ann@x.com", Password: "secret2"})
	require.Error(t, err)

	ae, ok := appErr.As(err)
	require.True(t, ok)
	assert.Equal(t, appErr.CodeValidation, ae.Code)
	assert.Equal(t, "The email has already been taken.", ae.Fields["email"])
	assert.Equal(t, 1, users.count())
}

func TestRegister_ConcurrentDuplicateEmail(t *testing.T) {
	svc, users, _ := setupAuthService(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), RegisterRequest{Username: "Ann", Email: "race@x.com", Password: "secret1"})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case appErr.CodeOf(err) == appErr.CodeValidation:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, 1, users.count())
}

func TestRegister_StorageFailure(t *testing.T) {
	svc, users, _ := setupAuthService(t)
	users.err = errors.New("connection refused")

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.Error(t, err)

	ae, ok := appErr.As(err)
	require.True(t, ok)
	assert.Equal(t, appErr.CodeInternal, ae.Code)
	assert.NotContains(t, ae.Message, "connection refused")
}

func TestLogin_Success(t *testing.T) {
	svc, _, tokens := setupAuthService(t)
	registered := registerUser(t, svc, "Ann", "ann@x.com", "secret1")

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, registered.ID, resp.User.ID)
	assert.Equal(t, model.RoleUser, resp.Role)
	assert.NotEmpty(t, resp.Token)
	assert.Len(t, tokens.tokens, 1)
	for digest, tok := range tokens.tokens {
		assert.NotEqual(t, resp.Token, digest, "plaintext token must not be stored")
		assert.Equal(t, registered.ID, tok.UserID)
		assert.Equal(t, model.DefaultTokenName, tok.Name)
	}
}

func TestLogin_MultipleTokens(t *testing.T) {
	svc, _, tokens := setupAuthService(t)
	registerUser(t, svc, "Ann", "ann@x.com", "secret1")

	a, err := svc.Login(context.Background(), LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)
	b, err := svc.Login(context.Background(), LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
	assert.Len(t, tokens.tokens, 2)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, tokens := setupAuthService(t)
	registerUser(t, svc, "Ann", "ann@x.com", "secret1")

	cases := []LoginRequest{
		{Email: "ann@x.com", Password: "wrong-pass"},
		{Email: "nobody@x.com", Password: "secret1"},
		{Email: "", Password: "secret1"},
		{Email: "ann@x.com", Password: ""},
	}
	for _, req := range cases {
		resp, err := svc.Login(context.Background(), req)
		assert.Nil(t, resp)
		assert.Same(t, ErrInvalidCredentials, err)
	}
	assert.Empty(t, tokens.tokens)
}

func TestLogin_StorageFailure(t *testing.T) {
	svc, users, _ := setupAuthService(t)
	users.err = errors.New("db down")

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ann@x.com", Password: "secret1"})
	assert.Equal(t, appErr.CodeInternal, appErr.CodeOf(err))
}

func TestMe(t *testing.T) {
	svc, users, _ := setupAuthService(t)
	registered := registerUser(t, svc, "Ann", "ann@x.com", "secret1")

	me, err := svc.Me(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", me.Email)

	require.NoError(t, users.Delete(context.Background(), registered.ID))
	_, err = svc.Me(context.Background(), registered.ID)
	assert.Same(t, ErrUnauthenticated, err)
}

package admin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nu-its/authgate/internal/domain/repository"
	dto "github.com/nu-its/authgate/internal/http/dto/admin"
	adminsvc "github.com/nu-its/authgate/internal/http/services/admin"
	tokens "github.com/nu-its/authgate/internal/security/token"
	"github.com/nu-its/authgate/internal/store/memory"
)

var hmacKey = []byte("admin-test-key")

func newService(t *testing.T) (*adminsvc.TokenService, *memory.Store, *repository.User) {
	t.Helper()
	st := memory.New()
	u, err := st.Users().Create(context.Background(), repository.CreateUserInput{
		Email:    "pipeline@northwestern.edu",
		Name:     "CI Pipeline",
		AuthType: repository.AuthAPI,
	})
	require.NoError(t, err)

	svc := adminsvc.NewTokenService(adminsvc.TokenDeps{
		Tokens:     st.Tokens(),
		Users:      st.Users(),
		HMACKey:    hmacKey,
		TokenBytes: 32,
	})
	return svc, st, u
}

func TestIssueToken_RawValueShownOnce(t *testing.T) {
	svc, st, u := newService(t)
	ctx := context.Background()

	res, err := svc.IssueToken(ctx, dto.CreateTokenRequest{
		UserID: u.ID,
		Name:   "deploys",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, tokens.Prefix(res.Token), res.TokenPrefix)
	require.Nil(t, res.ExpiresAt)

	// Solo el hash queda persistido; el token autentica por hash
	gotTok, gotUser, err := st.Tokens().GetActiveByHash(ctx,
		tokens.HMACSHA256Base64URL(hmacKey, res.Token))
	require.NoError(t, err)
	require.Equal(t, res.ID, gotTok.ID)
	require.Equal(t, u.ID, gotUser.ID)
	require.NotEqual(t, res.Token, gotTok.TokenHash)
}

func TestIssueToken_WithTTLAndAllowedIPs(t *testing.T) {
	svc, _, u := newService(t)

	res, err := svc.IssueToken(context.Background(), dto.CreateTokenRequest{
		UserID:     u.ID,
		Name:       "restricted",
		AllowedIPs: []string{"10.0.0.0/8", "192.168.1.5"},
		TTLDays:    30,
	})
	require.NoError(t, err)
	require.NotNil(t, res.ExpiresAt)

	views, err := svc.ListTokens(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.1.5"}, views[0].AllowedIPs)
	require.Equal(t, "active", views[0].Status)
}

func TestIssueToken_RejectsMalformedAllowlist(t *testing.T) {
	svc, _, u := newService(t)

	_, err := svc.IssueToken(context.Background(), dto.CreateTokenRequest{
		UserID:     u.ID,
		Name:       "bad",
		AllowedIPs: []string{"10.0.0.0/99"},
	})
	require.ErrorIs(t, err, adminsvc.ErrInvalidInput)
}

func TestIssueToken_RejectsNonAPIUser(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()

	local, err := st.Users().Create(ctx, repository.CreateUserInput{
		Email: "person@northwestern.edu", AuthType: repository.AuthLocal,
	})
	require.NoError(t, err)

	_, err = svc.IssueToken(ctx, dto.CreateTokenRequest{UserID: local.ID, Name: "x"})
	require.ErrorIs(t, err, adminsvc.ErrNotAPIUser)
}

func TestIssueToken_UnknownUser(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.IssueToken(context.Background(), dto.CreateTokenRequest{
		UserID: "no-such-user", Name: "x",
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIssueToken_MissingFields(t *testing.T) {
	svc, _, u := newService(t)

	_, err := svc.IssueToken(context.Background(), dto.CreateTokenRequest{UserID: u.ID})
	require.ErrorIs(t, err, adminsvc.ErrInvalidInput)

	_, err = svc.IssueToken(context.Background(), dto.CreateTokenRequest{Name: "x"})
	require.ErrorIs(t, err, adminsvc.ErrInvalidInput)
}

func TestRevokeToken(t *testing.T) {
	svc, _, u := newService(t)
	ctx := context.Background()

	res, err := svc.IssueToken(ctx, dto.CreateTokenRequest{UserID: u.ID, Name: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(ctx, res.ID))

	views, err := svc.ListTokens(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "revoked", views[0].Status)

	require.ErrorIs(t, svc.RevokeToken(ctx, "no-such-token"), repository.ErrNotFound)
}

func TestCreateUser(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	view, err := svc.CreateUser(ctx, dto.CreateUserRequest{
		Email:    "New.Person@Northwestern.EDU",
		Name:     "New Person",
		NetID:    "npe5678",
		AuthType: "local",
	})
	require.NoError(t, err)
	require.Equal(t, "new.person@northwestern.edu", view.Email)
	require.Equal(t, "local", view.AuthType)

	// Email duplicado
	_, err = svc.CreateUser(ctx, dto.CreateUserRequest{
		Email: "new.person@northwestern.edu", AuthType: "local",
	})
	require.ErrorIs(t, err, repository.ErrConflict)

	// auth_type inválido
	_, err = svc.CreateUser(ctx, dto.CreateUserRequest{
		Email: "x@nu.edu", AuthType: "wizard",
	})
	require.ErrorIs(t, err, adminsvc.ErrInvalidInput)

	// email inválido
	_, err = svc.CreateUser(ctx, dto.CreateUserRequest{
		Email: "not-an-email", AuthType: "local",
	})
	require.ErrorIs(t, err, adminsvc.ErrInvalidInput)
}

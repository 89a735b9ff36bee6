package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nu-its/authgate/internal/domain/repository"
	"github.com/nu-its/authgate/internal/store/memory"
)

func newUser(t *testing.T, st *memory.Store, email string, at repository.AuthType) *repository.User {
	t.Helper()
	u, err := st.Users().Create(context.Background(), repository.CreateUserInput{
		Email:    email,
		Name:     "Test User",
		AuthType: at,
	})
	require.NoError(t, err)
	return u
}

func TestChallenge_ConsumeIsOneTime(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	c, err := st.Challenges().Create(ctx, repository.CreateChallengeInput{
		Email:    "a@northwestern.edu",
		CodeHash: "$hash",
		TTL:      time.Minute,
	})
	require.NoError(t, err)

	ok, err := st.Challenges().Consume(ctx, c.ID, "10.0.0.1", "agent")
	require.NoError(t, err)
	require.True(t, ok)

	// Segundo consume pierde
	ok, err = st.Challenges().Consume(ctx, c.ID, "10.0.0.2", "agent")
	require.NoError(t, err)
	require.False(t, ok)

	got, err := st.Challenges().Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ConsumedAt)
	require.Equal(t, "10.0.0.1", got.ConsumedIP)
}

func TestChallenge_ConsumeRecordsCappedUserAgent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	c, err := st.Challenges().Create(ctx, repository.CreateChallengeInput{
		Email:    "a@northwestern.edu",
		CodeHash: "$hash",
		TTL:      time.Minute,
	})
	require.NoError(t, err)

	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	ok, err := st.Challenges().Consume(ctx, c.ID, "10.0.0.1", string(long))
	require.NoError(t, err)
	require.True(t, ok)

	got, err := st.Challenges().Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.ConsumedUserAgent, repository.MaxConsumedUserAgentLen)
}

func TestChallenge_RegisterFailureLocksAtMax(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	c, err := st.Challenges().Create(ctx, repository.CreateChallengeInput{
		Email:    "a@northwestern.edu",
		CodeHash: "$hash",
		TTL:      time.Minute,
	})
	require.NoError(t, err)

	for i := 1; i < 3; i++ {
		got, err := st.Challenges().RegisterFailure(ctx, c.ID, 3, 15*time.Minute)
		require.NoError(t, err)
		require.Equal(t, i, got.Attempts)
		require.Nil(t, got.LockedUntil)
	}

	// El tercer intento fallido bloquea
	got, err := st.Challenges().RegisterFailure(ctx, c.ID, 3, 15*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 3, got.Attempts)
	require.NotNil(t, got.LockedUntil)
	require.False(t, got.Active(time.Now().UTC()))

	// Bloqueado: no se incrementa más
	got, err = st.Challenges().RegisterFailure(ctx, c.ID, 3, 15*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 3, got.Attempts)

	// Ni se consume
	ok, err := st.Challenges().Consume(ctx, c.ID, "10.0.0.1", "agent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestChallenge_ExpiredIsInert(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	c, err := st.Challenges().Create(ctx, repository.CreateChallengeInput{
		Email:    "a@northwestern.edu",
		CodeHash: "$hash",
		TTL:      -time.Second, // ya nació expirado
	})
	require.NoError(t, err)

	got, err := st.Challenges().RegisterFailure(ctx, c.ID, 3, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 0, got.Attempts)

	ok, err := st.Challenges().Consume(ctx, c.ID, "10.0.0.1", "agent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestChallenge_MarkEmailSentFirstCallerWins(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	c, err := st.Challenges().Create(ctx, repository.CreateChallengeInput{
		Email:    "a@northwestern.edu",
		CodeHash: "$hash",
		TTL:      time.Minute,
	})
	require.NoError(t, err)

	first, err := st.Challenges().MarkEmailSent(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, first)

	second, err := st.Challenges().MarkEmailSent(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, second)
}

func TestChallenge_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	expired, err := st.Challenges().Create(ctx, repository.CreateChallengeInput{
		Email: "old@northwestern.edu", CodeHash: "$h", TTL: -time.Hour,
	})
	require.NoError(t, err)

	live, err := st.Challenges().Create(ctx, repository.CreateChallengeInput{
		Email: "new@northwestern.edu", CodeHash: "$h", TTL: time.Hour,
	})
	require.NoError(t, err)

	n, err := st.Challenges().DeleteExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = st.Challenges().Get(ctx, expired.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = st.Challenges().Get(ctx, live.ID)
	require.NoError(t, err)
}

func TestToken_GetActiveByHashFiltersOwner(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	apiUser := newUser(t, st, "svc@northwestern.edu", repository.AuthAPI)
	localUser := newUser(t, st, "person@northwestern.edu", repository.AuthLocal)

	tok, err := st.Tokens().Create(ctx, repository.CreateTokenInput{
		UserID: apiUser.ID, Name: "ci", TokenHash: "hash-api",
	})
	require.NoError(t, err)

	_, err = st.Tokens().Create(ctx, repository.CreateTokenInput{
		UserID: localUser.ID, Name: "wrong", TokenHash: "hash-local",
	})
	require.NoError(t, err)

	gotTok, gotUser, err := st.Tokens().GetActiveByHash(ctx, "hash-api")
	require.NoError(t, err)
	require.Equal(t, tok.ID, gotTok.ID)
	require.Equal(t, apiUser.ID, gotUser.ID)

	// El dueño no-API no autentica
	_, _, err = st.Tokens().GetActiveByHash(ctx, "hash-local")
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Dueño deshabilitado tampoco
	require.NoError(t, st.Users().SetDisabled(ctx, apiUser.ID, true))
	_, _, err = st.Tokens().GetActiveByHash(ctx, "hash-api")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestToken_RevokeAndExpiry(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	apiUser := newUser(t, st, "svc@northwestern.edu", repository.AuthAPI)

	tok, err := st.Tokens().Create(ctx, repository.CreateTokenInput{
		UserID: apiUser.ID, Name: "ci", TokenHash: "h1",
	})
	require.NoError(t, err)

	require.NoError(t, st.Tokens().Revoke(ctx, tok.ID))
	// Revoke es idempotente
	require.NoError(t, st.Tokens().Revoke(ctx, tok.ID))

	_, _, err = st.Tokens().GetActiveByHash(ctx, "h1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Token con TTL negativo nace expirado
	_, err = st.Tokens().Create(ctx, repository.CreateTokenInput{
		UserID: apiUser.ID, Name: "old", TokenHash: "h2", TTL: -time.Minute,
	})
	require.NoError(t, err)
	_, _, err = st.Tokens().GetActiveByHash(ctx, "h2")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestToken_TouchIncrements(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	apiUser := newUser(t, st, "svc@northwestern.edu", repository.AuthAPI)

	tok, err := st.Tokens().Create(ctx, repository.CreateTokenInput{
		UserID: apiUser.ID, Name: "ci", TokenHash: "h1",
	})
	require.NoError(t, err)

	require.NoError(t, st.Tokens().Touch(ctx, tok.ID))
	require.NoError(t, st.Tokens().Touch(ctx, tok.ID))

	list, err := st.Tokens().ListByUser(ctx, apiUser.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(2), list[0].UsageCount)
	require.NotNil(t, list[0].LastUsedAt)
}

func TestUser_CreateConflictAndLookup(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	u, err := st.Users().Create(ctx, repository.CreateUserInput{
		Email: "Dup@Northwestern.EDU", AuthType: repository.AuthLocal, NetID: "abc123",
	})
	require.NoError(t, err)
	require.Equal(t, "dup@northwestern.edu", u.Email)

	_, err = st.Users().Create(ctx, repository.CreateUserInput{
		Email: "dup@northwestern.edu", AuthType: repository.AuthLocal,
	})
	require.ErrorIs(t, err, repository.ErrConflict)

	byNetID, err := st.Users().GetByNetID(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, u.ID, byNetID.ID)

	_, err = st.Users().GetByNetID(ctx, "nope")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUser_CreateNetIDConflict(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	_, err := st.Users().Create(ctx, repository.CreateUserInput{
		Email: "a@northwestern.edu", AuthType: repository.AuthLocal, NetID: "abc123",
	})
	require.NoError(t, err)

	// netid único como en el schema; otro email no alcanza
	_, err = st.Users().Create(ctx, repository.CreateUserInput{
		Email: "b@northwestern.edu", AuthType: repository.AuthLocal, NetID: "abc123",
	})
	require.ErrorIs(t, err, repository.ErrConflict)

	// netid vacío no colisiona entre sí
	_, err = st.Users().Create(ctx, repository.CreateUserInput{
		Email: "c@northwestern.edu", AuthType: repository.AuthAPI,
	})
	require.NoError(t, err)
	_, err = st.Users().Create(ctx, repository.CreateUserInput{
		Email: "d@northwestern.edu", AuthType: repository.AuthAPI,
	})
	require.NoError(t, err)
}

func TestUser_SetDisabledRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	u := newUser(t, st, "p@northwestern.edu", repository.AuthLocal)

	require.NoError(t, st.Users().SetDisabled(ctx, u.ID, true))
	got, err := st.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.Disabled())

	require.NoError(t, st.Users().SetDisabled(ctx, u.ID, false))
	got, err = st.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.Disabled())
}

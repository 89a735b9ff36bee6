package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nu-its/authgate/internal/domain/repository"
	"github.com/nu-its/authgate/internal/email"
	authctrl "github.com/nu-its/authgate/internal/http/controllers/auth"
	authsvc "github.com/nu-its/authgate/internal/http/services/auth"
	jwtx "github.com/nu-its/authgate/internal/jwt"
	"github.com/nu-its/authgate/internal/rate"
	"github.com/nu-its/authgate/internal/security/code"
	"github.com/nu-its/authgate/internal/store/memory"
)

const fixedCode = "135791"

func newController(t *testing.T, perHour int) *authctrl.ChallengeController {
	t.Helper()
	st := memory.New()

	_, err := st.Users().Create(context.Background(), repository.CreateUserInput{
		Email:    "jdoe@northwestern.edu",
		AuthType: repository.AuthLocal,
	})
	require.NoError(t, err)

	gen, err := code.NewFixedGenerator(6, fixedCode)
	require.NoError(t, err)

	svc := authsvc.NewChallengeService(authsvc.ChallengeDeps{
		Challenges: st.Challenges(),
		Users:      st.Users(),
		Generator:  gen,
		Limiter:    rate.NewMemoryLimiter("ctrl:", perHour, time.Hour),
		Mail:       email.NewQueue(email.LogSender{}, st.Challenges(), 16),
		Sessions:   jwtx.NewIssuer([]byte("s"), "authgate-test", time.Hour),
		Config: authsvc.ChallengeConfig{
			TTL:         15 * time.Minute,
			MaxAttempts: 3,
			LockWindow:  15 * time.Minute,
		},
	})
	return authctrl.NewChallengeController(svc)
}

func postJSON(handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRequestCode_Endpoint(t *testing.T) {
	c := newController(t, 5)

	rec := postJSON(c.RequestCode, "/v1/auth/code", map[string]string{
		"email": "jdoe@northwestern.edu",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var out struct {
		ChallengeID string    `json:"challenge_id"`
		ExpiresAt   time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.ChallengeID)
	require.True(t, out.ExpiresAt.After(time.Now()))
}

func TestRequestCode_EndpointErrors(t *testing.T) {
	c := newController(t, 1)

	// Body que no es JSON
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/code", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	c.RequestCode(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Sin email
	rec = postJSON(c.RequestCode, "/v1/auth/code", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Email con formato inválido
	rec = postJSON(c.RequestCode, "/v1/auth/code", map[string]string{"email": "nope"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Email desconocido
	rec = postJSON(c.RequestCode, "/v1/auth/code", map[string]string{"email": "ghost@nu.edu"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Rate limited al segundo request válido (límite 1)
	rec = postJSON(c.RequestCode, "/v1/auth/code", map[string]string{"email": "jdoe@northwestern.edu"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = postJSON(c.RequestCode, "/v1/auth/code", map[string]string{"email": "jdoe@northwestern.edu"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestVerifyCode_Endpoint(t *testing.T) {
	c := newController(t, 5)

	rec := postJSON(c.RequestCode, "/v1/auth/code", map[string]string{
		"email": "jdoe@northwestern.edu",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ChallengeID string `json:"challenge_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// Código incorrecto: 401 genérico
	rec = postJSON(c.VerifyCode, "/v1/auth/code/verify", map[string]string{
		"challenge_id": created.ChallengeID, "code": "000000",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Código correcto: session token
	rec = postJSON(c.VerifyCode, "/v1/auth/code/verify", map[string]string{
		"challenge_id": created.ChallengeID, "code": fixedCode,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		SessionToken string    `json:"session_token"`
		TokenType    string    `json:"token_type"`
		ExpiresAt    time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.SessionToken)
	require.Equal(t, "Bearer", out.TokenType)

	// Replay: 401
	rec = postJSON(c.VerifyCode, "/v1/auth/code/verify", map[string]string{
		"challenge_id": created.ChallengeID, "code": fixedCode,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyCode_EndpointMissingFields(t *testing.T) {
	c := newController(t, 5)

	rec := postJSON(c.VerifyCode, "/v1/auth/code/verify", map[string]string{"code": "123456"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(c.VerifyCode, "/v1/auth/code/verify", map[string]string{"challenge_id": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

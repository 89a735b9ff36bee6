// seed crea datos mínimos para dev y testing: un usuario local que puede
// pedir códigos de login y un usuario API con su access token. Imprime el
// token crudo una única vez. Idempotente sobre los usuarios (por email).
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nu-its/authgate/internal/config"
	"github.com/nu-its/authgate/internal/domain/repository"
	tokens "github.com/nu-its/authgate/internal/security/token"
	pgdriver "github.com/nu-its/authgate/internal/store/pg"
)

func strEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		log.Fatalf("seed: storage.driver is %q, seeding needs postgres", cfg.Storage.Driver)
	}
	if cfg.Token.HMACKey == "" {
		log.Fatal("seed: token.hmac_key is required to issue the seed token")
	}

	localEmail := strEnv("SEED_LOCAL_EMAIL", "dev@northwestern.edu")
	apiEmail := strEnv("SEED_API_EMAIL", "ci@northwestern.edu")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := pgdriver.New(ctx, pgdriver.Config{DSN: cfg.Storage.DSN})
	if err != nil {
		log.Fatalf("seed: connect: %v", err)
	}
	defer func() { _ = st.Close() }()

	// Usuario local (login por código)
	local, err := ensureUser(ctx, st.Users(), repository.CreateUserInput{
		Email:    localEmail,
		Name:     "Dev User",
		NetID:    strEnv("SEED_LOCAL_NETID", "dev0001"),
		AuthType: repository.AuthLocal,
	})
	if err != nil {
		log.Fatalf("seed: local user: %v", err)
	}
	log.Printf("local user ready id=%s", local.ID)

	// Usuario API + token
	api, err := ensureUser(ctx, st.Users(), repository.CreateUserInput{
		Email:    apiEmail,
		Name:     "CI Service Account",
		AuthType: repository.AuthAPI,
	})
	if err != nil {
		log.Fatalf("seed: api user: %v", err)
	}

	raw, err := tokens.GenerateOpaqueToken(cfg.Token.Bytes)
	if err != nil {
		log.Fatalf("seed: token: %v", err)
	}
	rec, err := st.Tokens().Create(ctx, repository.CreateTokenInput{
		UserID:      api.ID,
		Name:        "seed",
		TokenHash:   tokens.HMACSHA256Base64URL([]byte(cfg.Token.HMACKey), raw),
		TokenPrefix: tokens.Prefix(raw),
	})
	if err != nil {
		log.Fatalf("seed: create token: %v", err)
	}

	log.Printf("api user ready id=%s token_id=%s", api.ID, rec.ID)
	// Única vez que el token crudo es visible
	fmt.Printf("AUTHGATE_SEED_TOKEN=%s\n", raw)
}

// ensureUser crea el usuario o retorna el existente si el email ya está.
func ensureUser(ctx context.Context, users repository.UserRepository, in repository.CreateUserInput) (*repository.User, error) {
	u, err := users.Create(ctx, in)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, repository.ErrConflict) {
		return users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	}
	return nil, err
}

// migrate aplica las migraciones embebidas de PostgreSQL. El server también
// puede migrarse solo con storage.migrate=true; este binario existe para
// pipelines de deploy que migran antes de levantar el servicio.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/nu-its/authgate/internal/config"
	pgdriver "github.com/nu-its/authgate/internal/store/pg"
	migrations "github.com/nu-its/authgate/migrations/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		log.Fatalf("migrate: storage.driver is %q, only postgres has migrations", cfg.Storage.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := pgdriver.New(ctx, pgdriver.Config{DSN: cfg.Storage.DSN})
	if err != nil {
		log.Fatalf("migrate: connect: %v", err)
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("migrations applied")
}

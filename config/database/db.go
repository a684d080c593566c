package database

import (
	"time"

	"reviewshare/pkg/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS reviews (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	private     BOOLEAN NOT NULL DEFAULT FALSE,
	archive     BOOLEAN NOT NULL DEFAULT FALSE,
	review_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS reviews_user_id_idx ON reviews (user_id, created_at);
`

// Connect opens the postgres pool, retrying the initial ping a few times, and
// makes sure the reviews table exists.
func Connect(dsn string) *sqlx.DB {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open database connection: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			if err := Migrate(db); err != nil {
				logger.Sugar.Fatalf("Failed to apply schema: %v", err)
			}
			return db
		}
		logger.Sugar.Infof("Database connection failed, retrying in 2s... (%v)", err)
		time.Sleep(2 * time.Second)
	}
	logger.Sugar.Fatal("Could not connect to database after retries.")
	return nil
}

// Migrate creates the reviews table and its index when missing.
func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}

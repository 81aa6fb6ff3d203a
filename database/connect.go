package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-backend/config"
)

// DSN prefers DATABASE_URL and otherwise assembles a keyword/value string from DB_* keys.
func DSN(c map[string]string) string {
	if url := config.GetString(c, "DATABASE_URL", ""); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		config.GetString(c, "DB_HOST", "localhost"),
		config.GetString(c, "DB_USER", "postgres"),
		config.GetString(c, "DB_PASSWORD", ""),
		config.GetString(c, "DB_NAME", "portfolio"),
		config.GetString(c, "DB_PORT", "5432"),
		config.GetString(c, "DB_SSLMODE", "require"),
	)
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// Connect opens the postgres primary, registers read replicas from
// DB_REPLICA_URLS and enables the extensions the schema relies on.
func Connect(c map[string]string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  DSN(c),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
		NowFunc:     utcNow,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if replicas := config.GetList(c, "DB_REPLICA_URLS", nil); len(replicas) > 0 {
		dialectors := make([]gorm.Dialector, 0, len(replicas))
		for _, dsn := range replicas {
			dialectors = append(dialectors, postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: dialectors,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("error registering read replicas: %w", err)
		}
	}

	for _, ext := range []string{"uuid-ossp", "vector"} {
		if err := db.Exec(fmt.Sprintf("CREATE EXTENSION IF NOT EXISTS %q", ext)).Error; err != nil {
			return nil, fmt.Errorf("error enabling %s extension: %w", ext, err)
		}
	}

	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("error testing database connection: %w", err)
	}

	return db, nil
}

package database

import (
	"log"

	"github.com/quirra-app/quirra-api/config"
	"github.com/quirra-app/quirra-api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GORMStore struct {
	db *gorm.DB
}

// StartGORM wraps the lib/pq connection from OpenSQL with GORM
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	sqlDB, err := OpenSQL()
	if err != nil {
		return nil, err
	}

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
	})
	if err != nil {
		log.Println("Unable to wrap PostgreSQL connection with GORM:", err)
		sqlDB.Close()
		return nil, err
	}

	return &GORMStore{db: db}, nil
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for all models...")

	err := s.db.AutoMigrate(
		// Account models
		&model.User{},
		&model.UserProfile{},
		&model.SecuritySetting{},
		&model.UserProviderKey{},
		&model.Device{},
		&model.LoginSession{},

		// Token blacklist
		&model.JWTTokenBlacklist{},

		// Chat models
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.MessageEdit{},
		&model.MemorySnapshot{},

		// Sharing models
		&model.ConversationShare{},
		&model.SharedMessage{},

		// Wellness models
		&model.MoodLog{},
		&model.DailyFocus{},
		&model.LibraryItem{},

		// Audit & logging models
		&model.CronJobLog{},
	)

	if err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in services/handlers
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

package app

import (
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/api"
	"github.com/quirra-app/quirra-api/config"
	"github.com/quirra-app/quirra-api/database"
	"github.com/quirra-app/quirra-api/router"
	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/services/cron"
	"github.com/quirra-app/quirra-api/utils/auth"
)

// SetupAndRunServer loads configuration, connects the database, starts the
// maintenance scheduler and serves the API. Blocks until shutdown.
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM()
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Maintenance scheduler, enabled unless CRON_ENABLED=false
	var cronManager *cron.Manager
	if os.Getenv("CRON_ENABLED") != "false" {
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			log.Println("Warning: no database connection for cron jobs")
		} else {
			cronManager = cron.NewManager(db)
			jobs := cron.NewJobs(db,
				auth.NewBlacklistService(db),
				services.NewShareService(db, nil, env.SHARE_BASE_URL),
			)
			if err := jobs.RegisterAll(cronManager); err != nil {
				log.Printf("Warning: failed to register cron jobs: %v", err)
			} else {
				cronManager.Start()
			}
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT))
	router.SetupRoutes(server.GetEngine(), store, env)

	return server.Run()
}

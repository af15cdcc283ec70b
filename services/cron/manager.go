package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/model"
)

// JobFunc does the actual work of one scheduled job. It returns the number
// of rows it affected, which ends up in the job log.
type JobFunc func(ctx context.Context) (int64, error)

// Manager wraps the cron scheduler and records every run in the
// cron_job_logs table.
type Manager struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewManager creates a scheduler. Jobs are registered with Register and
// nothing runs until Start is called.
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		db:   db,
	}
}

// Register schedules a named job using standard cron syntax.
func (m *Manager) Register(spec, name string, fn JobFunc) error {
	_, err := m.cron.AddFunc(spec, func() {
		m.run(name, fn)
	})
	return err
}

// Start launches the scheduler in its own goroutine
func (m *Manager) Start() {
	m.cron.Start()
	log.Println("Cron scheduler started")
}

// Stop shuts the scheduler down and waits for running jobs to finish
func (m *Manager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron scheduler stopped")
}

func (m *Manager) run(name string, fn JobFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	entry := &model.CronJobLog{
		JobName:   name,
		Status:    "running",
		StartedAt: time.Now(),
	}
	if err := m.db.Create(entry).Error; err != nil {
		log.Printf("cron: failed to open job log for %s: %v", name, err)
	}

	affected, err := fn(ctx)

	now := time.Now()
	entry.FinishedAt = &now
	if err != nil {
		entry.Status = "failed"
		entry.Message = err.Error()
		log.Printf("cron: job %s failed: %v", name, err)
	} else {
		entry.Status = "success"
		entry.Message = fmt.Sprintf("%d rows affected", affected)
	}

	if entry.ID != 0 {
		if err := m.db.Save(entry).Error; err != nil {
			log.Printf("cron: failed to close job log for %s: %v", name, err)
		}
	}
}

// Package app is the composition root: bootstrap stays
// orchestration-only, all behavior lives in the packages it wires.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"opsledger.io/opsledger/internal/adapter"
	"opsledger.io/opsledger/internal/api/handlers"
	"opsledger.io/opsledger/internal/api/middleware"
	"opsledger.io/opsledger/internal/approval"
	"opsledger.io/opsledger/internal/config"
	"opsledger.io/opsledger/internal/infrastructure"
	"opsledger.io/opsledger/internal/jobs"
	"opsledger.io/opsledger/internal/notification"
	"opsledger.io/opsledger/internal/pkg/worker"
	"opsledger.io/opsledger/internal/repository"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.DatabaseClients
	Pools  *worker.Pools
}

// Bootstrap initializes all dependencies with manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		NotifyPoolSize:  cfg.Worker.NotifyPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	// Repositories share the one pool.
	steps := repository.NewStepRepository(db.Pool)
	policies := repository.NewPolicyRepository(db.Pool)
	members := repository.NewMemberRepository(db.Pool)
	notifications := repository.NewNotificationRepository(db.Pool)
	entities := repository.NewEntityRepository(db.Pool)
	audit := repository.NewAuditRepository(db.Pool)

	// Chain engine.
	resolver := approval.NewResolver(policies)
	initializer := approval.NewInitializer(steps)
	processor := approval.NewProcessor(steps, members)
	processor.SetAuditSink(audit)
	approvals := approval.NewService(resolver, initializer, processor, steps)

	registry := adapter.NewRegistry(entities, members)
	processor.SetAdapterLookup(registry.Lookup)

	// Notification fan-out.
	inbox := notification.NewInboxSender(notifications)
	dispatcher := notification.NewDispatcher(members, inbox, pools)
	dispatcher.SetAdapterLookup(registry.Lookup)
	approvals.SetDispatcher(dispatcher)

	// Queue workers. Delivery workers are always registered so jobs
	// queued before a channel was disabled still drain.
	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewEmailDispatchWorker(notification.NewEmailSender(cfg.Notify.SMTP)))
	river.AddWorker(workers, jobs.NewWhatsAppDispatchWorker(notification.NewWhatsAppSender(cfg.Notify.WhatsApp)))
	river.AddWorker(workers, jobs.NewNotificationCleanupWorker(notifications, cfg.Notify.Retention))
	river.AddWorker(workers, jobs.NewApprovalReminderWorker(steps, entities, dispatcher, cfg.Notify.ReminderAfter))

	if err := db.InitRiverClient(workers, cfg.River, jobs.QueueNotify); err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init river client: %w", err)
	}

	dispatcher.SetEnqueuer(jobs.NewRiverEnqueuer(db.RiverClient,
		cfg.Notify.SMTP.Enabled, cfg.Notify.WhatsApp.Enabled))

	registerPeriodicJobs(db.RiverClient, cfg)

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSigningKey),
		Issuer:     cfg.Security.JWTIssuer,
		ExpiresIn:  cfg.Security.JWTExpiresIn,
	}
	server := handlers.NewServer(handlers.ServerDeps{
		Pool:          db.Pool,
		JWTCfg:        jwtCfg,
		Approvals:     approvals,
		Steps:         steps,
		Policies:      policies,
		Members:       members,
		Notifications: notifications,
		Entities:      entities,
		Audit:         audit,
	})

	return &Application{
		Config: cfg,
		Router: newRouter(server, jwtCfg.SigningKey),
		DB:     db,
		Pools:  pools,
	}, nil
}

func registerPeriodicJobs(client *river.Client[pgx.Tx], cfg *config.Config) {
	client.PeriodicJobs().Add(
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return jobs.NotificationCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	)
	if cfg.Notify.ReminderAfter > 0 {
		client.PeriodicJobs().Add(
			river.NewPeriodicJob(
				river.PeriodicInterval(24*time.Hour),
				func() (river.JobArgs, *river.InsertOpts) {
					return jobs.ApprovalReminderArgs{}, nil
				},
				nil,
			),
		)
	}
}

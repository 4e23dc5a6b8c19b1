package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/config"
	"github.com/curaious/tasky/internal/db"
	"github.com/curaious/tasky/internal/ratelimit"
	"github.com/curaious/tasky/internal/services/event"
	"github.com/curaious/tasky/internal/services/notification"
	"github.com/curaious/tasky/internal/services/report"
	"github.com/curaious/tasky/internal/services/roster"
	"github.com/curaious/tasky/internal/services/sweeper"
	"github.com/curaious/tasky/internal/services/task"
	"github.com/curaious/tasky/internal/services/user"
	"github.com/jmoiron/sqlx"
)

type Services struct {
	User    *user.UserService
	Roster  *roster.RosterService
	Task    *task.TaskService
	Sweeper *sweeper.Sweeper
	Report  *report.ReportService

	Event        *event.EventService
	Notification *notification.NotificationService

	// ReportLimiter throttles report generation per principal
	ReportLimiter ratelimit.Limiter
	Clock         clock.Clock

	// DB is nil when running against in-process storage
	DB *sqlx.DB

	closers []func() error
}

type repositories struct {
	users   user.Repository
	rosters roster.Repository
	tasks   task.Repository

	events        event.Repository
	notifications notification.Repository
}

// NewServices wires every service against Postgres.
func NewServices(conf *config.Config) *Services {
	dbconn := db.NewConn(conf)

	svc := wire(conf, clock.System(), repositories{
		users:   user.NewUserRepo(dbconn),
		rosters: roster.NewRosterRepo(dbconn),
		tasks: task.NewTaskRepo(dbconn, task.BreakerSettings{
			MaxFailures: conf.BREAKER_MAX_FAILURES,
			Timeout:     conf.BREAKER_TIMEOUT,
		}),
		events:        event.NewEventRepo(dbconn),
		notifications: notification.NewNotificationRepo(dbconn),
	})
	svc.DB = dbconn
	svc.closers = append(svc.closers, dbconn.Close)
	return svc
}

// NewMemoryServices wires every service against in-process storage. Nothing survives a restart.
func NewMemoryServices(conf *config.Config, clk clock.Clock) *Services {
	return wire(conf, clk, repositories{
		users:   user.NewMemoryRepo(clk),
		rosters: roster.NewMemoryRepo(clk),
		tasks:   task.NewMemoryRepo(),

		events:        event.NewMemoryRepo(),
		notifications: notification.NewMemoryRepo(),
	})
}

func wire(conf *config.Config, clk clock.Clock, repos repositories) *Services {
	users := user.NewUserService(repos.users)
	rosters := roster.NewRosterService(repos.rosters, users)
	notes := notification.NewNotificationService(repos.notifications, clk)
	tasks := task.NewTaskService(repos.tasks, users, rosters, notes, clk)
	sweep := sweeper.New(tasks, notes, clk)

	svc := &Services{
		User:          users,
		Roster:        rosters,
		Task:          tasks,
		Sweeper:       sweep,
		Report:        report.NewReportService(tasks, sweep, rosters, clk, conf.REPORT_TIMEOUT),
		Event:         event.NewEventService(repos.events, clk),
		Notification:  notes,
		ReportLimiter: ratelimit.Unlimited{},
		Clock:         clk,
	}

	if conf.REDIS_ADDR != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := ratelimit.NewClient(ctx, conf.REDIS_ADDR, conf.REDIS_PASSWORD, conf.REDIS_DB)
		if err != nil {
			slog.Warn("Report rate limiting disabled", slog.Any("error", err))
		} else {
			svc.ReportLimiter = ratelimit.NewRedisLimiter(client, "tasky:reports:", conf.REPORT_RATE_LIMIT, time.Minute)
			svc.closers = append(svc.closers, client.Close)
			slog.Info("Report rate limiting enabled", slog.String("redis", conf.REDIS_ADDR), slog.Int("per_minute", conf.REPORT_RATE_LIMIT))
		}
	}

	return svc
}

// Close releases the connections held by the services
func (s *Services) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			slog.Error("Unable to close resource", slog.Any("error", err))
		}
	}
}

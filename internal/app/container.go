package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/acme/interview-callback/internal/config"
	"github.com/acme/interview-callback/internal/infra/db"
	"github.com/acme/interview-callback/internal/infra/redis"
	"github.com/acme/interview-callback/internal/queue"
	"github.com/acme/interview-callback/internal/repository"
	pgrepo "github.com/acme/interview-callback/internal/repository/postgres"
	redisrepo "github.com/acme/interview-callback/internal/repository/redis"
	scyllarepo "github.com/acme/interview-callback/internal/repository/scylla"
	attemptsvc "github.com/acme/interview-callback/internal/service/attempt"
	"github.com/acme/interview-callback/internal/service/callrequest"
	"github.com/acme/interview-callback/internal/service/concurrency"
	interviewsvc "github.com/acme/interview-callback/internal/service/interview"
	sessionsvc "github.com/acme/interview-callback/internal/service/session"
	"github.com/acme/interview-callback/internal/telephony"
	"github.com/acme/interview-callback/internal/telephony/bridge"
	telephonyMock "github.com/acme/interview-callback/internal/telephony/mock"
	telephonyTwilio "github.com/acme/interview-callback/internal/telephony/twilio"
	"github.com/acme/interview-callback/pkg/logger"
)

// Container wires together shared infrastructure dependencies.
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	Postgres *db.Postgres
	Scylla   *db.Scylla
	Redis    *redis.Client
	Kafka    *queue.Kafka

	// lazily initialised components
	components struct {
		once         sync.Once
		err          error
		repositories *repositories
		services     *services
		publishers   *publishers
		providers    *providers
		limiters     *limiters
	}
}

type repositories struct {
	Interviews repository.InterviewRepository
	Cache      repository.ContextCache
	Attempts   repository.AttemptStore
}

type services struct {
	Resolver *interviewsvc.Resolver
	Sessions *sessionsvc.Registry
	Attempts *attemptsvc.Service
}

type publishers struct {
	Attempts *queue.AttemptPublisher
}

type providers struct {
	Telephony telephony.Provider
	Assistant *telephony.AssistantTemplate
}

type limiters struct {
	Submissions *concurrency.Limiter
}

// Build constructs a container for the given configuration path.
func Build(ctx context.Context, configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	pg, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("bootstrap postgres: %w", err)
	}

	scylla, err := db.NewScylla(cfg.Scylla)
	if err != nil {
		return nil, fmt.Errorf("bootstrap scylla: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}

	kafka, err := queue.NewKafka(cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("bootstrap kafka: %w", err)
	}

	container := &Container{
		Config:   cfg,
		Logger:   lg,
		Postgres: pg,
		Scylla:   scylla,
		Redis:    redisClient,
		Kafka:    kafka,
	}

	if err := container.Init(); err != nil {
		_ = container.Close(ctx)
		return nil, err
	}

	return container, nil
}

// Init builds the lazily initialised components and reports wiring errors.
func (c *Container) Init() error {
	c.initComponents()
	return c.components.err
}

func (c *Container) initComponents() {
	c.components.once.Do(func() {
		repos := &repositories{
			Interviews: pgrepo.NewInterviewRepository(c.Postgres.DB()),
			Cache:      redisrepo.NewContextCache(c.Redis.Inner()),
			Attempts:   scyllarepo.NewAttemptStore(c.Scylla.Session()),
		}

		pubs := &publishers{
			Attempts: queue.NewAttemptPublisher(c.Kafka, c.Config.Kafka.AttemptTopic),
		}

		provider, err := NewProvider(c.Config.CallBridge)
		if err != nil {
			c.components.err = err
			return
		}
		assistant, err := telephony.NewAssistantTemplate(c.Config.CallBridge.Assistant)
		if err != nil {
			c.components.err = fmt.Errorf("assistant template: %w", err)
			return
		}
		provs := &providers{Telephony: provider, Assistant: assistant}

		lims := &limiters{
			Submissions: concurrency.NewLimiter(
				c.Redis.Inner(),
				c.Config.Throttle.SubmissionsPerInterview,
				c.Config.Throttle.LockTTL,
				c.Config.Throttle.KeyPrefix,
			),
		}

		resolver := interviewsvc.NewResolver(
			repos.Cache,
			repos.Interviews,
			c.Config.Session.UserID,
			c.Config.Session.DefaultUserName,
			c.Logger,
		)

		deps := callrequest.Dependencies{
			Provider:      provs.Telephony,
			Assistant:     provs.Assistant,
			Guard:         lims.Submissions,
			Recorder:      pubs.Attempts,
			Logger:        c.Logger,
			CallType:      c.Config.CallBridge.CallType,
			CallingNotice: c.Config.Session.CallingNotice,
			RecordTimeout: c.Config.Session.RecordTimeout,
		}

		svcs := &services{
			Resolver: resolver,
			Sessions: sessionsvc.NewRegistry(resolver, deps, c.Config.Session.MaxOpen, c.Logger),
			Attempts: attemptsvc.NewService(repos.Attempts),
		}

		c.components.repositories = repos
		c.components.publishers = pubs
		c.components.providers = provs
		c.components.limiters = lims
		c.components.services = svcs
	})
}

// NewProvider selects the outbound call service implementation by name.
func NewProvider(cfg config.CallBridgeConfig) (telephony.Provider, error) {
	switch strings.ToLower(cfg.ProviderName) {
	case "", "bridge":
		return bridge.NewClient(cfg, nil)
	case "twilio":
		return telephonyTwilio.NewProvider(cfg.Twilio)
	case "mock":
		return telephonyMock.NewProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown call provider %q", cfg.ProviderName)
	}
}

// Repositories exposes initialized repositories.
func (c *Container) Repositories() *repositories {
	c.initComponents()
	return c.components.repositories
}

// Services exposes initialized services.
func (c *Container) Services() *services {
	c.initComponents()
	return c.components.services
}

// Publishers exposes Kafka publishers.
func (c *Container) Publishers() *publishers {
	c.initComponents()
	return c.components.publishers
}

// Providers exposes external providers.
func (c *Container) Providers() *providers {
	c.initComponents()
	return c.components.providers
}

// Limiters exposes limiter utilities.
func (c *Container) Limiters() *limiters {
	c.initComponents()
	return c.components.limiters
}

// HealthChecks returns a ping per backing store.
func (c *Container) HealthChecks() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"postgres": func(ctx context.Context) error { return c.Postgres.DB().PingContext(ctx) },
		"redis":    func(ctx context.Context) error { return c.Redis.Inner().Ping(ctx).Err() },
		"scylla": func(ctx context.Context) error {
			return c.Scylla.Session().Query("SELECT now() FROM system.local").WithContext(ctx).Exec()
		},
	}
}

// Close releases all held resources.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if s := c.components.services; s != nil && s.Sessions != nil {
		s.Sessions.CloseAll()
	}
	if p := c.components.publishers; p != nil && p.Attempts != nil {
		if err := p.Attempts.Close(); err != nil {
			errs = append(errs, fmt.Errorf("attempt publisher close: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if c.Scylla != nil {
		if err := c.Scylla.Close(); err != nil {
			errs = append(errs, fmt.Errorf("scylla close: %w", err))
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres close: %w", err))
		}
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// EnsureTopics ensures required Kafka topics exist.
func (c *Container) EnsureTopics(ctx context.Context) error {
	partitions := c.Config.Kafka.Partitions
	if partitions <= 0 {
		partitions = 12
	}
	return c.Kafka.EnsureTopics(ctx, []string{c.Config.Kafka.AttemptTopic}, partitions, 1)
}

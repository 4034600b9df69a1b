package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumenworks/intake-api/internal/config"
	"github.com/lumenworks/intake-api/internal/flow"
	"github.com/lumenworks/intake-api/internal/gelf"
	"github.com/lumenworks/intake-api/internal/handler"
	"github.com/lumenworks/intake-api/internal/mailer"
	"github.com/lumenworks/intake-api/internal/ratelimit"
	"github.com/lumenworks/intake-api/internal/repository"
	"github.com/lumenworks/intake-api/internal/router"
	"github.com/lumenworks/intake-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// GELF UDP logging
	if cfg.GelfAddr != "" {
		gelfWriter, err := gelf.New(cfg.GelfAddr, "intake-api")
		if err != nil {
			log.Printf("Warning: GELF init failed: %v", err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, gelfWriter))
			log.Printf("GELF logging: enabled (%s)", cfg.GelfAddr)
		}
	}

	ctx := context.Background()

	// Audit store
	db, err := repository.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	subRepo := repository.NewSubmissionRepo(db)
	blobRepo := repository.NewBlobRepo(db)
	operatorRepo := repository.NewOperatorRepo(db)
	for _, ensure := range []func(context.Context) error{
		subRepo.EnsureSchema, blobRepo.EnsureSchema, operatorRepo.EnsureSchema,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatalf("Failed to prepare schema: %v", err)
		}
	}

	// Rate limiters: one instance per flow, never shared. Redis when
	// configured, in-process otherwise.
	contactCfg := limiterConfig(cfg.Contact, cfg.SweepInterval)
	recruitCfg := limiterConfig(cfg.Recruit, cfg.SweepInterval)
	var contactLimiter, recruitLimiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse redis URL: %v", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to reach redis: %v", err)
		}
		contactLimiter = ratelimit.NewRedis(client, "contact", contactCfg)
		recruitLimiter = ratelimit.NewRedis(client, "recruit", recruitCfg)
		log.Printf("Rate limiting: redis (%s)", cfg.RedisURL)
	} else {
		contactLimiter = ratelimit.NewMemory(contactCfg)
		recruitLimiter = ratelimit.NewMemory(recruitCfg)
		log.Printf("Rate limiting: in-process")
	}

	// Mail provider. Without a key dispatch stays unconfigured and intake
	// requests answer 500 until it is set.
	var mail mailer.Mailer
	if cfg.MailAPIKey != "" {
		mail = mailer.NewClient(cfg.MailEndpoint, cfg.MailAPIKey)
	} else {
		log.Printf("Warning: INTAKE_MAIL_API_KEY not set, dispatch disabled")
	}

	// Services
	intakeSvc := service.NewIntakeService(
		contactLimiter, recruitLimiter, mail, subRepo, blobRepo,
		cfg.MailFrom, cfg.ContactTo, cfg.RecruitTo,
	)
	authSvc := service.NewAuthService(operatorRepo, cfg.JWTSecret, cfg.JWTTTL)
	if err := authSvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPass); err != nil {
		log.Printf("Warning: failed to seed admin: %v", err)
	}

	sessions := flow.NewManager(cfg.FlowSessionTTL)

	// Handlers
	contactH := handler.NewContactHandler(intakeSvc)
	recruitH := handler.NewRecruitHandler(intakeSvc)
	flowH := handler.NewFlowHandler(sessions, intakeSvc)
	adminH := handler.NewAdminHandler(authSvc, subRepo, blobRepo)

	r := router.New(cfg.JWTSecret, contactH, recruitH, flowH, adminH)

	log.Printf("intake-api server starting on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func limiterConfig(fl config.FlowLimits, sweep time.Duration) ratelimit.Config {
	return ratelimit.Config{
		Window:          fl.Window,
		MaxRequests:     fl.MaxRequests,
		EmailCooldown:   fl.EmailCooldown,
		MessageCooldown: fl.MessageCooldown,
		SweepInterval:   sweep,
	}
}

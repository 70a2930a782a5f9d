// Command server wires the aide backend: governance engines over knowledge
// articles and prompt templates, the audit ledger with its kafka fan-out,
// conversations, the memory bank, and the HTTP surface in front of them.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	adminhandler "aide/internal/admin/handler"
	"aide/internal/approval"
	approvalhandler "aide/internal/approval/handler"
	approvalmem "aide/internal/approval/store/memory"
	"aide/internal/audit"
	audithandler "aide/internal/audit/handler"
	kafkasink "aide/internal/audit/sink/kafka"
	auditmem "aide/internal/audit/store/memory"
	auditpg "aide/internal/audit/store/postgres"
	"aide/internal/billing"
	"aide/internal/conversation"
	conversationhandler "aide/internal/conversation/handler"
	conversationmem "aide/internal/conversation/store/memory"
	"aide/internal/conversation/tools"
	"aide/internal/governance/service"
	resourcemem "aide/internal/governance/store/memory"
	resourcepg "aide/internal/governance/store/postgres"
	"aide/internal/knowledge"
	knowledgehandler "aide/internal/knowledge/handler"
	"aide/internal/memorybank"
	memoryhandler "aide/internal/memorybank/handler"
	memorybankmem "aide/internal/memorybank/store/memory"
	"aide/internal/platform/config"
	"aide/internal/platform/httpserver"
	"aide/internal/platform/logger"
	"aide/internal/platform/metrics"
	"aide/internal/platform/postgres"
	platformredis "aide/internal/platform/redis"
	"aide/internal/platform/token"
	"aide/internal/prompt"
	prompthandler "aide/internal/prompt/handler"
	"aide/internal/ratelimit"
	ratelimitmem "aide/internal/ratelimit/store/memory"
	httptransport "aide/internal/transport/http"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence. Without a DSN everything runs on memory stores, which is
	// how local development and the test suites run.
	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	var (
		resourceStore service.ResourceStore
		activations   prompt.ActivationStore
		auditStore    audit.Store
	)
	if db != nil {
		defer db.Close()
		pgResources := resourcepg.New(db)
		resourceStore, activations = pgResources, pgResources
		auditStore = auditpg.New(db)
		log.Info("using postgres stores")
	} else {
		memResources := resourcemem.New()
		resourceStore, activations = memResources, memResources
		auditStore = auditmem.New()
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// Audit ledger, with best-effort kafka fan-out drained by a background
	// worker when brokers are configured.
	ledgerOpts := []audit.Option{audit.WithMetrics(audit.NewMetrics())}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafkasink.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		worker := audit.NewSinkWorker(audit.NewBreakerSink(sink, log), 256, log)
		group.Go(func() error {
			if err := worker.Run(groupCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		ledgerOpts = append(ledgerOpts, audit.WithSink(worker))
		log.Info("audit fan-out enabled", "topic", cfg.Kafka.AuditTopic)
	}
	ledger := audit.NewLedger(auditStore, log, ledgerOpts...)

	// Published-article cache; optional.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	var articleCache *knowledge.Cache
	if redisClient != nil {
		defer redisClient.Close()
		articleCache = knowledge.NewCache(redisClient.Client, cfg.KnowledgeCacheTTL, log)
		log.Info("knowledge cache enabled", "ttl", cfg.KnowledgeCacheTTL.String())
	}

	// Governance engines share the review workflow and the metrics
	// instance; each binds its own permission set.
	approvals := approval.NewService(approvalmem.New(), log)
	govMetrics := service.NewMetrics()
	knowledgeEngine := service.NewEngine(
		knowledge.ResourceType, knowledge.Perms(), resourceStore, approvals, ledger, log,
		service.WithMetrics(govMetrics), service.WithApprovalResolver(approvals),
	)
	promptEngine := service.NewEngine(
		prompt.ResourceType, prompt.Perms(), resourceStore, approvals, ledger, log,
		service.WithMetrics(govMetrics), service.WithApprovalResolver(approvals),
	)

	knowledgeSvc := knowledge.NewService(knowledgeEngine, articleCache, log)
	promptSvc := prompt.NewService(promptEngine, activations, ledger, log)

	// Assistant-facing services.
	plans := billing.StaticPlans{}
	for account, plan := range cfg.BillingPlans {
		plans[account] = billing.Plan(plan)
	}
	entitlements := billing.NewService(plans, ledger, log)
	memorySvc := memorybank.NewService(memorybankmem.New(), ledger, log)

	dispatcher := tools.NewDispatcher()
	registerBuiltinTools(dispatcher, memorySvc, knowledgeSvc)
	conversationSvc := conversation.NewService(conversationmem.New(), entitlements, dispatcher, ledger, log)

	tokens := token.NewService(cfg.JWTSigningKey, "aide", "aide-api")
	m := metrics.New()

	var limitMiddleware func(http.Handler) http.Handler
	if cfg.RateLimit > 0 {
		limiter := ratelimit.NewLimiter(ratelimitmem.New(), cfg.RateLimit, cfg.RateWindow, log)
		limitMiddleware = ratelimit.Middleware(limiter, log)
	}

	router := httptransport.NewRouter(httptransport.Handlers{
		Knowledge:    knowledgehandler.New(knowledgeSvc, log),
		Prompt:       prompthandler.New(promptSvc, log),
		Audit:        audithandler.New(ledger, log),
		Approval:     approvalhandler.New(approvals, log),
		Conversation: conversationhandler.New(conversationSvc, log),
		Memory:       memoryhandler.New(memorySvc, log),
		Admin:        adminhandler.New(tokens, log),
	}, httptransport.Options{
		Logger:         log,
		Metrics:        m,
		TokenValidator: tokens,
		AdminTokenHash: cfg.AdminTokenHash,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      limitMiddleware,
	})

	srv := httpserver.New(cfg.Addr, router)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

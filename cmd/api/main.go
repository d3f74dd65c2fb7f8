package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/LJTian/BizPlanner/internal/aggregator"
	"github.com/LJTian/BizPlanner/internal/api"
	"github.com/LJTian/BizPlanner/internal/collector"
	"github.com/LJTian/BizPlanner/internal/config"
	"github.com/LJTian/BizPlanner/internal/dooray"
	"github.com/LJTian/BizPlanner/internal/processor"
	"github.com/LJTian/BizPlanner/internal/scheduler"
	"github.com/LJTian/BizPlanner/internal/storage"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogging()

	sources, err := collector.LoadFeedSources(cfg.FeedsFile)
	if err != nil {
		log.Fatalf("load feed sources failed: %v", err)
	}
	log.Printf("loaded %d feed sources", len(sources))

	opts := []aggregator.Option{}
	var store *storage.Store
	if cfg.RedisAddr != "" {
		store = storage.NewStore(cfg.RedisAddr)
		defer store.Close()
		opts = append(opts, aggregator.WithCache(store, cfg.CacheTTL))
	}

	agg := aggregator.New(
		collector.NewRSSFetcher(cfg.FeedTimeout),
		sources,
		processor.NewDigestProcessor(processor.ParseOrder(cfg.NewsOrder)),
		opts...,
	)

	// 只有启用了共享缓存时预热才有意义
	if store != nil {
		s, err := scheduler.New(cfg.WarmCron, agg)
		if err != nil {
			log.Fatalf("init scheduler failed: %v", err)
		}
		s.Start()
		defer s.Stop()
	}

	calendar := dooray.NewClient(dooray.Config{
		BaseURL:    cfg.DoorayBaseURL,
		APIKey:     cfg.DoorayAPIKey,
		CalendarID: cfg.DoorayCalendarID,
		MemberID:   cfg.DoorayMemberID,
	}, nil)
	if !calendar.Config().Configured() {
		log.Warn("dooray: DOORAY_API_KEY / DOORAY_CALENDAR_ID not set, calendar proxy disabled")
	}

	r := gin.Default()
	apiServer := api.NewServer(agg, calendar)
	apiServer.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("starting api server at %s ...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exit: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

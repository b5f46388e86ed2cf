package main

import (
	"context"
	"time"

	"learnhub/cache"
	"learnhub/config"
	"learnhub/database"
	"learnhub/events"
	"learnhub/logger"
	"learnhub/server"
	"learnhub/utils"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Log = logger.New(cfg.Env)
	log := logger.Log

	if err := database.ConnectDb(cfg); err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database connection failed")
	}

	var courseCache *cache.CourseCache
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.Connect(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, course list is not cached")
		} else {
			courseCache = cache.NewCourseCache(client, time.Duration(cfg.CourseCacheTTL)*time.Second, log)
			defer courseCache.Close()
		}
	}

	publishers := events.Fanout{events.LogPublisher{Log: log}}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			events.EnrollmentCreated:   cfg.EnrollmentTopic,
			events.EnrollmentCompleted: cfg.EnrollmentTopic,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("kafka publisher setup failed")
		}
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
	}
	if cfg.CertificateHook != "" {
		publishers = append(publishers, events.NewWebhookPublisher(cfg.CertificateHook, events.EnrollmentCompleted))
	}

	mailer := utils.NewMailer(cfg.SendgridAPIKey, cfg.EmailSender, log)
	if !mailer.Enabled() {
		log.Warn().Msg("SENDGRID_API_KEY not set, emails are disabled")
	}

	srv := server.New(server.Deps{
		DB:        database.Database.Db,
		Config:    cfg,
		Cache:     courseCache,
		Publisher: publishers,
		Mailer:    mailer,
		Log:       log,
		AccessLog: true,
	})

	scheduler := utils.NewScheduler(srv.Coordinator, mailer, log)
	if err := scheduler.Start(utils.SchedulerConfig{
		ReconcileCron: cfg.ReconcileCron,
		ReminderCron:  cfg.ReminderCron,
		IdleDays:      cfg.ReminderIdleDays,
	}); err != nil {
		log.Fatal().Err(err).Msg("scheduler setup failed")
	}
	defer scheduler.Stop()

	log.Info().Str("port", cfg.Port).Msg("server is running")
	if err := srv.App.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

package main

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/db"
	"github.com/techagentng/firesafe/eventbus"
	"github.com/techagentng/firesafe/logger"
	"github.com/techagentng/firesafe/mailingservices"
	"github.com/techagentng/firesafe/server"
	"github.com/techagentng/firesafe/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logr := logger.New(conf.LogLevel, conf.LogFormat)

	gormDB := db.GetDB(conf, logr)
	// Seed roles
	if err := db.SeedRoles(gormDB.DB); err != nil {
		logr.WithError(err).Fatal("error seeding roles")
	}
	if conf.AdminEmail != "" && conf.AdminPassword != "" {
		hashed, err := services.GenerateHashPassword(conf.AdminPassword)
		if err != nil {
			logr.WithError(err).Fatal("error hashing admin password")
		}
		if err := db.SeedAdmin(gormDB.DB, "Administrator", conf.AdminEmail, hashed); err != nil {
			logr.WithError(err).Fatal("error seeding admin")
		}
	}

	storage, err := db.NewS3Storage(conf)
	if err != nil {
		logr.WithError(err).Warn("object storage disabled")
	}

	var mailer mailingservices.Mailer
	if mg := mailingservices.NewMailgun(conf); mg != nil {
		mailer = mg
	} else {
		logr.Warn("mailgun not configured, review e-mails disabled")
	}

	// Push fan-out listens on localBus only, so a publish notifies each
	// subscription once no matter how many instances share Redis.
	localBus := eventbus.NewLocalBus(logr)
	var bus eventbus.Bus = localBus
	blogBus := bus
	if conf.RedisAddr != "" {
		redisBus := eventbus.NewRedisBus(redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		}), logr)
		go func() {
			if err := redisBus.Run(context.Background()); err != nil {
				logr.WithError(err).Error("redis event relay stopped")
			}
		}()
		bus = redisBus
		blogBus = eventbus.Tee{redisBus, localBus}
	}

	authRepo := db.NewAuthRepo(gormDB)
	houseRepo := db.NewHouseRepo(gormDB)
	blogRepo := db.NewBlogRepo(gormDB)
	pushTokenRepo := db.NewPushTokenRepo(gormDB)
	reportRepo := db.NewReportRepo(gormDB)
	stationRepo := db.NewFireStationRepo(gormDB)

	authService := services.NewAuthService(authRepo, bus, conf, logr)
	houseService := services.NewHouseService(houseRepo, authRepo, mailer, bus, conf, logr)
	mediaService := services.NewMediaService(storage, conf, logr)
	blogService := services.NewBlogService(blogRepo, blogBus, conf, logr)
	analysisService := services.NewAnalysisService(houseRepo, services.NewPlanFetcher(storage, logr), services.NewGeminiClient(conf), bus, conf, logr)
	notificationService := services.NewNotificationService(pushTokenRepo, services.NewSenderFactory(conf), conf, logr)
	reportService := services.NewReportService(reportRepo, houseRepo, authRepo, bus, conf, logr)
	dashboardService := services.NewDashboardService(houseRepo, authRepo, blogRepo, reportRepo, stationRepo, conf, logr)
	fireStationService := services.NewFireStationService(stationRepo, conf, logr)

	stopListening := notificationService.Listen(localBus)
	defer stopListening()

	s := &server.Server{
		Config:              conf,
		Log:                 logr,
		Bus:                 bus,
		AuthRepository:      authRepo,
		AuthService:         authService,
		HouseService:        houseService,
		MediaService:        mediaService,
		BlogService:         blogService,
		AnalysisService:     analysisService,
		NotificationService: notificationService,
		ReportService:       reportService,
		DashboardService:    dashboardService,
		FireStationService:  fireStationService,
	}
	s.Start()
}

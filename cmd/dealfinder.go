package main

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"github.com/go-redis/redis/v9"

	"dealfinder/internal/catalog"
	"dealfinder/internal/client"
	"dealfinder/internal/configuration"
	"dealfinder/internal/database"
	"dealfinder/internal/logger"
	"dealfinder/internal/scan"
	"dealfinder/internal/server"
)

func main() {
	runApp()
	time.Sleep(10 * time.Second)
	os.Exit(1)
}

func runApp() error {
	appContext := context.Background()
	logOutput := io.Writer(os.Stdout)
	appLogger := logger.NewLogger(logger.LevelInfo, logOutput)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	config, err := configuration.GetConfig("config.toml")
	if err != nil {
		appLogger.Error("Error getting configuration from config.toml:", err)
		return err
	}

	if config.LogToFile {
		logFile, err := os.OpenFile("dealfinder.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			appLogger.Error("Error opening log file:", err)
			return err
		}
		defer func() {
			if err := logFile.Close(); err != nil {
				appLogger.Error("Error closing log file:", err)
			}
		}()
		logOutput = io.MultiWriter(logOutput, logFile)
	}
	appLogger = logger.NewLogger(config.LogLevel, logOutput)

	cat, err := catalog.Load(config.CatalogPath)
	if err != nil {
		appLogger.Error("Error loading product catalog:", err)
		return err
	}
	appLogger.Infof("Loaded catalog with %d products", len(cat.Products))

	appLogger.Info("Connecting to DB at", config.DatabaseURI)
	dbConn, err := database.ConnectDB(appContext, config.DatabaseURI)
	if err != nil {
		appLogger.Error("Error connecting to DB:", err)
		return err
	}
	defer func() {
		if err := dbConn.Disconnect(appContext); err != nil {
			appLogger.Error("Error disconnecting from DB:", err)
		}
	}()
	db := database.Database{Database: dbConn.Database(database.Name)}

	var redisClient *redis.Client
	if config.RedisAddress != "" {
		appLogger.Info("Using Redis cache at", config.RedisAddress)
		redisClient = redis.NewClient(&redis.Options{Addr: config.RedisAddress})
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLogger.Error("Error closing Redis client:", err)
			}
		}()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		appLogger.Error("Error creating cookie jar:", err)
		return err
	}
	marketClient := client.Client{
		Client:     &http.Client{Timeout: 15 * time.Second, Jar: jar},
		Redis:      redisClient,
		BaseURL:    config.MarketplaceURL,
		UserAgent:  config.UserAgent,
		WebhookURL: config.DiscordWebhookURL,
		Logger:     appLogger,
	}

	scanner := scan.NewScanner(db, marketClient, marketClient, cat, config.Policy, appLogger)
	if err := scanner.SyncCatalog(appContext); err != nil {
		appLogger.Error("Error syncing catalog to search queries:", err)
		return err
	}

	appLogger.Info("Starting scanner with interval:", config.ScanInterval)
	go scanner.ScanInInterval(appContext, time.NewTicker(config.ScanInterval))

	srv := server.Server{
		DB:             db,
		Scanner:        scanner,
		Logger:         appLogger,
		AdminSecretKey: config.AdminSecretKey,
	}

	httpSrv := &http.Server{
		Handler:      srv.Router(),
		Addr:         config.ServerAddress,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	appLogger.Info("Serving on", httpSrv.Addr)
	return httpSrv.ListenAndServe()
}

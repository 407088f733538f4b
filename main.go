package main

import (
	"embed"
	"os"
	"os/signal"
	"syscall"

	"prizebot/bot"
	"prizebot/config"
	"prizebot/database"
	"prizebot/logger"

	"github.com/op/go-logging"
)

//go:embed translation/*
var i18nFS embed.FS

func main() {
	var level logging.Level
	switch config.GetLogLevel() {
	case config.Debug:
		level = logging.DEBUG
	case config.Warn:
		level = logging.WARNING
	case config.Error:
		level = logging.ERROR
	default:
		level = logging.INFO
	}
	logger.InitLogger(level)
	logger.Infof("%s v%s", config.GetName(), config.GetVersion())

	if err := database.InitDB(config.GetDBPath()); err != nil {
		logger.Error("Database init failed:", err)
		os.Exit(1)
	}

	server := bot.NewServer()
	if err := server.Start(i18nFS); err != nil {
		logger.Error("Bot start failed:", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down ...")
	server.Stop()
}

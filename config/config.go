package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

func init() {
	// .env is optional, real deployments may set everything in the unit file
	_ = godotenv.Load()
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return "prizebot"
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("PRIZEBOT_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("PRIZEBOT_DEBUG") == "true"
}

func GetBotToken() string {
	return os.Getenv("PRIZEBOT_TOKEN")
}

// GetBotProxy returns an optional socks5 proxy URL for the Telegram API.
func GetBotProxy() string {
	return os.Getenv("PRIZEBOT_PROXY")
}

func GetBotAPIServer() string {
	return os.Getenv("PRIZEBOT_API_SERVER")
}

// GetAdminIds parses the comma-separated admin chat id list.
func GetAdminIds() []int64 {
	raw := os.Getenv("PRIZEBOT_ADMIN_IDS")
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func GetDBPath() string {
	if path := os.Getenv("PRIZEBOT_DB_PATH"); path != "" {
		return path
	}
	return "prizebot.db"
}

func GetImgDir() string {
	if dir := os.Getenv("PRIZEBOT_IMG_DIR"); dir != "" {
		return dir
	}
	return "img"
}

func GetHiddenImgDir() string {
	if dir := os.Getenv("PRIZEBOT_HIDDEN_IMG_DIR"); dir != "" {
		return dir
	}
	return "hidden_img"
}

// GetBroadcastSpec returns the cron spec for the prize broadcast job.
func GetBroadcastSpec() string {
	if spec := os.Getenv("PRIZEBOT_BROADCAST_SPEC"); spec != "" {
		return spec
	}
	return "@hourly"
}

func GetLocale() string {
	if loc := os.Getenv("PRIZEBOT_LOCALE"); loc != "" {
		return loc
	}
	return "ru_RU"
}

func GetCpuThreshold() int {
	raw := os.Getenv("PRIZEBOT_CPU_THRESHOLD")
	threshold, err := strconv.Atoi(raw)
	if err != nil || threshold <= 0 || threshold > 100 {
		return 85
	}
	return threshold
}

func GetTimeLocation() *time.Location {
	if name := os.Getenv("PRIZEBOT_TZ"); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.Local
}

package bot

import (
	"embed"

	"prizebot/bot/job"
	"prizebot/bot/service"
	"prizebot/config"
	"prizebot/logger"

	"github.com/robfig/cron/v3"
)

// Server wires the Telegram receiver and the periodic jobs together and
// owns their lifecycle.
type Server struct {
	cron *cron.Cron

	prizeService *service.PrizeService
	tgbotService *service.Tgbot
}

func NewServer() *Server {
	prizeService := service.NewPrizeService(config.GetImgDir(), config.GetHiddenImgDir())
	return &Server{
		prizeService: prizeService,
		tgbotService: service.NewTgbot(prizeService),
	}
}

func (s *Server) startTask() {
	spec := config.GetBroadcastSpec()
	broadcastJob := job.NewBroadcastJob(s.tgbotService, s.prizeService)
	if _, err := s.cron.AddJob(spec, broadcastJob); err != nil {
		logger.Errorf("Add BroadcastJob error[%s], spec[%s] invalid, will run hourly", err, spec)
		if _, err := s.cron.AddJob("@hourly", broadcastJob); err != nil {
			logger.Error("Add hourly BroadcastJob fallback failed:", err)
		}
	}

	if len(config.GetAdminIds()) > 0 {
		s.cron.AddJob("@every 1m", job.NewCheckCpuJob(s.tgbotService))
	}
}

func (s *Server) Start(i18nFS embed.FS) error {
	loc := config.GetTimeLocation()
	s.cron = cron.New(cron.WithLocation(loc), cron.WithSeconds())
	s.cron.Start()

	added, err := s.prizeService.SeedFromDir()
	if err != nil {
		logger.Warning("Prize seeding failed:", err)
	} else if added > 0 {
		logger.Infof("Seeded %d new prizes", added)
	}

	if err := s.tgbotService.Start(i18nFS); err != nil {
		return err
	}

	s.startTask()
	return nil
}

func (s *Server) Stop() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.tgbotService.IsRunning() {
		s.tgbotService.Stop()
	}
	return nil
}

package job

import (
	"prizebot/bot/service"
	"prizebot/logger"
)

// BroadcastJob runs on the configured cadence: it reserves one unused prize,
// obscures its image and fans it out to every registered user. The cron
// runner never overlaps invocations of the same job.
type BroadcastJob struct {
	tgbotService *service.Tgbot
	prizeService *service.PrizeService
}

func NewBroadcastJob(tgbotService *service.Tgbot, prizeService *service.PrizeService) *BroadcastJob {
	return &BroadcastJob{
		tgbotService: tgbotService,
		prizeService: prizeService,
	}
}

func (j *BroadcastJob) Run() {
	prize, err := j.prizeService.PickUnusedPrize()
	if err != nil {
		logger.Error("Broadcast skipped, failed to pick a prize:", err)
		return
	}
	if prize == nil {
		logger.Info("No unused prizes left, broadcast skipped")
		j.tgbotService.SendMsgToTgbotAdmins(j.tgbotService.I18nBot("tgbot.messages.prizesExhausted"))
		return
	}

	hiddenPath, err := j.prizeService.ObscurePrize(prize)
	if err != nil {
		// the prize stays reserved; /reset puts it back into rotation
		logger.Errorf("Failed to obscure prize %d (%s): %v", prize.ID, prize.Image, err)
		j.tgbotService.SendMsgToTgbotAdmins(j.tgbotService.I18nBot("tgbot.messages.broadcastFailed",
			"Image=="+prize.Image,
			"Error=="+err.Error(),
		))
		return
	}

	j.tgbotService.BroadcastPrize(prize.ID, hiddenPath)
}

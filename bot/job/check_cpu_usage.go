package job

import (
	"strconv"
	"time"

	"prizebot/bot/service"
	"prizebot/config"

	"github.com/shirou/gopsutil/v4/cpu"
)

// CheckCpuJob alerts the admins when CPU usage stays above the configured
// threshold for three consecutive samples, at most once per notify interval.
type CheckCpuJob struct {
	tgbotService       *service.Tgbot
	overThresholdCount int
	lastNotifyTime     time.Time
}

func NewCheckCpuJob(tgbotService *service.Tgbot) *CheckCpuJob {
	return &CheckCpuJob{
		tgbotService: tgbotService,
	}
}

func (j *CheckCpuJob) Run() {
	threshold := config.GetCpuThreshold()
	notifyInterval := 10 * time.Minute

	percent, err := cpu.Percent(10*time.Second, false)
	if err != nil || len(percent) == 0 {
		return
	}

	now := time.Now()
	if percent[0] > float64(threshold) {
		j.overThresholdCount++
	} else {
		j.overThresholdCount = 0
	}

	if j.overThresholdCount >= 3 && now.Sub(j.lastNotifyTime) > notifyInterval {
		msg := j.tgbotService.I18nBot("tgbot.messages.cpuThreshold",
			"Percent=="+strconv.FormatFloat(percent[0], 'f', 2, 64),
			"Threshold=="+strconv.Itoa(threshold),
		)
		j.tgbotService.SendMsgToTgbotAdmins(msg)
		j.lastNotifyTime = now
		j.overThresholdCount = 0
	}
}

package service

import (
	"context"
	"embed"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"prizebot/bot/locale"
	"prizebot/config"
	"prizebot/database"
	"prizebot/logger"
	"prizebot/util/common"
	"prizebot/util/imgutil"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/skip2/go-qrcode"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"
	"go.uber.org/atomic"
)

const claimCallbackPrefix = "claim_"

var (
	bot        *telego.Bot
	botHandler *th.BotHandler
	adminIds   []int64
	isRunning  bool

	broadcastCount   = atomic.NewInt64(0)
	deliveryFailures = atomic.NewInt64(0)
)

// winReactions is sampled per win by the claim handler.
var winReactions = []string{"🎉", "🎊", "🏆", "🥳", "✨"}

// Tgbot is the Telegram front-end: it routes inbound commands and claim
// callbacks to the prize service and renders every outbound message.
type Tgbot struct {
	prizeService *PrizeService
}

func NewTgbot(prizeService *PrizeService) *Tgbot {
	return &Tgbot{
		prizeService: prizeService,
	}
}

func (t *Tgbot) I18nBot(name string, params ...string) string {
	return locale.I18n(name, params...)
}

func (t *Tgbot) Start(i18nFS embed.FS) error {
	err := locale.InitLocalizer(i18nFS, config.GetLocale())
	if err != nil {
		return err
	}

	tgBotToken := config.GetBotToken()
	if tgBotToken == "" {
		return common.NewError("Telegram bot token is not set")
	}

	adminIds = config.GetAdminIds()

	bot, err = t.NewBot(tgBotToken, config.GetBotProxy(), config.GetBotAPIServer())
	if err != nil {
		logger.Error("Failed to initialize Telegram bot API:", err)
		return err
	}

	err = bot.SetMyCommands(context.Background(), &telego.SetMyCommandsParams{
		Commands: []telego.BotCommand{
			{Command: "start", Description: t.I18nBot("tgbot.commands.startDesc")},
			{Command: "rating", Description: t.I18nBot("tgbot.commands.ratingDesc")},
			{Command: "achievements", Description: t.I18nBot("tgbot.commands.achievementsDesc")},
			{Command: "help", Description: t.I18nBot("tgbot.commands.helpDesc")},
			{Command: "id", Description: t.I18nBot("tgbot.commands.idDesc")},
		},
	})
	if err != nil {
		logger.Warning("Failed to set bot commands:", err)
	}

	if !isRunning {
		logger.Info("Telegram bot receiver started")
		go t.OnReceive()
		isRunning = true
	}

	return nil
}

func (t *Tgbot) NewBot(token string, proxyUrl string, apiServerUrl string) (*telego.Bot, error) {
	if proxyUrl == "" && apiServerUrl == "" {
		return telego.NewBot(token)
	}

	if proxyUrl != "" {
		if !strings.HasPrefix(proxyUrl, "socks5://") {
			logger.Warning("Invalid socks5 URL, using default")
			return telego.NewBot(token)
		}

		_, err := url.Parse(proxyUrl)
		if err != nil {
			logger.Warningf("Can't parse proxy URL, using default instance for tgbot: %v", err)
			return telego.NewBot(token)
		}

		return telego.NewBot(token, telego.WithFastHTTPClient(&fasthttp.Client{
			Dial: fasthttpproxy.FasthttpSocksDialer(proxyUrl),
		}))
	}

	if !strings.HasPrefix(apiServerUrl, "http") {
		logger.Warning("Invalid http(s) URL, using default")
		return telego.NewBot(token)
	}

	_, err := url.Parse(apiServerUrl)
	if err != nil {
		logger.Warningf("Can't parse API server URL, using default instance for tgbot: %v", err)
		return telego.NewBot(token)
	}

	return telego.NewBot(token, telego.WithAPIServer(apiServerUrl))
}

func (t *Tgbot) IsRunning() bool {
	return isRunning
}

func (t *Tgbot) Stop() {
	if botHandler != nil {
		botHandler.Stop()
	}
	logger.Info("Stop Telegram receiver ...")
	isRunning = false
	adminIds = nil
}

func (t *Tgbot) OnReceive() {
	defer common.Recover("tgbot receiver")

	params := telego.GetUpdatesParams{
		Timeout: 10,
	}

	updates, _ := bot.UpdatesViaLongPolling(context.Background(), &params)

	botHandler, _ = th.NewBotHandler(bot, updates)

	botHandler.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		t.answerCommand(&message, message.Chat.ID, checkAdmin(message.From.ID))
		return nil
	}, th.AnyCommand())

	botHandler.HandleCallbackQuery(func(ctx *th.Context, query telego.CallbackQuery) error {
		t.answerCallback(&query, checkAdmin(query.From.ID))
		return nil
	}, th.AnyCallbackQueryWithMessage())

	botHandler.Start()
}

func checkAdmin(tgId int64) bool {
	for _, adminId := range adminIds {
		if adminId == tgId {
			return true
		}
	}
	return false
}

func (t *Tgbot) answerCommand(message *telego.Message, chatId int64, isAdmin bool) {
	msg := ""

	command, _, _ := tu.ParseCommand(message.Text)

	handleUnknownCommand := func() {
		msg += t.I18nBot("tgbot.commands.unknown")
	}

	switch command {
	case "start":
		msg += t.registerUser(chatId, message.From.Username)
	case "help":
		msg += t.I18nBot("tgbot.messages.help", "Version=="+config.GetVersion())
	case "id":
		msg += t.I18nBot("tgbot.messages.yourId", "ID=="+strconv.FormatInt(message.From.ID, 10))
	case "rating":
		msg += t.ratingMessage()
	case "achievements":
		t.sendAchievements(chatId)
	case "status":
		if isAdmin {
			msg += t.prepareStatusInfo()
		} else {
			handleUnknownCommand()
		}
	case "reset":
		if isAdmin {
			if err := t.prizeService.ResetPrizes(); err != nil {
				logger.Error("Failed to reset prizes:", err)
				msg += t.I18nBot("tgbot.messages.genericFailure")
			} else {
				msg += t.I18nBot("tgbot.messages.resetDone")
			}
		} else {
			handleUnknownCommand()
		}
	case "export":
		if isAdmin {
			t.sendWinnersExport(chatId)
		} else {
			handleUnknownCommand()
		}
	case "backup":
		if isAdmin {
			t.sendBackup(chatId)
		} else {
			handleUnknownCommand()
		}
	case "qr":
		if isAdmin {
			t.sendBotLinkQR(chatId)
		} else {
			handleUnknownCommand()
		}
	case "logs":
		if isAdmin {
			msg += t.recentLogsMessage()
		} else {
			handleUnknownCommand()
		}
	default:
		handleUnknownCommand()
	}

	if msg != "" {
		t.SendMsgToTgbot(chatId, msg)
	}
}

func (t *Tgbot) registerUser(chatId int64, username string) string {
	exists, err := database.UserExists(chatId)
	if err != nil {
		logger.Error("Failed to check user registration:", err)
		return t.I18nBot("tgbot.messages.genericFailure")
	}
	if exists {
		return t.I18nBot("tgbot.messages.alreadyRegistered")
	}
	if err := database.AddUser(chatId, username); err != nil {
		logger.Error("Failed to register user:", err)
		return t.I18nBot("tgbot.messages.genericFailure")
	}
	logger.Infof("Registered user %d (%s)", chatId, username)
	return t.I18nBot("tgbot.messages.welcome")
}

func (t *Tgbot) ratingMessage() string {
	rating, err := t.prizeService.Rating()
	if err != nil {
		logger.Error("Failed to load rating:", err)
		return t.I18nBot("tgbot.messages.genericFailure")
	}
	if len(rating) == 0 {
		return t.I18nBot("tgbot.messages.ratingEmpty")
	}

	var info strings.Builder
	info.WriteString(t.I18nBot("tgbot.messages.ratingHeader"))
	for i, row := range rating {
		info.WriteString(fmt.Sprintf("\r\n%d. %s — %d", i+1, row.UserName, row.WinCount))
	}
	return info.String()
}

func (t *Tgbot) sendAchievements(chatId int64) {
	paths, err := t.prizeService.AchievementPaths(chatId)
	if err != nil {
		logger.Error("Failed to collect achievement images:", err)
		t.SendMsgToTgbot(chatId, t.I18nBot("tgbot.messages.genericFailure"))
		return
	}

	collage, err := imgutil.BuildCollagePNG(paths)
	if err != nil {
		logger.Warningf("Failed to build collage for %d: %v", chatId, err)
		t.SendMsgToTgbot(chatId, t.I18nBot("tgbot.messages.achievementsEmpty"))
		return
	}

	fileName := fmt.Sprintf("collage_%s.png", uuid.New().String())
	photo := tu.Photo(
		tu.ID(chatId),
		tu.FileFromBytes(collage, fileName),
	).WithCaption(t.I18nBot("tgbot.messages.achievementsCaption"))

	if _, err := bot.SendPhoto(context.Background(), photo); err != nil {
		logger.Warningf("Failed to send collage to %d: %v", chatId, err)
	}
}

func (t *Tgbot) prepareStatusInfo() string {
	var cpuPercent, memPercent float64
	if percent, err := cpu.Percent(time.Second, false); err == nil && len(percent) > 0 {
		cpuPercent = percent[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		memPercent = vm.UsedPercent
	}

	users, _ := database.CountUsers()
	total, used, _ := database.CountPrizes()

	return t.I18nBot("tgbot.messages.status",
		"Version=="+config.GetVersion(),
		"Users=="+strconv.FormatInt(users, 10),
		"PrizesUsed=="+strconv.FormatInt(used, 10),
		"PrizesTotal=="+strconv.FormatInt(total, 10),
		"Broadcasts=="+strconv.FormatInt(broadcastCount.Load(), 10),
		"Failures=="+strconv.FormatInt(deliveryFailures.Load(), 10),
		"Cpu=="+strconv.FormatFloat(cpuPercent, 'f', 1, 64),
		"Mem=="+strconv.FormatFloat(memPercent, 'f', 1, 64),
	)
}

func (t *Tgbot) sendWinnersExport(chatId int64) {
	data, err := t.prizeService.ExportWinners()
	if err != nil {
		logger.Error("Failed to export winners:", err)
		t.SendMsgToTgbot(chatId, t.I18nBot("tgbot.messages.genericFailure"))
		return
	}

	document := tu.Document(
		tu.ID(chatId),
		tu.FileFromBytes(data, "winners.json"),
	).WithCaption(t.I18nBot("tgbot.messages.exportCaption"))

	if _, err := bot.SendDocument(context.Background(), document); err != nil {
		logger.Warningf("Failed to send winners export to %d: %v", chatId, err)
	}
}

// sendBackup uploads the sqlite database file to the admin after checking
// it actually carries the sqlite signature.
func (t *Tgbot) sendBackup(chatId int64) {
	dbPath := config.GetDBPath()

	file, err := os.Open(dbPath)
	if err != nil {
		logger.Warningf("Failed to open database %q for backup: %v", dbPath, err)
		t.SendMsgToTgbot(chatId, t.I18nBot("tgbot.messages.genericFailure"))
		return
	}
	ok, err := database.IsSQLiteDB(file)
	file.Close()
	if err != nil || !ok {
		logger.Warningf("Refusing to back up %q, not a sqlite database: %v", dbPath, err)
		t.SendMsgToTgbot(chatId, t.I18nBot("tgbot.messages.genericFailure"))
		return
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		logger.Warningf("Failed to read database %q for backup: %v", dbPath, err)
		t.SendMsgToTgbot(chatId, t.I18nBot("tgbot.messages.genericFailure"))
		return
	}

	document := tu.Document(
		tu.ID(chatId),
		tu.FileFromBytes(data, "prizebot.db"),
	).WithCaption(t.I18nBot("tgbot.messages.backupCaption"))

	if _, err := bot.SendDocument(context.Background(), document); err != nil {
		logger.Warningf("Failed to send backup to %d: %v", chatId, err)
	}
}

func (t *Tgbot) sendBotLinkQR(chatId int64) {
	me, err := bot.GetMe(context.Background())
	if err != nil {
		logger.Warning("Failed to resolve bot username:", err)
		t.SendMsgToTgbot(chatId, t.I18nBot("tgbot.messages.genericFailure"))
		return
	}

	link := "https://t.me/" + me.Username
	qrCodeBytes, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		logger.Warningf("Failed to encode QR code, sending plain link: %v", err)
		t.SendMsgToTgbot(chatId, link)
		return
	}

	photo := tu.Photo(
		tu.ID(chatId),
		tu.FileFromBytes(qrCodeBytes, "bot_link.png"),
	).WithCaption(t.I18nBot("tgbot.messages.qrCaption") + "\r\n" + link)

	if _, err := bot.SendPhoto(context.Background(), photo); err != nil {
		logger.Warningf("Failed to send QR code to %d: %v", chatId, err)
	}
}

func (t *Tgbot) recentLogsMessage() string {
	lines := logger.GetLogs(25, "INFO")
	if len(lines) == 0 {
		return t.I18nBot("tgbot.messages.logsEmpty")
	}
	return strings.Join(lines, "\r\n")
}

func (t *Tgbot) answerCallback(callbackQuery *telego.CallbackQuery, isAdmin bool) {
	data := callbackQuery.Data
	if !strings.HasPrefix(data, claimCallbackPrefix) {
		t.sendCallbackAnswerTgBot(callbackQuery.ID, "")
		return
	}

	prizeID, err := strconv.ParseInt(strings.TrimPrefix(data, claimCallbackPrefix), 10, 64)
	if err != nil {
		t.sendCallbackAnswerTgBot(callbackQuery.ID, t.I18nBot("tgbot.messages.genericFailure"))
		return
	}

	t.handleClaim(callbackQuery, prizeID)
}

func (t *Tgbot) handleClaim(callbackQuery *telego.CallbackQuery, prizeID int64) {
	userID := callbackQuery.From.ID

	result, imagePath, err := t.prizeService.Claim(userID, prizeID)
	if err != nil {
		logger.Errorf("Claim of prize %d by %d failed: %v", prizeID, userID, err)
		t.sendCallbackAnswerTgBot(callbackQuery.ID, t.I18nBot("tgbot.messages.genericFailure"))
		return
	}

	switch result {
	case ClaimWon:
		chatId := callbackQuery.Message.GetChat().ID
		t.SendPhotoToTgbot(chatId, imagePath, "")
		t.sendCallbackAnswerTgBot(callbackQuery.ID, t.I18nBot("tgbot.messages.claimWon", "Emoji=="+common.RandomChoice(winReactions)))
		logger.Infof("User %d won prize %d", userID, prizeID)
	case ClaimNoImage:
		t.sendCallbackAnswerTgBot(callbackQuery.ID, t.I18nBot("tgbot.messages.claimNoImage"))
	default:
		t.sendCallbackAnswerTgBot(callbackQuery.ID, t.I18nBot("tgbot.messages.claimTooLate"))
	}
}

// BroadcastPrize fans the obscured image out to every registered user with
// the claim button attached. Delivery is best effort per recipient.
func (t *Tgbot) BroadcastPrize(prizeID int64, hiddenPath string) {
	if !isRunning {
		return
	}

	users, err := database.GetUserIds()
	if err != nil {
		logger.Error("Broadcast aborted, failed to list users:", err)
		return
	}

	data, err := os.ReadFile(hiddenPath)
	if err != nil {
		logger.Error("Broadcast aborted, failed to read hidden image:", err)
		return
	}

	markup := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(t.I18nBot("tgbot.buttons.claim")).
				WithCallbackData(fmt.Sprintf("%s%d", claimCallbackPrefix, prizeID)),
		),
	)

	sent := 0
	for _, userId := range users {
		photo := tu.Photo(
			tu.ID(userId),
			tu.FileFromBytes(data, "prize.jpg"),
		).WithCaption(t.I18nBot("tgbot.messages.broadcastCaption")).WithReplyMarkup(markup)

		if _, err := bot.SendPhoto(context.Background(), photo); err != nil {
			logger.Warningf("Failed to deliver prize %d to %d: %v", prizeID, userId, err)
			deliveryFailures.Inc()
			continue
		}
		sent++
		time.Sleep(100 * time.Millisecond)
	}

	broadcastCount.Inc()
	logger.Infof("Broadcast prize %d to %d/%d users", prizeID, sent, len(users))
}

func (t *Tgbot) SendMsgToTgbot(chatId int64, msg string, replyMarkup ...telego.ReplyMarkup) {
	if !isRunning {
		return
	}

	if msg == "" {
		logger.Info("[tgbot] message is empty!")
		return
	}

	var allMessages []string
	limit := 2000

	// paging message if it is big
	if len(msg) > limit {
		messages := strings.Split(msg, "\r\n\r\n")
		lastIndex := -1

		for _, message := range messages {
			if (len(allMessages) == 0) || (len(allMessages[lastIndex])+len(message) > limit) {
				allMessages = append(allMessages, message)
				lastIndex++
			} else {
				allMessages[lastIndex] += "\r\n\r\n" + message
			}
		}
		if strings.TrimSpace(allMessages[len(allMessages)-1]) == "" {
			allMessages = allMessages[:len(allMessages)-1]
		}
	} else {
		allMessages = append(allMessages, msg)
	}
	for n, message := range allMessages {
		params := telego.SendMessageParams{
			ChatID:    tu.ID(chatId),
			Text:      message,
			ParseMode: "HTML",
		}
		// only add replyMarkup to last message
		if len(replyMarkup) > 0 && n == (len(allMessages)-1) {
			params.ReplyMarkup = replyMarkup[0]
		}
		_, err := bot.SendMessage(context.Background(), &params)
		if err != nil {
			logger.Warning("Error sending telegram message :", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func (t *Tgbot) SendMsgToTgbotAdmins(msg string, replyMarkup ...telego.ReplyMarkup) {
	if len(replyMarkup) > 0 {
		for _, adminId := range adminIds {
			t.SendMsgToTgbot(adminId, msg, replyMarkup[0])
		}
	} else {
		for _, adminId := range adminIds {
			t.SendMsgToTgbot(adminId, msg)
		}
	}
}

// SendPhotoToTgbot uploads the image at path as a photo message.
func (t *Tgbot) SendPhotoToTgbot(chatId int64, path string, caption string) {
	if !isRunning {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warningf("Failed to read photo %q: %v", path, err)
		t.SendMsgToTgbot(chatId, t.I18nBot("tgbot.messages.genericFailure"))
		return
	}

	photo := tu.Photo(
		tu.ID(chatId),
		tu.FileFromBytes(data, "photo.jpg"),
	)
	if caption != "" {
		photo = photo.WithCaption(caption)
	}

	if _, err := bot.SendPhoto(context.Background(), photo); err != nil {
		logger.Warningf("Failed to send photo to %d: %v", chatId, err)
	}
}

func (t *Tgbot) sendCallbackAnswerTgBot(id string, message string) {
	params := telego.AnswerCallbackQueryParams{
		CallbackQueryID: id,
		Text:            message,
	}
	if err := bot.AnswerCallbackQuery(context.Background(), &params); err != nil {
		logger.Warning(err)
	}
}

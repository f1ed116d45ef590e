package main

import (
	"log"
	"time"

	"kartochka-bot/internal/bot"
	"kartochka-bot/internal/config"
	"kartochka-bot/internal/database"
	"kartochka-bot/internal/gencli"
	"kartochka-bot/internal/ledger"
	"kartochka-bot/internal/payment"
	"kartochka-bot/internal/referral"
	"kartochka-bot/internal/session"
	"kartochka-bot/internal/worker"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}

	userLedger := ledger.NewLedger(db)
	referralService := referral.NewService(userLedger, db, nil)
	paymentHandler := payment.NewHandler(userLedger, referralService, db)
	genClient := gencli.NewClient(cfg.GenServiceURL, cfg.APISecretKey)
	sessions := session.NewStore(rdb, time.Hour)

	tgBot, err := bot.NewBot(bot.Options{
		Token:        cfg.BotToken,
		Ledger:       userLedger,
		Referral:     referralService,
		Payments:     paymentHandler,
		Gen:          genClient,
		Sessions:     sessions,
		CardTimeout:  cfg.CardTimeout,
		PhotoTimeout: cfg.PhotoTimeout,
	})
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}

	// Bonus notifications go out through the bot itself.
	referralService.Notifier = tgBot

	reminder := worker.NewReminder(db, rdb, tgBot.Instance, bot.PhotoProcessingCost)
	go reminder.Start()

	log.Println("Bot started")
	tgBot.Start()
}

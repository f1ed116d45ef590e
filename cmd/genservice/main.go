package main

import (
	"log"

	"kartochka-bot/internal/config"
	"kartochka-bot/internal/genservice"
	"kartochka-bot/internal/imagegen"
)

func main() {
	cfg := config.LoadConfig()

	generator := imagegen.NewClient(cfg.ImageGenAPIKey, cfg.ImageGenModel, cfg.ImageGenBaseURL, cfg.ImageGenTimeout)
	files := genservice.NewTelegramFileResolver(cfg.BotToken)

	srv := genservice.NewServer(genservice.Config{APIKey: cfg.APISecretKey}, generator, files)

	log.Printf("Generation service listening on %s", cfg.GenListenAddr)
	if err := srv.Listen(cfg.GenListenAddr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

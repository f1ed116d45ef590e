package genservice

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"kartochka-bot/internal/gencli"
)

// Generator is the vendor behind the facade.
type Generator interface {
	ProcessImages(ctx context.Context, imageURLs []string, prompt string) (string, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	APIKey string
}

// Server exposes the generation endpoints consumed by the bot.
type Server struct {
	app       *fiber.App
	generator Generator
	files     FileResolver
}

func NewServer(cfg Config, generator Generator, files FileResolver) *Server {
	s := &Server{
		generator: generator,
		files:     files,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(accessLogMiddleware())

	app.Get("/health", s.handleHealth)

	v1 := app.Group("/v1", apiKeyMiddleware(cfg.APIKey))
	v1.Post("/card/generate", s.handleCardGenerate)
	v1.Post("/photo/process", s.handlePhotoProcess)

	s.app = app
	return s
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	log.Printf("Generation service listening on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleCardGenerate(c *fiber.Ctx) error {
	var req gencli.CardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "invalid request body",
		})
	}

	if req.Characteristics["name"] == "" || req.Characteristics["brand"] == "" || req.Characteristics["category"] == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "characteristics must include name, brand and category",
		})
	}

	log.Printf("Generating card for telegram_id=%d", req.TelegramID)

	card, err := s.generator.GenerateText(c.Context(), buildCardPrompt(req))
	if err != nil {
		log.Printf("Card generation failed for %d: %v", req.TelegramID, err)
		return c.JSON(gencli.CardResponse{
			Status: "error",
			Card:   fmt.Sprintf("ERROR: %v", err),
		})
	}

	return c.JSON(gencli.CardResponse{
		Status: "success",
		Card:   card,
	})
}

func (s *Server) handlePhotoProcess(c *fiber.Ctx) error {
	var req gencli.PhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "invalid request body",
		})
	}

	if len(req.PhotoFileIDs) == 0 || req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "photo_file_ids and prompt are required",
		})
	}

	log.Printf("Processing photo for telegram_id=%d", req.TelegramID)
	start := time.Now()

	imageURLs := make([]string, 0, len(req.PhotoFileIDs))
	for _, fileID := range req.PhotoFileIDs {
		url, err := s.files.FileURL(c.Context(), fileID)
		if err != nil {
			log.Printf("Failed to resolve file %s: %v", fileID, err)
			return c.JSON(gencli.PhotoResponse{
				Status:  "error",
				Message: "Не удалось получить исходное изображение",
			})
		}
		imageURLs = append(imageURLs, url)
	}

	photoURL, err := s.generator.ProcessImages(c.Context(), imageURLs, req.Prompt)
	if err != nil {
		log.Printf("Photo processing failed for %d: %v", req.TelegramID, err)
		return c.JSON(gencli.PhotoResponse{
			Status:  "error",
			Message: classifyVendorError(err),
		})
	}

	return c.JSON(gencli.PhotoResponse{
		Status: "success",
		Result: gencli.PhotoResult{
			PhotoURL:       photoURL,
			ProcessingTime: time.Since(start).Seconds(),
		},
	})
}

func classifyVendorError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "Превышено время ожидания обработки"
	case strings.Contains(msg, "api") || strings.Contains(msg, "network"):
		return "Ошибка при обращении к сервису обработки изображений"
	default:
		return fmt.Sprintf("Ошибка обработки: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/engagement-tracker/internal/config"
	infraLark "github.com/garyjia/engagement-tracker/internal/infrastructure/external/lark"
)

// Sends one message through the configured Lark chat so credentials and the
// receive ID can be checked without starting the server.
//
// Usage: test-notification [message]

func main() {
	fmt.Println("=== Lark IM Notification Test ===")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Lark.AppID == "" || cfg.Lark.AppSecret == "" || cfg.Lark.ReceiveID == "" {
		log.Fatal("LARK_APP_ID, LARK_APP_SECRET and LARK_RECEIVE_ID must be set")
	}

	fmt.Printf("App ID: %s\n", mask(cfg.Lark.AppID))
	fmt.Printf("Receiver: %s (%s)\n", cfg.Lark.ReceiveID, cfg.Lark.ReceiveIDType)

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	message := fmt.Sprintf("Engagement tracker test notification (%s)", time.Now().Format(time.RFC3339))
	if len(os.Args) > 1 {
		message = strings.Join(os.Args[1:], " ")
	}

	messenger := infraLark.NewMessenger(infraLark.NewSDKClient(infraLark.Config{
		AppID:         cfg.Lark.AppID,
		AppSecret:     cfg.Lark.AppSecret,
		ReceiveIDType: cfg.Lark.ReceiveIDType,
		ReceiveID:     cfg.Lark.ReceiveID,
	}, logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := messenger.Notify(ctx, message); err != nil {
		log.Fatalf("✗ Failed to send message: %v", err)
	}
	fmt.Println("✓ Message sent")
}

func mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

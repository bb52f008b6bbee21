// Command test_waha sends a test WhatsApp message through the configured
// WAHA gateway to verify connectivity and number normalization.
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

func main() {
	to := flag.String("to", "", "phone number or group id (required)")
	message := flag.String("message", "Test message from the clinic system", "message text")
	flag.Parse()

	if *to == "" {
		flag.Usage()
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	waha := services.NewWahaService()
	log.Printf("Sending to %s (normalized: %s)", *to, services.NormalizeChatID(*to))
	if err := waha.SendMessage(*to, *message); err != nil {
		log.Fatalf("Failed to send: %v", err)
	}
	log.Println("Message sent")
}

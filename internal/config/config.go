package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func Load() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️ No .env file found, using system environment")
	} else {
		log.Println("✅ .env file loaded")
	}
}

// Env returns the value of an environment variable, or the fallback when the
// variable is unset or empty.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvDuration parses an env var in seconds, with a fallback.
func EnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// --- Payment gateway ---

func RazorpayKeyID() string     { return os.Getenv("RAZORPAY_KEY_ID") }
func RazorpayKeySecret() string { return os.Getenv("RAZORPAY_KEY_SECRET") }

// --- Carrier ---

func ShiprocketBaseURL() string {
	return Env("SHIPROCKET_BASE_URL", "https://apiv2.shiprocket.in")
}
func ShiprocketEmail() string    { return os.Getenv("SHIPROCKET_EMAIL") }
func ShiprocketPassword() string { return os.Getenv("SHIPROCKET_PASSWORD") }
func PickupLocation() string     { return Env("PICKUP_LOCATION", "warehouse-1") }
func PickupPincode() string      { return os.Getenv("PICKUP_PINCODE") }

// TrackingSweepInterval controls the background tracking sweep.
func TrackingSweepInterval() time.Duration {
	return EnvDuration("TRACKING_SWEEP_INTERVAL_SECONDS", 30*time.Minute)
}

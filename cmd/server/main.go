package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/MikyMack/stayRare-full/internal/config"
	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/handlers/order"
	"github.com/MikyMack/stayRare-full/internal/payment"
	"github.com/MikyMack/stayRare-full/internal/routes"
	"github.com/MikyMack/stayRare-full/internal/shiprocket"
	"github.com/MikyMack/stayRare-full/internal/tracking"
)

func main() {
	config.Load()

	database.ConnectDatabases()
	defer database.Close()

	gateway := payment.NewClient(config.RazorpayKeyID(), config.RazorpayKeySecret())
	if gateway.Configured() {
		log.Println("✅ Razorpay initialized")
	} else {
		log.Println("⚠️ Razorpay keys missing, online payments disabled")
	}

	carrier := shiprocket.NewClient(
		config.ShiprocketBaseURL(),
		config.ShiprocketEmail(),
		config.ShiprocketPassword(),
		config.PickupLocation(),
		config.PickupPincode(),
	)

	orders := order.NewHandler(gateway, carrier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go tracking.Sweep(ctx, carrier, config.TrackingSweepInterval())

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.Env("FRONTEND_URL", "http://localhost:5173")},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	routes.RegisterRoutes(r, orders)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 StayRare server listening on port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("❌ Server stopped: %v", err)
	}
}

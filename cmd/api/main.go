package main

import (
	"context"
	"log"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"hotelapp/internal/booking"
	"hotelapp/internal/catalog"
	"hotelapp/internal/config"
	"hotelapp/internal/handler"
	"hotelapp/internal/store"
)

func main() {
	// .env не обязателен, настройки могут прийти из окружения.
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	opt := option.WithCredentialsFile(cfg.CredentialsFile)

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, opt)
	if err != nil {
		log.Fatalf("Ошибка подключения к Firebase: %v", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		log.Fatalf("Ошибка создания клиента Firestore: %v", err)
	}
	defer client.Close()

	firebaseAuth, err := app.Auth(ctx)
	if err != nil {
		log.Fatalf("Ошибка инициализации Firebase Auth: %v", err)
	}

	st := store.NewFirestore(client)
	resolver := booking.NewResolver(st)
	ledger := booking.NewLedger(st, resolver)
	rooms := catalog.NewService(st)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.New(rooms, ledger, firebaseAuth).Register(r)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

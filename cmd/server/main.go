package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/corebank/backend/internal/config"
	"github.com/corebank/backend/internal/database"
	"github.com/corebank/backend/internal/handlers"
	mW "github.com/corebank/backend/internal/middleware"
	"github.com/corebank/backend/internal/scheduler"
	"github.com/corebank/backend/internal/services"
	"github.com/corebank/backend/internal/store"
)

func main() {
	config.Load()

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Stores
	accountStore := store.NewAccountStore(db)
	userStore := store.NewUserStore(db)
	transactionStore := store.NewTransactionStore(db)
	allocator := store.NewAccountNumberAllocator(accountStore)

	// Services
	events := services.NewEventPublisher(redisClient)
	accountService := services.NewAccountService(accountStore, userStore, transactionStore, allocator, events)
	creditService := services.NewCreditService(accountStore, userStore, allocator)
	transferService := services.NewTransferService(accountStore, userStore, transactionStore, events)
	transactionService := services.NewTransactionService(transactionStore, accountStore, userStore)

	// Handlers
	accountHandler := handlers.NewAccountHandler(accountService)
	creditHandler := handlers.NewCreditHandler(creditService)
	transferHandler := handlers.NewTransferHandler(transferService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)

	// Monthly interest accrual
	accrualScheduler := scheduler.New(creditService)
	if err := accrualScheduler.Start(viper.GetString("accrual.schedule")); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer accrualScheduler.Stop()

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			// Accounts
			r.Post("/accounts", accountHandler.CreateAccount)
			r.Get("/accounts", accountHandler.ListAccounts)
			r.Get("/accounts/{accountNumber}", accountHandler.GetAccount)
			r.Delete("/accounts/{accountNumber}", accountHandler.DeleteAccount)
			r.Post("/accounts/{accountNumber}/deposit", accountHandler.Deposit)
			r.Post("/accounts/{accountNumber}/withdraw", accountHandler.Withdraw)
			r.Put("/accounts/{accountNumber}/block", accountHandler.BlockAccount)
			r.Put("/accounts/{accountNumber}/unblock", accountHandler.UnblockAccount)

			// Credit administration
			r.Post("/credits", creditHandler.CreateAccount)
			r.Put("/credits/{accountNumber}/limit/increase", creditHandler.IncreaseLimit)
			r.Put("/credits/{accountNumber}/limit/decrease", creditHandler.DecreaseLimit)
			r.Put("/credits/{accountNumber}/rate", creditHandler.SetInterestRate)
			r.Post("/credits/accrue", creditHandler.RunAccrual)

			// Transfers
			r.Post("/transfers", transferHandler.Transfer)

			// Ledger history
			r.Get("/transactions", transactionHandler.ListAll)
			r.Get("/transactions/{txId}", transactionHandler.GetTransaction)
			r.Get("/accounts/{accountNumber}/transactions", transactionHandler.ListByAccount)
			r.Get("/users/{userId}/transactions", transactionHandler.ListByUser)
		})
	})

	port := viper.GetString("server.port")

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}

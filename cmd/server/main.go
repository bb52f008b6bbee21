package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/handlers"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/middleware"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

// CustomValidator wires go-playground/validator into echo's Bind/Validate flow
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := services.InitDB(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Firebase is required for staff auth but the public payment routes and
	// the gateway callback still work without it
	authClient := initFirebase()

	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Redis unavailable, running without cache: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	billing := services.NewBillingService(db)
	exoneration := services.NewExonerationService(db)
	midtransService := services.NewMidtransService()
	paymentService := services.NewPaymentService(db, midtransService, billing, cache)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = middleware.CustomErrorHandler
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())

	authHandler := handlers.NewAuthHandler(authClient, db)
	patientHandler := handlers.NewPatientHandler(db)
	catalogHandler := handlers.NewCatalogHandler(db)
	insuranceHandler := handlers.NewInsuranceHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db)
	invoiceHandler := handlers.NewInvoiceHandler(db, billing, exoneration)
	gatewayHandler := handlers.NewGatewayHandler(db, paymentService, midtransService)
	reportHandler := handlers.NewReportHandler(db, cache)
	userHandler := handlers.NewUserHandler(db)
	notifHandler := handlers.NewNotifPreferenceHandler(db)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public: payment links by invoice UUID and the gateway callback
	e.GET("/p/:uuid", gatewayHandler.ShowPublicInvoice)
	e.POST("/p/:uuid/pay", gatewayHandler.InitiatePublicPayment)
	e.GET("/p/:uuid/status", gatewayHandler.CheckPublicPaymentStatus)
	e.POST("/callbacks/midtrans", gatewayHandler.MidtransCallback)

	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)

	// Everything below requires a staff session
	api := e.Group("/api", middleware.RequireAuth(authClient, db))

	api.GET("/me", authHandler.HandleMe)

	api.GET("/patients", patientHandler.ListPatients)
	api.POST("/patients", patientHandler.CreatePatient)
	api.GET("/patients/:id", patientHandler.GetPatient)
	api.PUT("/patients/:id", patientHandler.UpdatePatient)
	api.DELETE("/patients/:id", patientHandler.DeletePatient, middleware.RequireRole(models.UserRoleAdmin))
	api.GET("/patients/:id/notifications", notifHandler.GetPreference)
	api.PUT("/patients/:id/notifications", notifHandler.UpsertPreference)

	api.GET("/services", catalogHandler.ListServices)
	api.POST("/services", catalogHandler.CreateService, middleware.RequireRole(models.UserRoleAdmin, models.UserRoleBilling))
	api.GET("/services/:id", catalogHandler.GetService)
	api.PUT("/services/:id", catalogHandler.UpdateService, middleware.RequireRole(models.UserRoleAdmin, models.UserRoleBilling))
	api.DELETE("/services/:id", catalogHandler.DeactivateService, middleware.RequireRole(models.UserRoleAdmin))

	api.GET("/insurance-plans", insuranceHandler.ListPlans)
	api.POST("/insurance-plans", insuranceHandler.CreatePlan, middleware.RequireRole(models.UserRoleAdmin, models.UserRoleBilling))
	api.GET("/insurance-plans/:id", insuranceHandler.GetPlan)
	api.PUT("/insurance-plans/:id", insuranceHandler.UpdatePlan, middleware.RequireRole(models.UserRoleAdmin, models.UserRoleBilling))
	api.GET("/insurance-plans/:id/rules", insuranceHandler.ListCoverageRules)
	api.PUT("/insurance-plans/:id/rules", insuranceHandler.UpsertCoverageRule, middleware.RequireRole(models.UserRoleAdmin, models.UserRoleBilling))
	api.DELETE("/insurance-plans/:id/rules/:ruleId", insuranceHandler.DeleteCoverageRule, middleware.RequireRole(models.UserRoleAdmin, models.UserRoleBilling))

	api.GET("/appointments", appointmentHandler.ListAppointments)
	api.POST("/appointments", appointmentHandler.CreateAppointment)
	api.GET("/appointments/:id", appointmentHandler.GetAppointment)
	api.PUT("/appointments/:id", appointmentHandler.UpdateAppointment)
	api.PUT("/appointments/:id/status", appointmentHandler.SetAppointmentStatus)

	api.GET("/invoices", invoiceHandler.ListInvoices)
	api.POST("/invoices", invoiceHandler.CreateInvoice)
	api.GET("/invoices/:id", invoiceHandler.GetInvoice)
	api.GET("/invoices/:id/payments", invoiceHandler.ListPayments)
	api.POST("/invoices/:id/payments", invoiceHandler.RecordPayment)
	api.POST("/invoices/:id/recalculate", invoiceHandler.RecalculateCoverage)
	api.POST("/invoices/:id/gateway", gatewayHandler.InitiatePayment)

	// Cancelling and waiving money require billing authority
	billingAuth := middleware.RequireRole(models.UserRoleAdmin, models.UserRoleBilling)
	api.POST("/invoices/:id/cancel", invoiceHandler.CancelInvoice, billingAuth)
	api.POST("/invoices/:id/exonerate", invoiceHandler.Exonerate, billingAuth)
	api.POST("/invoices/:id/exoneration/print", invoiceHandler.MarkExonerationPrinted, billingAuth)

	api.GET("/reports/overview", reportHandler.BillingOverview)
	api.GET("/reports/exonerations", reportHandler.ExonerationReport)
	api.GET("/reports/revenue", reportHandler.RevenueReport)

	api.GET("/users", userHandler.ListUsers, middleware.RequireRole(models.UserRoleAdmin))
	api.POST("/users", userHandler.CreateUser, middleware.RequireRole(models.UserRoleAdmin))
	api.GET("/users/:id", userHandler.GetUser, middleware.RequireRole(models.UserRoleAdmin))
	api.PUT("/users/:id", userHandler.UpdateUser, middleware.RequireRole(models.UserRoleAdmin))
	api.DELETE("/users/:id", userHandler.DeactivateUser, middleware.RequireRole(models.UserRoleAdmin))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
}

func initFirebase() *auth.Client {
	credPath := os.Getenv("FIREBASE_CREDENTIALS")
	if credPath == "" {
		log.Println("FIREBASE_CREDENTIALS not set, staff authentication disabled")
		return nil
	}
	client, err := services.InitFirebase(context.Background(), credPath)
	if err != nil {
		log.Printf("Failed to initialize Firebase: %v", err)
		return nil
	}
	return client
}

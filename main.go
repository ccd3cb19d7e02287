package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"gitub.com/matheusmosca/ton-shop/cart"
	"gitub.com/matheusmosca/ton-shop/catalog"
	"gitub.com/matheusmosca/ton-shop/events"
	"gitub.com/matheusmosca/ton-shop/notifications"
	"gitub.com/matheusmosca/ton-shop/orders"
	"gitub.com/matheusmosca/ton-shop/payments"
	"gitub.com/matheusmosca/ton-shop/telegram"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func main() {
	_ = godotenv.Load()

	// Initialize OpenTelemetry
	tp, err := initTracer()
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	mp, err := initMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down meter: %v", err)
		}
	}()

	// Initialize database
	if err := runMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	dbPool, err := initDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbPool.Close()

	// Kafka is optional: without brokers the emitter is a nil no-op
	var emitter *events.Emitter
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		emitter, err = events.NewEmitter(strings.Split(brokers, ","))
		if err != nil {
			log.Fatalf("Failed to initialize Kafka emitter: %v", err)
		}
		defer emitter.Close()
	}

	adminChatID, err := strconv.ParseInt(mustEnv("ADMIN_CHAT_ID"), 10, 64)
	if err != nil {
		log.Fatalf("ADMIN_CHAT_ID must be a chat id: %v", err)
	}

	// Initialize dependencies
	bot := telegram.NewClient(mustEnv("TELEGRAM_BOT_TOKEN"))
	gateway := payments.NewTONGateway(
		mustEnv("TON_API_URL"),
		mustEnv("TON_API_KEY"),
		getEnv("MERCHANT_WALLET", "UQCbShhQNTKUd3GvKJsBxeiwLHuJghq9r7FQrkC5mSOfLXgy"),
		getEnv("CALLBACK_URL", "http://localhost:8080/api/payment-confirmation"),
	)

	catalogRepo := catalog.NewRepository(dbPool)
	cartRepo := cart.NewRepository(dbPool)
	orderRepo := orders.NewRepository(dbPool)
	paymentRepo := payments.NewRepository(dbPool)

	relay := notifications.NewRelay(bot, orderRepo, adminChatID)
	paymentsUseCase := payments.NewUseCase(paymentRepo, gateway, getEnv("MERCHANT_WALLET", "UQCbShhQNTKUd3GvKJsBxeiwLHuJghq9r7FQrkC5mSOfLXgy"))
	ordersUseCase := orders.NewUseCase(orderRepo, cartRepo, catalogRepo, relay, emitter)
	dispatcher := notifications.NewDispatcher(bot, relay, ordersUseCase, paymentsUseCase, adminChatID)

	tracer := tp.Tracer("ton-shop")
	ordersHandler := orders.NewHandler(ordersUseCase, paymentsUseCase, tracer)
	catalogHandler := catalog.NewHandler(catalogRepo)
	cartHandler := cart.NewHandler(cartRepo, catalogRepo)
	webhookHandler := notifications.NewHandler(dispatcher)

	// Setup Gin router
	r := gin.Default()
	r.Use(otelgin.Middleware("ton-shop"))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(getEnv("CORS_ORIGINS", "http://localhost:8080"), ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
		MaxAge:           time.Hour,
	}))

	ordersHandler.RegisterRoutes(r)
	catalogHandler.RegisterRoutes(r)
	cartHandler.RegisterRoutes(r)
	webhookHandler.RegisterRoutes(r)

	// Bot event dispatcher runs alongside the HTTP server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go dispatcher.Run(ctx)

	port := getEnv("PORT", "8080")
	log.Printf("🚀 TON Shop listening on port %s", port)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
}

func dsn() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DATABASE_USER", "root"),
		getEnv("DATABASE_PASSWORD", "pass"),
		getEnv("DATABASE_HOST", "localhost"),
		getEnv("DATABASE_PORT", "5432"),
		getEnv("DATABASE_NAME", "ton_shop"),
	)
}

func runMigrations() error {
	db, err := sql.Open("postgres", dsn())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Println("✅ Migrations applied")
	return nil
}

func initDB() (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Configure connection pool
	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			log.Println("✅ Connected to database with connection pool")
			return pool, nil
		}
		log.Printf("⏳ Waiting for database... (%d/30)", i+1)
		time.Sleep(1 * time.Second)
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after 30 attempts")
}

func initTracer() (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	otlpEndpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(otlpEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(getEnv("SERVICE_NAME", "ton-shop")),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	otel.SetTracerProvider(tp)

	return tp, nil
}

func initMetrics() (*sdkmetric.MeterProvider, error) {
	ctx := context.Background()

	otlpEndpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(otlpEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(getEnv("SERVICE_NAME", "ton-shop")),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	return mp, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s is required", key)
	}
	return value
}

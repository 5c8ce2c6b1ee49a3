package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mensa/internal/api"
	"mensa/internal/cart"
	"mensa/internal/catalog"
	"mensa/internal/database"
	"mensa/internal/monitoring"
	"mensa/internal/orders"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

var (
	port        = flag.Int("port", 8080, "API server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	config, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if config.Server.Port == 0 {
		config.Server.Port = *port
	}
	if config.Metrics.Port == 0 {
		config.Metrics.Port = *metricsPort
	}

	db, err := database.Open(config.Database.Driver, config.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.Seed(db); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	cat := catalog.New(db)
	carts := cart.NewStore(db, cat, config.Ordering.MaxLineQuantity)
	factory := orders.NewFactory(carts, config.Ordering.ExpeditedSurcharge)
	lifecycle := orders.NewManager(db,
		time.Duration(config.Ordering.GraceMinutes)*time.Minute,
		nil,
		config.Ordering.PageSize)

	metrics := monitoring.NewMetrics()
	monitor := monitoring.NewMonitor()

	server := api.NewServer(carts, factory, lifecycle, cat, metrics, monitor, []byte(config.Auth.Secret))

	if config.Metrics.Enabled {
		go startMetricsServer(config.Metrics.Port, metrics)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Server.Port),
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting API server on port %d", config.Server.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file %s not found, using defaults", path)
			return config, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

func defaultConfig() *Config {
	config := &Config{}
	config.Database.Driver = "sqlite3"
	config.Database.DSN = "mensa.db"
	config.Auth.Secret = "dev-secret-change-me"
	config.Metrics.Enabled = true
	config.Ordering.ExpeditedSurcharge = orders.DefaultExpeditedSurcharge
	config.Ordering.GraceMinutes = 30
	config.Ordering.PageSize = orders.DefaultPageSize
	config.Ordering.MaxLineQuantity = cart.DefaultMaxLineQuantity
	return config
}

func startMetricsServer(port int, metrics *monitoring.Metrics) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(metrics.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Auth struct {
		Secret string `yaml:"secret"`
	} `yaml:"auth"`
	Ordering struct {
		ExpeditedSurcharge float64 `yaml:"expedited_surcharge"`
		GraceMinutes       int     `yaml:"grace_minutes"`
		PageSize           int     `yaml:"page_size"`
		MaxLineQuantity    int     `yaml:"max_line_quantity"`
	} `yaml:"ordering"`
}

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"coupon-ui/config"
	"coupon-ui/database"
	"coupon-ui/logger"
	"coupon-ui/web"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/cobra"
)

func initLogging() {
	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
}

// openStore opens the sqlite store and applies the schema migrations. A
// migration failure is fatal: serving requests against a partially migrated
// schema would break tenant isolation.
func openStore() *database.Database {
	db := database.New(config.GetDBPath())
	if err := db.Open(); err != nil {
		log.Fatal("opening store:", err)
	}
	return db
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogging()
	defer logger.CloseLogger()

	db := openStore()
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warning("closing store:", err)
		}
	}()

	server := web.NewServer(db)
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	if err := server.Stop(); err != nil {
		logger.Warning("stopping web server:", err)
	}
}

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}

	rootCmd := &cobra.Command{
		Use: "coupon-ui",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema migrations and exit",
		Run: func(cmd *cobra.Command, args []string) {
			initLogging()
			defer logger.CloseLogger()
			db := openStore()
			if err := db.Close(); err != nil {
				logger.Warning("closing store:", err)
			}
			logger.Info("schema is up to date")
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			log.Printf("%v %v", config.GetName(), config.GetVersion())
		},
	}

	rootCmd.AddCommand(migrateCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

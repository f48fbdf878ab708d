package main

import (
	"log"
	"os"

	"github.com/Saviken/TNH-Performance-Target/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pms",
		Short:         "TNH performance management back office",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	return cmd
}

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(config.GetEnvOrDefault("PMS_ENV_FILE", ".env")); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	if err := newRootCmd().Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

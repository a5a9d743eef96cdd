// cmd/main.go
package main

import (
	"fmt"
	"noxa-api/app"
	"noxa-api/config"
	"noxa-api/db"
	"noxa-api/logger"
	"noxa-api/service"
	"os"

	"github.com/spf13/cobra"
)

// @title           Noxa API
// @version         1.0
// @description     Session lifecycle and notification fanout for the Noxa productivity app.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:4000
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "noxa-api",
		Short:         "Noxa session and notification server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yml")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(configPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the postgres schema",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(db.Up), string(db.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Init()
			if err := config.LoadConfig(configPath); err != nil {
				return err
			}
			dir := db.Up
			if len(args) == 1 {
				dir = db.Direction(args[0])
			}
			return db.RunMigrations(db.DSN(config.AppConfig), dir)
		},
	}

	vapidKeys := &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for web push",
		RunE: func(cmd *cobra.Command, args []string) error {
			public, private, err := service.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PUSH_VAPID_PUBLIC_KEY=%s\nPUSH_VAPID_PRIVATE_KEY=%s\n", public, private)
			return nil
		},
	}

	root.AddCommand(serve, migrateCmd, vapidKeys)
	return root
}

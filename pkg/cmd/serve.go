package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/app"
	"github.com/yeisme/filevault/pkg/log"
)

var (
	serveCmd = &cobra.Command{
		Use:     "serve",
		Short:   "start the filevault server (HTTP API + check-in worker pool)",
		Aliases: []string{"server", "run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app.NewApp(configPath)

			// SIGINT/SIGTERM 触发清理
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				<-sigCh
				log.Logger().Info().Msg("shutting down")

				if err := a.Shutdown(); err != nil {
					log.Logger().Warn().Err(err).Msg("shutdown error")
				}

				os.Exit(0)
			}()

			return a.Run()
		},
	}
)

// registerServeCommands 注册服务启动命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}

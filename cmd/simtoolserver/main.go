// Command simtoolserver hosts the HTTP/websocket tool-server so an
// out-of-process planner can load scenarios and drive them interactively.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/orangedot/taskbotsim/internal/toolserver"
)

var (
	addr     string
	jsonLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "simtoolserver",
	Short: "Serve the robot task-allocation tool-server over HTTP",
	RunE:  serve,
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	rootCmd.Flags().BoolVar(&jsonLogs, "json-logs", true, "emit structured JSON logs instead of a console-pretty writer")
}

func setupLogger() zerolog.Logger {
	if jsonLogs {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func serve(cmd *cobra.Command, args []string) error {
	logger := setupLogger()
	srv := toolserver.New(logger)

	logger.Info().Str("addr", addr).Msg("tool-server listening")
	return srv.Router().Run(addr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garagon/yarara/internal/config"
	"github.com/garagon/yarara/internal/webui"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Serve exposes the analysis engine on an HTTP endpoint for editor
and dashboard integrations.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8417", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	server := webui.New(buildEngine(cfg))
	fmt.Fprintf(os.Stderr, "listening on %s\n", flagAddr)
	return server.ListenAndServe(flagAddr)
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/medpages/internal/logging"
)

// rootCmd represents the base command for the medpages application
var rootCmd = &cobra.Command{
	Use:   "medpages",
	Short: "Medical workspace toolkit for AI agents",
	Long: `medpages lets an AI agent read lab pages from and write medicine pages to
a Notion-style workspace, and forwards questions to a flow server.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (default)
  - A standalone CLI tool (lab, create, ask)

Credentials are read from MEDICAL_TOKEN and MEDICAL_DATABASE_ID.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(debugMode)
	},
}

var (
	// version will be set by main
	version = "dev"

	debugMode bool
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "medpages version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLabCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}

package main

import (
	"os"
	"runtime/debug"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/brizzai/auto-eda/internal/auth"
	"github.com/brizzai/auto-eda/internal/config"
	"github.com/brizzai/auto-eda/internal/dataset"
	"github.com/brizzai/auto-eda/internal/logger"
	"github.com/brizzai/auto-eda/internal/metrics"
	"github.com/brizzai/auto-eda/internal/session"
	"github.com/brizzai/auto-eda/internal/web"
)

func main() {
	Execute()
}

// rootCmd represents the base command; without a subcommand it serves
var rootCmd = &cobra.Command{
	Use:   "auto-eda",
	Short: "A dashboard for exploratory data analysis behind Google sign-in",
	Long: `auto-eda serves a small web dashboard. Users sign in with their Google account,
pick a sample dataset or upload a CSV file and get an exploratory data analysis
report rendered in the page.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		pterm.Info.Println(config.GetVersionInfo())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

// runServe loads the config, sets up logging and runs the application until
// it receives a termination signal
func runServe(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			pterm.Error.Printf("\nCaught panic: %v\n", r)
			pterm.Error.Printf("%s\n", debug.Stack())
			os.Exit(2)
		}
	}()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		pterm.Error.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(&cfg.Logging); err != nil {
		pterm.Error.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app := fx.New(appOptions(cfg))
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

// appOptions assembles the application graph
func appOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.WithLogger(logger.FxEventLogger),
		logger.Module,
		metrics.Module,
		session.Module,
		auth.Module,
		dataset.Module,
		web.Module,
	)
}

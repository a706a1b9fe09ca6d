package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qbank-admin/pkg/client"
	"qbank-admin/pkg/commit"
	"qbank-admin/pkg/readcache"
)

var (
	baseURL string
	token   string
	noColor bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "qbankctl",
	Short: "Stage, review and commit question bank imports",
	Long: `Stage, review and commit question bank imports.

Examples:
  qbankctl questions import ./chapter1.docx --subject 7 --labels exam --edit
  qbankctl answers import ./key.docx --subject 7 --select VALID
  qbankctl files list --subject 7 --page 2`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		printWarning(os.Stderr, "could not read .env: %v", err)
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", envOr("QBANK_URL", "http://localhost:3000"), "admin API base URL (QBANK_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("QBANK_TOKEN"), "bearer token (QBANK_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and cache activity")

	rootCmd.AddCommand(questionsCmd, answersCmd, filesCmd, shellCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		printError(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// workspace is the client-side state shared by the commands of one run.
type workspace struct {
	client      *client.Client
	nav         *readcache.Navigator
	coordinator *commit.Coordinator
	logger      *zap.Logger
}

func newWorkspace(cmd *cobra.Command) *workspace {
	logger := zap.NewNop()
	if verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}

	nav := readcache.NewNavigator()
	c := client.New(baseURL,
		client.WithToken(token),
		client.WithEpoch(nav),
		client.WithLogger(logger),
	)
	bar := newProgressBar(cmd.ErrOrStderr())
	coordinator := commit.NewCoordinator(c, c,
		commit.WithInvalidator(c.FileCache()),
		commit.WithLogger(logger),
		commit.OnProgress(bar.render),
	)
	return &workspace{client: c, nav: nav, coordinator: coordinator, logger: logger}
}

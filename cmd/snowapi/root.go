package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vjain20/gosnowapi/internal/config"
	"github.com/vjain20/gosnowapi/internal/logging"
	"github.com/vjain20/gosnowapi/snowapi"
)

var (
	configPath     string
	connectionName string
	logLevel       string
	logFormat      string
	outputFormat   string
	askPassphrase  bool
	traceRequests  bool
)

var rootCmd = &cobra.Command{
	Use:           "snowapi",
	Short:         "Run SQL statements through the SQL API",
	Long:          `Submits statements, polls and cancels them, using a connection from connections.toml.`,
	Version:       snowapi.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !traceRequests {
			return nil
		}
		shutdown, err := installTracer(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to install tracer: %w", err)
		}
		cobra.OnFinalize(func() { shutdown(cmd.Context()) })
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate("snowapi version {{.Version}}\n")
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to connections.toml (default $SNOWAPI_HOME/connections.toml)")
	flags.StringVarP(&connectionName, "connection", "c", "", "connection name (default $SNOWAPI_CONNECTION or \"default\")")
	flags.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	flags.StringVarP(&outputFormat, "output", "o", "table", "result format: table or json")
	flags.BoolVar(&askPassphrase, "ask-passphrase", false, "prompt for the private key passphrase")
	flags.BoolVar(&traceRequests, "trace", false, "print request spans to stderr")
}

func newClient(cmd *cobra.Command) (*snowapi.Client, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	conn, err := config.Load(path, config.ConnectionName(connectionName))
	if err != nil {
		return nil, err
	}
	cfg, err := conn.ClientConfig()
	if err != nil {
		return nil, err
	}
	if askPassphrase && cfg.Token == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Private key passphrase: ")
		passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return nil, fmt.Errorf("failed to read passphrase: %w", err)
		}
		cfg.PrivateKeyPassphrase = passphrase
	}
	cfg.Logger = logging.New(cmd.ErrOrStderr(), logLevel, logFormat)
	return snowapi.NewClient(cfg)
}

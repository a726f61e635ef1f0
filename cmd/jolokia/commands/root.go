// Package commands provides the CLI commands for the Jolokia client.
package commands

import (
	"fmt"
	"os"

	"github.com/kroksys/jolokia"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version information set at build time
var Version = "0.1.0"

const (
	envUsername = "JOLOKIA_USERNAME"
	envPassword = "JOLOKIA_PASSWORD"
)

// global flags shared by every operation
type rootOptions struct {
	username string
	password string
	logLevel string
}

// NewRootCommand builds the command tree. Every operation is a subcommand
// taking the agent base URL as its only argument.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "jolokia",
		Short: "Jolokia JMX-over-HTTP client",
		Long: `Sends a single Jolokia operation to an agent and prints the JSON response.

Jolokia is a JMX-HTTP bridge. See https://jolokia.org/reference/html/protocol.html
for the protocol reference.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.username, "username", "U", os.Getenv(envUsername), "username for HTTP Basic authentication (or "+envUsername+")")
	root.PersistentFlags().StringVarP(&opts.password, "password", "P", os.Getenv(envPassword), "password for HTTP Basic authentication (or "+envPassword+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	root.SetVersionTemplate(fmt.Sprintf("jolokia %s\n", Version))

	root.AddCommand(
		newReadCommand(opts),
		newWriteCommand(opts),
		newExecCommand(opts),
		newSearchCommand(opts),
		newListCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

// Execute runs the root command and reports errors on stderr.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jolokia error:", err)
		return err
	}
	return nil
}

func (o *rootOptions) newLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(o.logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", o.logLevel, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func (o *rootOptions) newClient(baseURL string, logger *zap.Logger) (*jolokia.Client, error) {
	clientOpts := []jolokia.Option{jolokia.WithLogger(logger)}
	if o.username != "" {
		clientOpts = append(clientOpts, jolokia.WithBasicAuth(o.username, o.password))
	}
	return jolokia.NewClient(baseURL, clientOpts...)
}

package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kroksys/jolokia/protocol"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// per-operation flags
type requestFlags struct {
	mbean         string
	attribute     []string
	path          string
	value         string
	operationName string
	arguments     []string
}

func (f *requestFlags) addMBean(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mbean, "mbean", "m", "", "MBean name")
	cmd.MarkFlagRequired("mbean")
}

func (f *requestFlags) addAttribute(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.attribute, "attribute", "a", nil, "attribute name (repeatable for read)")
}

func (f *requestFlags) addPath(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "path", "p", "", "inner path for the operation")
}

func (f *requestFlags) options() []protocol.RequestOption {
	var opts []protocol.RequestOption
	if f.mbean != "" {
		opts = append(opts, protocol.WithMBean(f.mbean))
	}
	if len(f.attribute) > 0 {
		opts = append(opts, protocol.WithAttribute(f.attribute...))
	}
	if f.path != "" {
		opts = append(opts, protocol.WithPath(f.path))
	}
	if f.value != "" {
		opts = append(opts, protocol.WithValue(f.value))
	}
	if f.operationName != "" {
		args := make([]interface{}, len(f.arguments))
		for i, a := range f.arguments {
			args[i] = a
		}
		opts = append(opts, protocol.WithOperation(f.operationName, args...))
	}
	return opts
}

// Builds a subcommand sending one request of kind op.
func newOperationCommand(opts *rootOptions, op protocol.Operation, short, long string, flags *requestFlags) *cobra.Command {
	return &cobra.Command{
		Use:   string(op) + " <base_url>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := protocol.NewRequest(op, flags.options()...)
			if err != nil {
				return err
			}
			logger, err := opts.newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			client, err := opts.newClient(args[0], logger)
			if err != nil {
				return err
			}
			body, err := client.FetchJSON(cmd.Context(), req)
			if err != nil {
				logger.Debug("Request failed", zap.String("operation", string(op)), zap.Error(err))
				return err
			}
			return printJSON(cmd, body)
		},
	}
}

func printJSON(cmd *cobra.Command, body []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return fmt.Errorf("agent returned invalid JSON: %w", err)
	}
	out.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(out.Bytes())
	return err
}

func newReadCommand(opts *rootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := newOperationCommand(opts, protocol.Read, "read MBean attributes",
		"Reads one, several or all attributes of an MBean, optionally descending into an inner path.\n\n"+
			"See https://jolokia.org/reference/html/protocol.html#read for more information.", flags)
	flags.addMBean(cmd)
	flags.addAttribute(cmd)
	flags.addPath(cmd)
	return cmd
}

func newWriteCommand(opts *rootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := newOperationCommand(opts, protocol.Write, "write value to MBean attribute",
		"Writes an attribute. The old value is returned.\n\n"+
			"See https://jolokia.org/reference/html/protocol.html#write for more information.", flags)
	flags.addMBean(cmd)
	flags.addAttribute(cmd)
	flags.addPath(cmd)
	cmd.Flags().StringVarP(&flags.value, "value", "v", "", "value to write")
	cmd.MarkFlagRequired("attribute")
	cmd.MarkFlagRequired("value")
	return cmd
}

func newExecCommand(opts *rootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := newOperationCommand(opts, protocol.Exec, "execute JMX operation",
		"Executes an operation exposed by an MBean with optional arguments.\n\n"+
			"See https://jolokia.org/reference/html/protocol.html#exec for more information.", flags)
	flags.addMBean(cmd)
	cmd.Flags().StringVarP(&flags.operationName, "operation-name", "o", "", "name of the operation to execute")
	cmd.Flags().StringArrayVarP(&flags.arguments, "arguments", "a", nil, "operation argument (repeatable)")
	cmd.MarkFlagRequired("operation-name")
	return cmd
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := newOperationCommand(opts, protocol.Search, "query for MBeans with a given pattern",
		"Searches every MBeanServer of the agent for MBeans matching a pattern.\n\n"+
			"See https://jolokia.org/reference/html/protocol.html#search for more information.", flags)
	flags.addMBean(cmd)
	return cmd
}

func newListCommand(opts *rootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := newOperationCommand(opts, protocol.List, "gather information about accessible MBeans",
		"Lists MBeans with their attributes, operations and notifications.\n\n"+
			"See https://jolokia.org/reference/html/protocol.html#list for more information.", flags)
	flags.addPath(cmd)
	return cmd
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	flags := &requestFlags{}
	return newOperationCommand(opts, protocol.Version, "get Jolokia agent and protocol version information",
		"Returns the version of the Jolokia agent along with the protocol version.\n\n"+
			"See https://jolokia.org/reference/html/protocol.html#version for more information.", flags)
}

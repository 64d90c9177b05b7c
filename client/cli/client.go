package cli

import (
	"github.com/spf13/cobra"

	"github.com/twitter/saturation/common/stats"
)

// Client interface that includes CLI handling
type CLIClient interface {
	Exec() error
}

// SimpleClient includes base fields required for implementing commands
type SimpleClient struct {
	RootCmd  *cobra.Command
	LogLevel   string
	PrintStats bool
	Stat       stats.StatsReceiver
}

// Command interface used to run client commands
type Cmd interface {
	RegisterFlags() *cobra.Command
	Run(cl *SimpleClient, cmd *cobra.Command, args []string) error
}

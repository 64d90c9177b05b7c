// Package cli implements satdemo, a command line tool that sizes synthetic
// workloads against a cluster's memory.
package cli

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/saturation/common/stats"
)

func (c *SimpleClient) Exec() error {
	return c.RootCmd.Execute()
}

func NewSimpleCLIClient() *SimpleClient {
	c := &SimpleClient{Stat: stats.NilStatsReceiver()}

	c.RootCmd = &cobra.Command{
		Use:                "satdemo",
		Short:              "satdemo sizes workloads for worker saturation comparisons",
		PersistentPreRunE:  c.Init,
		SilenceUsage:       true,
		Run:                func(*cobra.Command, []string) {},
		PersistentPostRunE: c.Close,
	}
	c.RootCmd.PersistentFlags().StringVar(&c.LogLevel, "log_level", "info", "Log everything at this level and above (error|info|debug)")
	c.RootCmd.PersistentFlags().BoolVar(&c.PrintStats, "stats", false, "Print collected metrics as JSON after the command runs")

	c.addCmd(&bytesCmd{})
	c.addCmd(&timeseriesCmd{})
	c.addCmd(&shapeCmd{})
	c.addCmd(&clusterMemoryCmd{})
	c.addCmd(&planCmd{})

	return c
}

// Can only be called from cobra command run or hook
func (c *SimpleClient) Init(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Error(err)
		return err
	}
	log.SetLevel(level)

	if c.PrintStats {
		c.Stat = stats.DefaultStatsReceiver().Precision(time.Millisecond)
	}
	return nil
}

// Needs cobra parameters for use from rootCmd
func (c *SimpleClient) Close(cmd *cobra.Command, args []string) error {
	if c.PrintStats {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", c.Stat.Render(true))
	}
	return nil
}

func (c *SimpleClient) addCmd(cmd Cmd) {
	cobraCmd := cmd.RegisterFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.Run(c, innerCmd, args)
	}
	c.RootCmd.AddCommand(cobraCmd)
}

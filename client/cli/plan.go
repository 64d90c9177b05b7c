package cli

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/saturation/config"
	"github.com/twitter/saturation/workload"
)

type planCmd struct {
	configName  string
	configFile  string
	printAsJson bool
}

func (c *planCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "plan",
		Short: "Size every configured workload against the cluster's memory",
		Long: `Loads a named configuration, applies --config_file and SATDEMO_*
environment overrides, then sizes each workload and prints the scheduler
setting of each side of the comparison.`,
		Args: cobra.NoArgs,
	}
	r.Flags().StringVar(&c.configName, "config", "default", "Name of a built-in configuration")
	r.Flags().StringVar(&c.configFile, "config_file", "", "YAML, JSON or TOML file overriding the configuration")
	r.Flags().BoolVar(&c.printAsJson, "json", false, "Print the plan as JSON")
	return r
}

func (c *planCmd) Run(cl *SimpleClient, cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configName, c.configFile)
	if err != nil {
		return err
	}
	log.Info("Using config ", cfg)

	f, err := workload.MakeFetcher(cfg.Cluster)
	if err != nil {
		return err
	}
	plan, err := workload.NewBuilder(cl.Stat).Build(context.Background(), cfg, f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.printAsJson {
		asJson, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("Error converting plan to JSON: %v", err)
		}
		fmt.Fprintf(out, "%s\n", asJson)
		return nil
	}
	fmt.Fprint(out, plan)
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/saturation/common/bytesize"
)

type bytesCmd struct{}

func (c *bytesCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "bytes <size>...",
		Short: "Parse human readable byte sizes",
		Args:  cobra.MinimumNArgs(1),
	}
}

func (c *bytesCmd) Run(cl *SimpleClient, cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		b, err := bytesize.Parse(arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", arg, b, b)
	}
	return nil
}

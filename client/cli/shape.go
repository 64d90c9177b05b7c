package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/saturation/array/shape"
	"github.com/twitter/saturation/common/bytesize"
)

type shapeCmd struct {
	target      string
	dtype       string
	maxError    float64
	printAsJson bool
}

func (c *shapeCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "shape <dim>...",
		Short: "Solve an array shape template for a target number of bytes",
		Long: `Each dim is a fixed extent (100), a byte size whose element count
becomes the extent (10mb), or a scaled dim (x, 2x, 0.5x).`,
		Args: cobra.MinimumNArgs(1),
	}
	r.Flags().StringVar(&c.target, "target", "", "Target array size, e.g. 1gb")
	r.Flags().StringVar(&c.dtype, "dtype", "float64", "Element type, e.g. float32 or i8")
	r.Flags().Float64Var(&c.maxError, "max_error", shape.DefaultMaxError, "Maximum tolerated relative error")
	r.Flags().BoolVar(&c.printAsJson, "json", false, "Print the result as JSON")
	return r
}

func (c *shapeCmd) Run(cl *SimpleClient, cmd *cobra.Command, args []string) error {
	if c.target == "" {
		return fmt.Errorf("--target is required")
	}
	target, err := bytesize.Parse(c.target)
	if err != nil {
		return err
	}
	template, err := shape.ParseTemplate(args)
	if err != nil {
		return err
	}
	dtype, err := shape.ParseDType(c.dtype)
	if err != nil {
		return err
	}

	s, err := shape.NewSolver(c.maxError, cl.Stat).Solve(target, template, dtype)
	if err != nil {
		return err
	}
	nbytes := s.NBytes(dtype)
	relError := float64(nbytes-target.Int64()) / float64(nbytes)

	out := cmd.OutOrStdout()
	if c.printAsJson {
		asJson, err := json.Marshal(map[string]interface{}{
			"template":  template.String(),
			"dtype":     dtype.Name,
			"shape":     s,
			"nbytes":    nbytes,
			"rel_error": relError,
		})
		if err != nil {
			return fmt.Errorf("Error converting shape to JSON: %v", err)
		}
		fmt.Fprintf(out, "%s\n", asJson)
		return nil
	}
	fmt.Fprintf(out, "%s %s: %s (%d bytes, relative error %.4f)\n", s, dtype, bytesize.ByteSize(nbytes), nbytes, relError)
	return nil
}

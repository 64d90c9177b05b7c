package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/saturation/common"
	"github.com/twitter/saturation/common/bytesize"
	"github.com/twitter/saturation/dataset/timeseries"
)

type timeseriesCmd struct {
	target        string
	start         string
	freq          string
	partitionFreq string
	dtypes        string
	seed          int64
	params        []string
	preview       int
	printAsJson   bool
}

func (c *timeseriesCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "timeseries",
		Short: "Size a random timeseries to a target number of bytes",
		Args:  cobra.NoArgs,
	}
	r.Flags().StringVar(&c.target, "target", "", "Target in-memory size, e.g. 10gb")
	r.Flags().StringVar(&c.start, "start", timeseries.DefaultStart, "Timestamp of the first row")
	r.Flags().StringVar(&c.freq, "freq", timeseries.DefaultFreq, "Time between rows, e.g. 1s or 10min")
	r.Flags().StringVar(&c.partitionFreq, "partition_freq", timeseries.DefaultPartitionFreq, "Time covered by each partition")
	r.Flags().StringVar(&c.dtypes, "dtypes", "", "Columns as name=type pairs, e.g. name=string,x=float (default name,id,x,y)")
	r.Flags().Int64Var(&c.seed, "seed", 0, "Random seed (default: time based)")
	r.Flags().StringSliceVar(&c.params, "param", nil, "Column parameters as <column>_<lam|low|high|nunique>=value")
	r.Flags().IntVar(&c.preview, "preview", 0, "Print this many rows of the first partition")
	r.Flags().BoolVar(&c.printAsJson, "json", false, "Print the result as JSON")
	return r
}

func (c *timeseriesCmd) Run(cl *SimpleClient, cmd *cobra.Command, args []string) error {
	if c.target == "" {
		return fmt.Errorf("--target is required")
	}
	p := timeseries.Params{
		Start:         c.start,
		Freq:          c.freq,
		PartitionFreq: c.partitionFreq,
	}
	if c.dtypes != "" {
		dtypes, err := timeseries.ParseDTypes(common.SplitCommaSepToMap(c.dtypes))
		if err != nil {
			return err
		}
		p.DTypes = dtypes
	}
	if cmd.Flags().Changed("seed") {
		seed := c.seed
		p.Seed = &seed
	}
	kwargs, err := parseParams(c.params)
	if err != nil {
		return err
	}
	p.Kwargs = kwargs

	d, err := timeseries.NewGenerator(cl.Stat).OfSize(c.target, p)
	if err != nil {
		return err
	}
	log.Info("Sized timeseries ", d)

	out := cmd.OutOrStdout()
	if c.printAsJson {
		asJson, err := json.Marshal(map[string]interface{}{
			"start":           d.Start,
			"end":             d.End,
			"freq":            d.Freq.String(),
			"partition_freq":  d.PartitionFreq.String(),
			"npartitions":     d.NPartitions(),
			"partition_bytes": d.PartitionBytes,
			"seed":            d.Seed,
		})
		if err != nil {
			return fmt.Errorf("Error converting timeseries to JSON: %v", err)
		}
		fmt.Fprintf(out, "%s\n", asJson)
	} else {
		fmt.Fprintf(out, "start:          %s\n", d.Start.Format(time.RFC3339))
		fmt.Fprintf(out, "end:            %s\n", d.End.Format(time.RFC3339))
		fmt.Fprintf(out, "npartitions:    %d\n", d.NPartitions())
		fmt.Fprintf(out, "partition size: %s\n", bytesize.ByteSize(d.PartitionBytes))
		fmt.Fprintf(out, "total size:     %s\n", bytesize.ByteSize(d.EstimatedBytes()))
		fmt.Fprintf(out, "seed:           %d\n", d.Seed)
	}
	if c.preview > 0 {
		return printRows(cmd, d, c.preview)
	}
	return nil
}

// parseParams turns ["x_low=0", "id_lam=50"] into generator kwargs.
func parseParams(params []string) (map[string]float64, error) {
	kwargs := map[string]float64{}
	for _, p := range params {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("parameter %q is not key=value", p)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %v", p, err)
		}
		kwargs[strings.TrimSpace(kv[0])] = v
	}
	return kwargs, nil
}

func printRows(cmd *cobra.Command, d *timeseries.Descriptor, n int) error {
	part, err := d.Partition(0)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	header := []string{"timestamp"}
	for _, col := range part.Columns {
		header = append(header, col.Name)
	}
	fmt.Fprintln(out, strings.Join(header, "\t"))
	for i := 0; i < n && i < part.Len(); i++ {
		row := []string{time.Unix(0, part.Index[i]).UTC().Format(time.RFC3339)}
		for _, col := range part.Columns {
			switch col.Type {
			case timeseries.String:
				row = append(row, col.Strings[i])
			case timeseries.Int:
				row = append(row, strconv.FormatInt(col.Ints[i], 10))
			case timeseries.Float:
				row = append(row, strconv.FormatFloat(col.Floats[i], 'f', 6, 64))
			}
		}
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
	return nil
}

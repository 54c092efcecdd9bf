package cli

import (
	"bufio"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/transitmap/pkg/errors"
	"github.com/matzehuels/transitmap/pkg/graph"
	"github.com/matzehuels/transitmap/pkg/pipeline"
)

// modelCommand creates the model command, which writes the optimization
// model for a graph without solving it.
func (c *CLI) modelCommand() *cobra.Command {
	var (
		output       string
		settingsPath string
	)

	cmd := &cobra.Command{
		Use:   "model [graph.json]",
		Short: "Write the optimization model for a graph",
		Long: `Write the optimization model for a graph in CPLEX LP format and stop.

The model is the exact text the 'layout' command hands to the solver. It is
written to stdout unless -o is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runModel(args[0], output, settingsPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "TOML settings file")

	return cmd
}

func (c *CLI) runModel(input, output, settingsPath string, stdout io.Writer) (err error) {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}
	settings, err := loadSettings(settingsPath)
	if err != nil {
		return err
	}

	w := stdout
	if output != "" {
		var f *os.File
		f, err = os.Create(output)
		if err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "create %s", output)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = errors.Wrap(errors.ErrCodeIO, cerr, "close %s", output)
			}
		}()
		w = f
	}

	bw := bufio.NewWriter(w)
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	if err := runner.WriteModel(g, pipeline.Options{Settings: settings}, bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write model")
	}

	if output != "" {
		c.Logger.Info("wrote model", "path", output)
	}
	return nil
}

package cli

import (
	"maps"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/transitmap/pkg/errors"
	"github.com/matzehuels/transitmap/pkg/extract"
	"github.com/matzehuels/transitmap/pkg/graph"
)

// extractCommand creates the extract command for building network graphs.
func (c *CLI) extractCommand() *cobra.Command {
	var (
		output    string
		palette   string
		tolerance float64
		silent    bool
	)

	cmd := &cobra.Command{
		Use:   "extract [network.geojson]",
		Short: "Build a network graph from GeoJSON",
		Long: `Build a network graph from a GeoJSON FeatureCollection.

Point features become stations (station_id, station_label properties) and
LineString features become edges between the stations at their endpoints
(line, time properties). Segments that share endpoints are merged and keep
every line running on them.

The output is a graph.json file that the 'model' and 'layout' commands read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtract(args[0], output, palette, tolerance, newPrinter(silent))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.json)")
	cmd.Flags().StringVar(&palette, "palette", "", "TOML file mapping line names to colors")
	cmd.Flags().Float64Var(&tolerance, "tolerance", extract.DefaultTolerance, "endpoint matching tolerance")
	cmd.Flags().BoolVar(&silent, "silent", false, "suppress status output")

	return cmd
}

// runExtract reads the GeoJSON input and writes the extracted graph.
func (c *CLI) runExtract(input, output, palettePath string, tolerance float64, out printer) error {
	prog := newProgress(c.Logger)

	palette, err := loadPalette(palettePath)
	if err != nil {
		return err
	}

	g, err := extract.ExtractFile(input,
		extract.WithTolerance(tolerance),
		extract.WithPalette(palette),
		extract.WithLogger(c.Logger),
	)
	if err != nil {
		return err
	}
	prog.done("Extracted network")

	path := outputPath(input, output, ".graph.json")
	if err := graph.WriteGraphFile(g, path); err != nil {
		return err
	}

	out.success("Graph extracted")
	out.file(path)
	out.stats(g.NodeCount(), g.EdgeCount(), len(g.Lines), nil)
	out.nextStep("Lay out", appName+" layout "+path)
	return nil
}

// loadPalette merges the colors in a TOML file over the default palette.
//
//	U1 = "#55a822"
//	S3 = "#e30613"
func loadPalette(path string) (extract.Palette, error) {
	if path == "" {
		return extract.DefaultPalette, nil
	}
	var colors map[string]string
	if _, err := toml.DecodeFile(path, &colors); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read palette %s", path)
	}
	palette := maps.Clone(extract.DefaultPalette)
	maps.Copy(palette, colors)
	return palette, nil
}

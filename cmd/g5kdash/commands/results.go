package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/numpex/exa-di-g5k-dashboard/internal/render"
)

// ResultsCommand holds configuration and dependencies for the results command.
type ResultsCommand struct {
	output  string
	noColor bool

	builder pipelineBuilder
}

// NewResultsCommand creates the results command.
func NewResultsCommand() *cobra.Command {
	return newResultsCommandWithDeps(buildPipeline)
}

func newResultsCommandWithDeps(builder pipelineBuilder) *cobra.Command {
	rc := &ResultsCommand{builder: builder}

	cmd := &cobra.Command{
		Use:   "results <application>",
		Short: "Show the current results of one application",
		Long: "Show the latest benchmark record of every configuration file of one application,\n" +
			"one table row per configuration.",
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.output, "output", "o", string(render.FormatTable), "Output format: table, json, yaml")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (rc *ResultsCommand) run(cmd *cobra.Command, args []string) error {
	app := args[0]

	format, err := render.ParseFormat(rc.output)
	if err != nil {
		return err
	}

	pl, err := rc.builder(pipelineOptions{
		configPath: stringFlag(cmd, "config"),
		logger:     cliLogger(cmd),
	})
	if err != nil {
		return err
	}

	records, err := pl.records.LoadCurrent(cmd.Context(), app)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	switch format {
	case render.FormatJSON:
		return render.WriteJSON(out, records)
	case render.FormatYAML:
		return render.WriteYAML(out, records)
	default:
		if len(records) == 0 {
			fmt.Fprintf(out, "No results to show for %q.\n", app)

			return nil
		}

		return render.NewTableWriter(!rc.noColor).WriteRecords(out, records)
	}
}

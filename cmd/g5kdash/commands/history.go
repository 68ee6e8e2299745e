package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/numpex/exa-di-g5k-dashboard/internal/render"
)

// HistoryCommand holds configuration and dependencies for the history command.
type HistoryCommand struct {
	output      string
	noColor     bool
	concurrency int

	builder pipelineBuilder
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	return newHistoryCommandWithDeps(buildPipeline)
}

func newHistoryCommandWithDeps(builder pipelineBuilder) *cobra.Command {
	hc := &HistoryCommand{builder: builder}

	cmd := &cobra.Command{
		Use:   "history <file-path>",
		Short: "Reconstruct the revision history of one result file",
		Long: "Reconstruct the time-ordered benchmark series of one result file from the\n" +
			"revisions that touched it, one table row per usable revision.",
		Args: cobra.ExactArgs(1),
		RunE: hc.run,
	}

	cmd.Flags().StringVarP(&hc.output, "output", "o", string(render.FormatTable), "Output format: table, json, yaml")
	cmd.Flags().BoolVar(&hc.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().IntVar(&hc.concurrency, "concurrency", 0, "Parallel revision fetches (0 = config default)")

	return cmd
}

func (hc *HistoryCommand) run(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	format, err := render.ParseFormat(hc.output)
	if err != nil {
		return err
	}

	pl, err := hc.builder(pipelineOptions{
		configPath:  stringFlag(cmd, "config"),
		concurrency: hc.concurrency,
		logger:      cliLogger(cmd),
	})
	if err != nil {
		return err
	}

	hist, err := pl.histories.Reconstruct(cmd.Context(), filePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	switch format {
	case render.FormatJSON:
		return render.WriteJSON(out, hist)
	case render.FormatYAML:
		return render.WriteYAML(out, hist)
	default:
		if len(hist) == 0 {
			fmt.Fprintf(out, "No usable revisions for %q.\n", filePath)

			return nil
		}

		return render.NewTableWriter(!hc.noColor).WriteHistory(out, hist)
	}
}

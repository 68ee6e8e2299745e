package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/numpex/exa-di-g5k-dashboard/internal/render"
)

// AppsCommand holds configuration and dependencies for the apps command.
type AppsCommand struct {
	output string

	builder pipelineBuilder
}

// NewAppsCommand creates the apps command.
func NewAppsCommand() *cobra.Command {
	return newAppsCommandWithDeps(buildPipeline)
}

func newAppsCommandWithDeps(builder pipelineBuilder) *cobra.Command {
	ac := &AppsCommand{builder: builder}

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List applications with published results",
		Long:  "List the application folders of the results tree that contain at least one result file.",
		Args:  cobra.NoArgs,
		RunE:  ac.run,
	}

	cmd.Flags().StringVarP(&ac.output, "output", "o", string(render.FormatTable), "Output format: table, json, yaml")

	return cmd
}

func (ac *AppsCommand) run(cmd *cobra.Command, _ []string) error {
	format, err := render.ParseFormat(ac.output)
	if err != nil {
		return err
	}

	pl, err := ac.builder(pipelineOptions{
		configPath: stringFlag(cmd, "config"),
		logger:     cliLogger(cmd),
	})
	if err != nil {
		return err
	}

	apps, err := pl.apps.ListApplications(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	switch format {
	case render.FormatJSON:
		return render.WriteJSON(out, apps)
	case render.FormatYAML:
		return render.WriteYAML(out, apps)
	default:
		if len(apps) == 0 {
			fmt.Fprintln(out, "No applications found.")

			return nil
		}

		for _, app := range apps {
			fmt.Fprintln(out, app)
		}

		return nil
	}
}

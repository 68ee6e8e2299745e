package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/numpex/exa-di-g5k-dashboard/internal/render"
	"github.com/numpex/exa-di-g5k-dashboard/internal/trend"
)

const (
	pathSepOld    = "/"
	pathSepSafe   = "-"
	renderDirPerm = 0o750
)

// ErrNoOutputDir is returned when the --output flag is not set.
var ErrNoOutputDir = errors.New("output directory is required (use --output)")

// RenderCommand holds configuration and dependencies for the render command.
type RenderCommand struct {
	outputDir        string
	initialThreshold float64
	computeThreshold float64
	concurrency      int

	builder pipelineBuilder
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	return newRenderCommandWithDeps(buildPipeline)
}

func newRenderCommandWithDeps(builder pipelineBuilder) *cobra.Command {
	rc := &RenderCommand{builder: builder}

	cmd := &cobra.Command{
		Use:   "render <file-path>",
		Short: "Render the timing charts of one result file to HTML",
		Long: "Reconstruct the history of one result file and render its initialization,\n" +
			"compute and total timing charts, each with a step trend overlay, as one HTML page.",
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.outputDir, "output", "o", "", "output directory for HTML files")
	cmd.Flags().Float64Var(&rc.initialThreshold, "initial-threshold", 0, "Step threshold for the initialization chart, in (0, 100] (0 = config default)")
	cmd.Flags().Float64Var(&rc.computeThreshold, "compute-threshold", 0, "Step threshold for the compute chart, in (0, 100] (0 = config default)")
	cmd.Flags().IntVar(&rc.concurrency, "concurrency", 0, "Parallel revision fetches (0 = config default)")

	return cmd
}

func (rc *RenderCommand) run(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	if rc.outputDir == "" {
		return ErrNoOutputDir
	}

	pl, err := rc.builder(pipelineOptions{
		configPath:  stringFlag(cmd, "config"),
		concurrency: rc.concurrency,
		logger:      cliLogger(cmd),
	})
	if err != nil {
		return err
	}

	initial := rc.initialThreshold
	if initial == 0 {
		initial = pl.cfg.Trend.InitialThreshold
	}

	compute := rc.computeThreshold
	if compute == 0 {
		compute = pl.cfg.Trend.ComputeThreshold
	}

	err = trend.ValidateThreshold(initial)
	if err != nil {
		return fmt.Errorf("initial threshold: %w", err)
	}

	err = trend.ValidateThreshold(compute)
	if err != nil {
		return fmt.Errorf("compute threshold: %w", err)
	}

	hist, err := pl.histories.Reconstruct(cmd.Context(), filePath)
	if err != nil {
		return err
	}

	if len(hist) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No usable revisions for %q, nothing to render.\n", filePath)

		return nil
	}

	mkErr := os.MkdirAll(rc.outputDir, renderDirPerm)
	if mkErr != nil {
		return fmt.Errorf("create output dir: %w", mkErr)
	}

	outPath := filepath.Join(rc.outputDir, pageFileName(filePath))

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create page file: %w", err)
	}
	defer file.Close()

	page := render.HistoryPage(filePath, hist, initial, compute)

	err = page.Render(file)
	if err != nil {
		return fmt.Errorf("render page %s: %w", filePath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d revisions to %s\n", len(hist), outPath)

	return nil
}

// pageFileName converts result file paths like "results/app/run.json" to
// "results-app-run.html" for use as filenames.
func pageFileName(filePath string) string {
	name := strings.TrimSuffix(filePath, filepath.Ext(filePath))

	return strings.ReplaceAll(name, pathSepOld, pathSepSafe) + ".html"
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"

	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
)

// exitCodeIOFailure is the exit code for I/O and schema loading failures,
// distinct from the validation verdict.
const exitCodeIOFailure = 2

// ValidationIssue is one schema violation found in a result file.
type ValidationIssue struct {
	Field       string
	Description string
}

// ValidationReport is the outcome of validating one result file.
type ValidationReport struct {
	Issues []ValidationIssue
}

// Valid reports whether the document passed the schema.
func (vr ValidationReport) Valid() bool {
	return len(vr.Issues) == 0
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var schemaPath string

	var colorize, nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <file.json|->",
		Short: "Validate a result file against the schema",
		Long: `Validate a benchmark result file against the result record schema.

Examples:
  g5kdash validate run-16x4.json
  g5kdash validate - < run-16x4.json
  g5kdash validate --schema custom-schema.json run-16x4.json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0], schemaPath, colorize, nocolor)
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to a result schema (default: embedded schema)")
	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(inputPath, schemaPath string, colorize, nocolor bool) error {
	// Color setup.
	if nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}

	inputReader, inputLabel := loadInput(inputPath)

	report, err := validateDocument(inputReader, loadSchema(schemaPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation of %s failed: %v\n", inputLabel, err)
		os.Exit(exitCodeIOFailure)
	}

	if report.Valid() {
		color.New(color.FgGreen).Fprintf(os.Stdout, "Result file is valid (%s)\n", inputLabel)

		return nil
	}

	color.New(color.FgRed).Fprintf(os.Stdout, "Result file validation failed (%s)\n", inputLabel)
	fmt.Fprintf(os.Stdout, "\nErrors:\n")

	for _, issue := range report.Issues {
		color.New(color.FgRed).Fprintf(os.Stdout, "  - %s: %s\n", issue.Field, issue.Description)
	}

	os.Exit(1)

	return nil
}

// validateDocument runs the schema over one JSON document. The returned
// error covers malformed JSON and schema evaluation failures; a well-formed
// document that violates the schema comes back as an invalid report.
func validateDocument(input io.Reader, schemaLoader gojsonschema.JSONLoader) (ValidationReport, error) {
	dec := json.NewDecoder(input)
	dec.UseNumber()

	var inputData any

	decodeErr := dec.Decode(&inputData)
	if decodeErr != nil {
		return ValidationReport{}, fmt.Errorf("invalid JSON: %w", decodeErr)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(inputData))
	if err != nil {
		return ValidationReport{}, fmt.Errorf("schema validation: %w", err)
	}

	issues := make([]ValidationIssue, 0, len(result.Errors()))

	for _, verr := range result.Errors() {
		issues = append(issues, ValidationIssue{Field: verr.Field(), Description: verr.Description()})
	}

	return ValidationReport{Issues: issues}, nil
}

func loadInput(inputPath string) (io.Reader, string) {
	if inputPath == "-" {
		return os.Stdin, "stdin"
	}

	inputFile, err := os.Open(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
		os.Exit(exitCodeIOFailure)
	}

	return inputFile, inputPath
}

func loadSchema(schemaPath string) gojsonschema.JSONLoader {
	if schemaPath == "" {
		schemaBytes, err := results.SchemaFS.ReadFile(results.SchemaFileName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read embedded schema: %v\n", err)
			os.Exit(exitCodeIOFailure)
		}

		return gojsonschema.NewBytesLoader(schemaBytes)
	}

	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read schema file: %v\n", err)
		os.Exit(exitCodeIOFailure)
	}

	return gojsonschema.NewBytesLoader(schemaBytes)
}

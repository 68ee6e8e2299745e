package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/numpex/exa-di-g5k-dashboard/internal/history"
	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
)

// dateDisplayLayout shows record timestamps without sub-second noise.
const dateDisplayLayout = "2006-01-02 15:04"

// alertColor marks cells a reader should act on: a zero timing means the
// run recorded nothing, an explicit false test_result means it failed.
var alertColor = color.New(color.FgRed)

// TableWriter renders the current records of an application as a terminal
// table, one row per configuration file.
type TableWriter struct {
	colorize bool
}

// NewTableWriter builds a [TableWriter]. With colorize false the output is
// plain text, for piping.
func NewTableWriter(colorize bool) *TableWriter {
	return &TableWriter{colorize: colorize}
}

// WriteRecords writes one table over all records: a file column first, then
// the projected record columns in [results.Columns] order. Fields a record
// lacks come out as empty cells.
func (tw *TableWriter) WriteRecords(w io.Writer, records []results.Record) error {
	columns := results.Columns(records)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	header := make(table.Row, 0, len(columns)+1)
	header = append(header, "file")

	for _, column := range columns {
		header = append(header, column)
	}

	tbl.AppendHeader(header)

	for _, record := range records {
		row := make(table.Row, 0, len(columns)+1)
		row = append(row, record.File)

		for _, column := range columns {
			row = append(row, tw.cell(record, column))
		}

		tbl.AppendRow(row)
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d configurations", len(records))})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	return nil
}

// shortRevisionLen abbreviates commit ids for display.
const shortRevisionLen = 8

// WriteHistory writes one table over a file's reconstructed history, one row
// per usable revision in series order.
func (tw *TableWriter) WriteHistory(w io.Writer, hist history.History) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"revision", "date", "initial_time", "compute_time", "total", "test_result"})

	for _, entry := range hist {
		initial := entry.Record.Float(results.FieldInitialTime)
		compute := entry.Record.Float(results.FieldComputeTime)

		tbl.AppendRow(table.Row{
			shortRevision(entry.Revision),
			fmt.Sprintf("%s (%s)", entry.Time.Format(dateDisplayLayout), humanize.Time(entry.Time)),
			tw.historyTiming(entry.Record, results.FieldInitialTime),
			tw.historyTiming(entry.Record, results.FieldComputeTime),
			fmt.Sprintf("%g", initial+compute),
			tw.historyTest(entry.Record),
		})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d revisions", len(hist))})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("writing history table: %w", err)
	}

	return nil
}

func shortRevision(id string) string {
	if len(id) > shortRevisionLen {
		return id[:shortRevisionLen]
	}

	return id
}

func (tw *TableWriter) historyTiming(record results.Record, field string) string {
	value, ok := record.Fields[field]
	if !ok {
		return ""
	}

	return tw.timingCell(value)
}

func (tw *TableWriter) historyTest(record results.Record) string {
	value, ok := record.Fields[results.FieldTestResult]
	if !ok {
		return ""
	}

	return tw.testCell(record, value)
}

// cell renders one record field for display. Dates gain a relative age,
// zero timings and failed test flags come back highlighted.
func (tw *TableWriter) cell(record results.Record, column string) string {
	value, ok := record.Fields[column]
	if !ok {
		return ""
	}

	switch column {
	case results.FieldDate:
		return tw.dateCell(record, value)
	case results.FieldInitialTime, results.FieldComputeTime:
		return tw.timingCell(value)
	case results.FieldTestResult:
		return tw.testCell(record, value)
	default:
		return value.Display()
	}
}

func (tw *TableWriter) dateCell(record results.Record, value results.Value) string {
	ts, ok := record.Timestamp()
	if !ok {
		return value.Display()
	}

	return fmt.Sprintf("%s (%s)", ts.Format(dateDisplayLayout), humanize.Time(ts))
}

func (tw *TableWriter) timingCell(value results.Value) string {
	display := value.Display()

	num, isNumber := value.Float()
	if isNumber && num == 0 {
		return tw.alert(display)
	}

	return display
}

func (tw *TableWriter) testCell(record results.Record, value results.Value) string {
	display := value.Display()

	if !record.TestPassed() {
		return tw.alert(display)
	}

	return display
}

func (tw *TableWriter) alert(s string) string {
	if !tw.colorize {
		return s
	}

	return alertColor.Sprint(s)
}

package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/screening"
)

// DefaultCSVName is the file name offered for downloads.
const DefaultCSVName = "resume_screening_results.csv"

// Column names, in display and export order.
const (
	ColumnCandidate      = "candidate_name"
	ColumnScore          = "match_score"
	ColumnFitLevel       = "fit_level"
	ColumnRecommendation = "recommendation"
	ColumnReason         = "reason_summary"
	ColumnStrengths      = "strengths"
	ColumnGaps           = "gaps"
)

// Columns is the fixed column order. Results always carry every field, so
// no column is ever dropped.
var Columns = []string{
	ColumnCandidate,
	ColumnScore,
	ColumnFitLevel,
	ColumnRecommendation,
	ColumnReason,
	ColumnStrengths,
	ColumnGaps,
}

// Header returns a copy of the column names.
func Header() []string {
	return append([]string(nil), Columns...)
}

// Row flattens a result into cells following Columns.
func Row(r ai.Result) []string {
	return []string{
		r.CandidateName,
		strconv.Itoa(r.MatchScore),
		string(r.FitLevel),
		string(r.Recommendation),
		r.ReasonSummary,
		FlattenList(r.Strengths),
		FlattenList(r.Gaps),
	}
}

// Rows flattens every result, preserving order.
func Rows(results []ai.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, Row(r))
	}
	return rows
}

// FlattenList renders a list value as a single bracketed cell.
func FlattenList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

// WriteCSV writes a header row and one row per result.
func WriteCSV(w io.Writer, results []ai.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(Rows(results)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteCSVFile writes the CSV export to path.
func WriteCSVFile(path string, results []ai.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteCSV(file, results); err != nil {
		return err
	}
	return file.Close()
}

// WriteTable renders an aligned text table. Long reasons are shortened to
// keep rows on one line; the CSV export keeps them whole.
func WriteTable(w io.Writer, results []ai.Result, maxCell int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, strings.Join(Header(), "\t")); err != nil {
		return err
	}
	for _, row := range Rows(results) {
		for i, cell := range row {
			row[i] = tableCell(cell, maxCell)
		}
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func tableCell(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// WriteDetails prints every field of one result, lists one item per line.
func WriteDetails(w io.Writer, r ai.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate:      %s\n", r.CandidateName)
	fmt.Fprintf(&b, "Score:          %d\n", r.MatchScore)
	fmt.Fprintf(&b, "Fit level:      %s\n", r.FitLevel)
	fmt.Fprintf(&b, "Recommendation: %s\n", r.Recommendation)
	fmt.Fprintf(&b, "Reason:         %s\n", r.ReasonSummary)
	b.WriteString("Strengths:\n")
	writeItems(&b, r.Strengths)
	b.WriteString("Gaps:\n")
	writeItems(&b, r.Gaps)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeItems(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("  - none\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

// WriteJSON writes the ranked set as indented JSON.
func WriteJSON(w io.Writer, set *screening.RankedResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(set)
}

// DumpToTmpFile writes the ranked set as JSON to a new temporary file and
// returns its name.
func DumpToTmpFile(set *screening.RankedResultSet) (string, error) {
	file, err := os.CreateTemp("", "screening_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteJSON(file, set); err != nil {
		return "", err
	}
	return file.Name(), nil
}

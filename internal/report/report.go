package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"HiCGallery/internal/validator"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	kindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	fileStyle = lipgloss.NewStyle().Faint(true)
)

// Text writes a human-readable report: one line per case and one line per
// violation below failing cases, then a summary.
func Text(w io.Writer, results []validator.Result) error {
	var b strings.Builder
	failed := 0
	for _, r := range results {
		if r.Passed() {
			fmt.Fprintf(&b, "%s %s\n", passStyle.Render("PASS"), r.Case)
			continue
		}
		failed++
		fmt.Fprintf(&b, "%s %s\n", failStyle.Render("FAIL"), r.Case)
		for _, v := range r.Violations {
			fmt.Fprintf(&b, "  - %s %s\n", kindStyle.Render(string(v.Kind)), v.Message)
			for _, f := range v.Files {
				fmt.Fprintf(&b, "      %s\n", fileStyle.Render(f))
			}
		}
	}

	switch {
	case len(results) == 0:
		b.WriteString("No cases found.\n")
	case failed == 0:
		fmt.Fprintf(&b, "%s %d case(s) checked\n", passStyle.Render("All good:"), len(results))
	default:
		fmt.Fprintf(&b, "%s %d of %d case(s) failed\n", failStyle.Render("Validation failed:"), failed, len(results))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type jsonResult struct {
	Case       string                `json:"case"`
	Passed     bool                  `json:"passed"`
	Violations []validator.Violation `json:"violations"`
}

// JSON writes the results for machine consumers such as a CI step.
func JSON(w io.Writer, results []validator.Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		v := r.Violations
		if v == nil {
			v = []validator.Violation{}
		}
		out = append(out, jsonResult{Case: r.Case, Passed: r.Passed(), Violations: v})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

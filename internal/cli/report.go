package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/depscout/depscout/pkg/findings"
)

// writeJSONReport writes the full report as indented JSON.
func writeJSONReport(w io.Writer, report *findings.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// printReport renders the report for a terminal. Claimable names come
// first, then indeterminate lookups; a clean scan prints a single success
// line.
func printReport(report *findings.Report) {
	printNewline()
	fmt.Println(StyleTitle.Render("Scan " + report.ScanID))
	printDetail("registry: %s", report.Registry)
	printStats(report.Stats)
	printNewline()

	if len(report.Findings) == 0 && len(report.Indeterminate) == 0 {
		printSuccess("No claimable names found")
		return
	}

	if len(report.Findings) > 0 {
		fmt.Println(StyleWarning.Render(fmt.Sprintf("Claimable names (%d)", len(report.Findings))))
		for _, f := range report.Findings {
			printFinding(f)
		}
		printNewline()
	}

	if len(report.Indeterminate) > 0 {
		fmt.Println(StyleDim.Render(fmt.Sprintf("Indeterminate lookups (%d)", len(report.Indeterminate))))
		for _, ind := range report.Indeterminate {
			printWarning("%s", StyleHighlight.Render(ind.Name))
			printDetail("reason: %s", ind.Reason)
			for _, occ := range ind.Occurrences {
				printOccurrence(occ)
			}
		}
		printNewline()
	}
}

func printFinding(f findings.Finding) {
	name := f.Name
	if f.Display != "" && f.Display != f.Name {
		name = fmt.Sprintf("%s (declared as %s)", f.Name, f.Display)
	}
	printError("%s", StyleHighlight.Render(name))
	for _, occ := range f.Occurrences {
		printOccurrence(occ)
	}
}

func printOccurrence(occ findings.Occurrence) {
	section := string(occ.Section)
	if occ.ExtrasGroup != "" {
		section = fmt.Sprintf("%s[%s]", section, occ.ExtrasGroup)
	}
	printDetail("%s:%s  %s  %q", occ.Manifest, occ.Span.String(), section, occ.Raw)
}

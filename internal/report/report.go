// Package report renders check results for humans or machines. It
// consumes already-computed results and holds no business logic.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/everstacklabs/tokengate/internal/runner"
)

var (
	passMark = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	dim      = color.New(color.Faint).SprintFunc()
)

// Human writes a colored per-check report followed by a summary line.
func Human(w io.Writer, s *runner.Summary) {
	for _, r := range s.Results {
		writeResult(w, r)
	}

	failed := 0
	for _, r := range s.Results {
		if r.Failed() {
			failed++
		}
	}
	noun := "checks"
	if len(s.Results) == 1 {
		noun = "check"
	}
	fmt.Fprintln(w)
	if failed > 0 {
		fmt.Fprintf(w, "%s %d of %d %s failed\n", failMark("✗"), failed, len(s.Results), noun)
	} else {
		fmt.Fprintf(w, "%s %d %s passed\n", passMark("✓"), len(s.Results), noun)
	}
}

func writeResult(w io.Writer, r runner.Result) {
	if r.Missed {
		fmt.Fprintf(w, "%s %s\n", failMark("✗"), r.Name)
		fmt.Fprintf(w, "    %s\n", dim(r.Message))
		return
	}

	mark := passMark("✓")
	if r.Failed() {
		mark = failMark("✗")
	} else if r.Warning {
		mark = warnMark("⚠")
	}

	fmt.Fprintf(w, "%s %s %s\n", mark, r.Name, dim("("+r.Model+")"))
	if r.TokenLimit != nil {
		fmt.Fprintf(w, "    %s tokens of %s allowed\n",
			formatTokens(r.TokenCount), formatTokens(*r.TokenLimit))
	} else {
		fmt.Fprintf(w, "    %s tokens\n", formatTokens(r.TokenCount))
	}
	if r.Cost != nil {
		if r.CostLimit != nil {
			fmt.Fprintf(w, "    $%.4f of $%.4f allowed\n", *r.Cost, *r.CostLimit)
		} else {
			fmt.Fprintf(w, "    $%.4f\n", *r.Cost)
		}
	}
}

// JSON writes the summary as indented JSON. Unset optional fields are
// omitted entirely.
func JSON(w io.Writer, s *runner.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// formatTokens renders a count with thousands separators.
func formatTokens(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

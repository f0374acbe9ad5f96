package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"

	"phishdetect/internal/domain"
)

func printBanner(w io.Writer) {
	fig := figure.NewColorFigure("PhishDetect", "small", "cyan", true)
	fmt.Fprintln(w, fig.ColorString())

	cyan := color.New(color.FgCyan)
	_, _ = cyan.Fprintln(w, strings.Repeat("═", 48))
}

func verdictColor(v domain.Verdict) *color.Color {
	switch v {
	case domain.VerdictSafe:
		return color.New(color.FgGreen, color.Bold)
	case domain.VerdictDangerous:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow, color.Bold)
	}
}

func renderScan(w io.Writer, scan domain.ScanResult) {
	label := color.New(color.FgHiBlack)

	_, _ = label.Fprint(w, "Verdict     ")
	_, _ = verdictColor(scan.Verdict).Fprintf(w, "%s", scan.Verdict)
	fmt.Fprintf(w, "  (risk %.0f/100)\n", scan.RiskScore)

	_, _ = label.Fprint(w, "Type        ")
	fmt.Fprintln(w, scan.Type)

	if h := scan.Heuristics; h != nil {
		_, _ = label.Fprint(w, "Heuristics  ")
		fmt.Fprintf(w, "linguistic %.0f  entropy %.0f  masking %.0f\n",
			h.LinguisticManipulation, h.LinkEntropy, h.DomainMasking)
	}
	if len(scan.RedFlags) > 0 {
		_, _ = label.Fprintln(w, "Red flags")
		red := color.New(color.FgRed)
		for _, f := range scan.RedFlags {
			_, _ = red.Fprintf(w, "  • %s\n", f)
		}
	}
	if scan.Explanation != "" {
		_, _ = label.Fprintln(w, "Explanation")
		fmt.Fprintf(w, "  %s\n", scan.Explanation)
	}
}

func writeJSON(w io.Writer, scan domain.ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(scan)
}

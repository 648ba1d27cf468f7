package analysis

import "strings"

const (
	MaxKeyPoints = 8

	maxSummarySentences = 3
	maxSummaryPoints    = 5
	maxEntities         = 3
	maxFlags            = 3
	maxFlagsPerCategory = 2

	NoSummaryPlaceholder = "Kunne ikke generere sammendrag"
	FallbackSummary      = "Dokumentet har blitt analysert med AI."
)

// FallbackKeyPoints are shown when an analysis yields nothing to highlight.
var FallbackKeyPoints = []string{"Dokumentanalyse ferdig", "Se full tekst for detaljer"}

// Present flattens an analysis into a short summary and at most MaxKeyPoints
// highlights. The summary is never empty.
func Present(a StructuredAnalysis) (string, []string) {
	summary := NoSummaryPlaceholder
	if len(a.SummaryPoints) > 0 {
		summary = strings.Join(head(a.SummaryPoints, maxSummarySentences), " ")
	}

	var points []string
	points = append(points, head(a.SummaryPoints, maxSummaryPoints)...)
	if len(a.KeyInfo.People) > 0 {
		points = append(points, "Personer: "+strings.Join(head(a.KeyInfo.People, maxEntities), ", "))
	}
	if len(a.KeyInfo.Organizations) > 0 {
		points = append(points, "Selskaper: "+strings.Join(head(a.KeyInfo.Organizations, maxEntities), ", "))
	}

	var flags []string
	for _, category := range a.Flags.Categories() {
		flags = append(flags, head(category, maxFlagsPerCategory)...)
	}
	for _, f := range head(flags, maxFlags) {
		points = append(points, "Rødt flagg: "+f)
	}

	if len(points) == 0 {
		return FallbackSummary, append([]string(nil), FallbackKeyPoints...)
	}
	return summary, head(points, MaxKeyPoints)
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

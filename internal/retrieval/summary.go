package retrieval

import (
	"fmt"
	"strings"
)

const divider = "================================================================================"

// FormatSummary renders the corpus summary for the terminal.
func FormatSummary(sum *CorpusSummary) string {
	var b strings.Builder

	b.WriteString(divider + "\n")
	b.WriteString("📊 데이터베이스 데이터 요약\n")
	b.WriteString(divider + "\n\n")
	fmt.Fprintf(&b, "총 문서 수: %d개\n", sum.TotalDocs)

	if len(sum.Regions) > 0 {
		b.WriteString("\n지역별 분포:\n")
		for _, rc := range sum.Regions {
			fmt.Fprintf(&b, "  - %s: %d개\n", rc.Region, rc.Count)
		}
	}

	if len(sum.Recent) > 0 {
		b.WriteString("\n최근 문서 3개:\n")
		for i, d := range sum.Recent {
			fmt.Fprintf(&b, "\n  [%d] %s\n", i+1, d.Title)
			fmt.Fprintf(&b, "      지역: %s\n", d.Region)
			fmt.Fprintf(&b, "      URL: %s\n", d.URL)
		}
	}

	b.WriteString("\n" + divider)
	return b.String()
}

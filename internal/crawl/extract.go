package crawl

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Labels used by district and portal pages for the two fields we keep.
var targetLabels = []string{"지원대상", "지원 대상", "대상", "신청자격", "신청 자격"}
var contentLabels = []string{"지원내용", "지원 내용", "내용", "지원사항", "혜택"}

// extractPrograms pulls program records out of one parsed page.
// It walks heading elements (h3, h4, strong inside content areas) as
// program titles and pairs each with the labeled definition-list or
// table rows that follow, which is the layout district health-office
// pages share.
func extractPrograms(root *goquery.Selection, pageURL, region string) []Record {
	var records []Record

	root.Find("h3, h4").Each(func(_ int, heading *goquery.Selection) {
		title := cleanText(heading.Text())
		if title == "" || len([]rune(title)) < 2 {
			return
		}

		section := sectionAfter(heading)
		target := findLabeled(section, targetLabels)
		content := findLabeled(section, contentLabels)
		if target == "" && content == "" {
			return
		}

		records = append(records, Record{
			Title:          title,
			SupportTarget:  target,
			SupportContent: content,
			RawText:        cleanText(section.Text()),
			SourceURL:      pageURL,
			Region:         region,
		})
	})

	return records
}

// sectionAfter returns the sibling content belonging to a heading:
// everything up to the next heading of the same level.
func sectionAfter(heading *goquery.Selection) *goquery.Selection {
	return heading.NextUntil("h3, h4")
}

// findLabeled scans dt/dd pairs and table rows for the first value
// whose label matches one of labels.
func findLabeled(section *goquery.Selection, labels []string) string {
	var found string

	section.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !matchesLabel(dt.Text(), labels) {
			return true
		}
		found = cleanText(dt.NextFiltered("dd").Text())
		return found == ""
	})
	if found != "" {
		return found
	}

	section.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		th := tr.Find("th").First()
		if !matchesLabel(th.Text(), labels) {
			return true
		}
		found = cleanText(tr.Find("td").First().Text())
		return found == ""
	})
	return found
}

func matchesLabel(text string, labels []string) bool {
	text = cleanText(text)
	for _, label := range labels {
		if strings.Contains(text, label) {
			return true
		}
	}
	return false
}

// cleanText collapses whitespace runs into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

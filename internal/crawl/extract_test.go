package crawl

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const districtPage = `
<html><body>
<h3>암환자 의료비 지원</h3>
<dl>
  <dt>지원대상</dt><dd>건강보험료 기준 충족 암환자</dd>
  <dt>지원내용</dt><dd>연간 최대 200만원 의료비 지원</dd>
</dl>
<h3>임산부 철분제 지원</h3>
<table>
  <tr><th>대상</th><td>보건소 등록 임산부</td></tr>
  <tr><th>지원내용</th><td>철분제 5개월분 제공</td></tr>
</table>
<h3>찾아오시는 길</h3>
<p>주소와 전화번호 안내</p>
</body></html>`

func parseFixture(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc
}

func TestExtractPrograms(t *testing.T) {
	doc := parseFixture(t, districtPage)

	records := extractPrograms(doc.Selection, "https://health.gangnam.go.kr/support", "강남구")
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (the directions section has no labeled fields)", len(records))
	}

	first := records[0]
	if first.Title != "암환자 의료비 지원" {
		t.Errorf("title = %q", first.Title)
	}
	if first.SupportTarget != "건강보험료 기준 충족 암환자" {
		t.Errorf("target = %q", first.SupportTarget)
	}
	if first.SupportContent != "연간 최대 200만원 의료비 지원" {
		t.Errorf("content = %q", first.SupportContent)
	}
	if first.Region != "강남구" || first.SourceURL != "https://health.gangnam.go.kr/support" {
		t.Errorf("region/url = %q %q", first.Region, first.SourceURL)
	}

	// Table-row layout parses the same as dt/dd.
	second := records[1]
	if second.SupportTarget != "보건소 등록 임산부" {
		t.Errorf("table target = %q", second.SupportTarget)
	}
	if second.SupportContent != "철분제 5개월분 제공" {
		t.Errorf("table content = %q", second.SupportContent)
	}
}

func TestExtractProgramsEmptyPage(t *testing.T) {
	doc := parseFixture(t, `<html><body><p>준비 중입니다.</p></body></html>`)
	if records := extractPrograms(doc.Selection, "https://example.com", ""); len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestFindLabeledPrefersDefinitionList(t *testing.T) {
	doc := parseFixture(t, `
<div>
  <dl><dt>지원 대상</dt><dd>dd 값</dd></dl>
  <table><tr><th>지원대상</th><td>td 값</td></tr></table>
</div>`)
	got := findLabeled(doc.Find("div"), targetLabels)
	if got != "dd 값" {
		t.Errorf("findLabeled = %q, want dd 값", got)
	}
}

func TestCleanText(t *testing.T) {
	got := cleanText("  지원\n\t내용   안내  ")
	if got != "지원 내용 안내" {
		t.Errorf("cleanText = %q", got)
	}
}

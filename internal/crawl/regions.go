package crawl

import (
	"net/url"
	"strings"
)

// districtRegions maps health-office host name fragments to their
// district label. Covers the Seoul district offices currently crawled.
var districtRegions = map[string]string{
	"gangnam":  "강남구",
	"gangdong": "강동구",
	"gangbuk":  "강북구",
	"gangseo":  "강서구",
	"gwanak":   "관악구",
	"gwangjin": "광진구",
	"guro":     "구로구",
	"dongjak":  "동작구",
	"sdm":      "서대문구",
	"seocho":   "서초구",
	"sb":       "성북구",
	"ydp":      "영등포구",
	"songpa":   "송파구",
	"jongno":   "종로구",
}

// regionForURL derives the district label from a health-office URL.
// Returns "" for hosts outside the known set.
func regionForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for fragment, region := range districtRegions {
		for _, part := range strings.Split(host, ".") {
			if part == fragment {
				return region
			}
		}
	}
	return ""
}

// DefaultDistrictURLs are the health-office program pages crawled when
// no explicit URL list is given.
var DefaultDistrictURLs = []string{
	"https://health.gangnam.go.kr/web/business/support/sub01.do",
	"https://health.gangdong.go.kr/health/site/main/content/GD20030100",
	"https://www.gangbuk.go.kr/health/main/contents.do?menuNo=400151",
	"https://www.gangseo.seoul.kr/health/ht020231",
	"https://www.gwanak.go.kr/site/health/05/10502010600002024101710.jsp",
	"https://www.gwangjin.go.kr/health/main/contents.do?menuNo=300080",
	"https://www.guro.go.kr/health/contents.do?key=1320&",
	"https://www.dongjak.go.kr/healthcare/main/contents.do?menuNo=300342",
	"https://www.sdm.go.kr/health/contents/infectious/law",
	"https://www.seocho.go.kr/site/sh/03/10301000000002015070902.jsp",
	"https://www.sb.go.kr/bogunso/contents.do?key=6553",
	"https://www.ydp.go.kr/health/contents.do?key=6073&",
	"https://www.songpa.go.kr/ehealth/contents.do?key=4525&",
	"https://jongno.go.kr/Health.do?menuId=401309&menuNo=401309",
}

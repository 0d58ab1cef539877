package crawl

import (
	"testing"
	"time"
)

func TestRegionForURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://health.gangnam.go.kr/web/business/support/sub01.do", "강남구"},
		{"https://www.sdm.go.kr/health/contents/infectious/law", "서대문구"},
		{"https://www.ydp.go.kr/health/contents.do?key=6073&", "영등포구"},
		{"https://www.bokjiro.go.kr/detail", ""},
		{"://bad-url", ""},
	}
	for _, tt := range tests {
		if got := regionForURL(tt.url); got != tt.want {
			t.Errorf("regionForURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDefaultDistrictURLsAllMapped(t *testing.T) {
	for _, u := range DefaultDistrictURLs {
		if regionForURL(u) == "" {
			t.Errorf("no region for default URL %s", u)
		}
	}
}

func TestIsHealthRelated(t *testing.T) {
	tests := []struct {
		texts []string
		want  bool
	}{
		{[]string{"암환자 의료비 지원"}, true},
		{[]string{"기초연금 안내", "만 65세 이상"}, false},
		{[]string{"", "치매 조기검진"}, true},
		{nil, false},
	}
	for _, tt := range tests {
		if got := isHealthRelated(tt.texts...); got != tt.want {
			t.Errorf("isHealthRelated(%v) = %v, want %v", tt.texts, got, tt.want)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	opts.setDefaults()

	if opts.Parallelism != 2 {
		t.Errorf("Parallelism = %d, want 2", opts.Parallelism)
	}
	if opts.Delay != time.Second {
		t.Errorf("Delay = %v, want 1s", opts.Delay)
	}
	if opts.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", opts.Timeout)
	}
	if opts.Logger == nil {
		t.Error("Logger must default to a usable logger")
	}
}

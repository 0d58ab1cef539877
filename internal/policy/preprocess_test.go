package policy

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  강남구  암환자   의료비 지원  ", "강남구 암환자 의료비 지원"},
		{"[공지] 임산부 건강관리", "임산부 건강관리"},
		{"산모·신생아\t건강관리\n지원", "산모·신생아 건강관리 지원"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSitenameFromURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://health.gangnam.go.kr/web/business/support/sub01.do", "health.gangnam.go.kr"},
		{"https://www.bokjiro.go.kr/ssis-tbu/index.do", "bokjiro.go.kr"},
		{"not a url", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SitenameFromURL(tt.in); got != tt.want {
			t.Errorf("SitenameFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWeightFor(t *testing.T) {
	if w := WeightFor("강남구", "health.gangnam.go.kr"); w != 3 {
		t.Errorf("district site weight = %d, want 3", w)
	}
	if w := WeightFor("전국", "bokjiro.go.kr"); w != 2 {
		t.Errorf("portal weight = %d, want 2", w)
	}
	if w := WeightFor("", ""); w != 1 {
		t.Errorf("unknown source weight = %d, want 1", w)
	}
}

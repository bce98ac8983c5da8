package concert

import "time"

type sample struct {
	title   string
	artist  string
	venue   string
	daysOut int
	price   int
	url     string
}

var samples = []sample{
	{"서울 재즈 페스티벌", "Various Artists", "올림픽공원", 10, 0, "https://example.com/jazz-festival"},
	{"인디 밴드의 밤", "The Local Band", "홍대 라이브홀", 15, 5000, "https://example.com/indie-night"},
	{"클래식 피아노 리사이틀", "김예진", "예술의전당 콘서트홀", 20, 8000, "https://example.com/piano-recital"},
	{"거리 공연", "버스킹 크루", "이태원 거리", 7, 0, "https://example.com/busking"},
	{"K-POP 콘서트", "신예 아이돌", "잠실 실내체육관", 30, 50000, "https://example.com/kpop"},
	{"아마추어 밴드 경연", "여러 팀", "강남 클럽", 5, 3000, "https://example.com/band-battle"},
}

// Samples returns the fixed illustrative concert set, dated relative to today.
// The result is the same for the same calendar day.
func Samples(today time.Time) []Concert {
	base := Day(today)
	out := make([]Concert, 0, len(samples))
	for _, s := range samples {
		out = append(out, Concert{
			Title:  s.title,
			Artist: s.artist,
			Venue:  s.venue,
			Date:   base.AddDate(0, 0, s.daysOut),
			Price:  s.price,
			URL:    s.url,
			Source: SampleSource,
		})
	}
	return out
}

package crawler

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"bito/concertworker/internal/concert"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const containerPage = `
<html><body>
<ul class="list">
	<li class="goodsItem">
		<a href="/Goods/GoodsInfo?GoodsCode=25001"><span class="title">  잔나비 전국투어
			서울 </span></a>
		<span class="artist">잔나비</span>
		<span class="place">올림픽홀</span>
		<span class="date">2025.11.01~2025.11.02</span>
		<span class="price">99,000원</span>
	</li>
	<li class="goodsItem">
		<a href="https://tickets.interpark.com/goods/25002" title="새벽 공연">보러가기</a>
		<span class="period">10.31</span>
		<span class="price">무료</span>
	</li>
	<li class="goodsItem">
		<span class="price">1,000원</span>
	</li>
</ul>
</body></html>`

const linkPage = `
<html><body>
<div class="board">
	<div class="card">
		<a href="/Goods/GoodsInfo?GoodsCode=31">재즈 나잇</a>
		<p class="play-place">블루스퀘어</p>
		<p class="play-date">2025-12-24</p>
		<p class="ticket-price">45,000원</p>
	</div>
	<div class="card">
		<a href="/Goods/GoodsInfo?goodsCode=32"><img src="/poster.jpg" alt="어쿠스틱 라이브"></a>
	</div>
	<div class="card">
		<a href="javascript:void(0)?GoodsCode=33">링크 없음</a>
	</div>
</div>
</body></html>`

func parseTestPage(t *testing.T, markup string) Result {
	t.Helper()
	s := newTestScraper(&mockFetcher{}, nil)
	result, err := s.Parse(markup, testPageURL)
	require.NoError(t, err)
	return result
}

func TestParseContainerStrategy(t *testing.T) {
	result := parseTestPage(t, containerPage)

	assert.Equal(t, StrategyContainer, result.Strategy)
	assert.Equal(t, 3, result.Candidates)
	require.Len(t, result.Concerts, 2)

	first := result.Concerts[0]
	assert.Equal(t, "잔나비 전국투어 서울", first.Title)
	assert.Equal(t, "잔나비", first.Artist)
	assert.Equal(t, "올림픽홀", first.Venue)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 99000, first.Price)
	assert.Equal(t, "https://mticket.interpark.com/Goods/GoodsInfo?GoodsCode=25001", first.URL)
	assert.Equal(t, "Interpark", first.Source)

	second := result.Concerts[1]
	assert.Equal(t, "보러가기", second.Title)
	assert.Equal(t, concert.UnknownArtist, second.Artist)
	assert.Equal(t, "인터파크 티켓", second.Venue)
	assert.Equal(t, time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC), second.Date)
	assert.Equal(t, 0, second.Price)
	assert.Equal(t, "https://tickets.interpark.com/goods/25002", second.URL)
}

func TestParseLinkStrategy(t *testing.T) {
	result := parseTestPage(t, linkPage)

	assert.Equal(t, StrategyLink, result.Strategy)
	assert.Equal(t, 3, result.Candidates)
	require.Len(t, result.Concerts, 2)

	jazz := result.Concerts[0]
	assert.Equal(t, "재즈 나잇", jazz.Title)
	assert.Equal(t, concert.UnknownArtist, jazz.Artist)
	assert.Equal(t, "블루스퀘어", jazz.Venue)
	assert.Equal(t, time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC), jazz.Date)
	assert.Equal(t, 45000, jazz.Price)
	assert.Equal(t, "https://mticket.interpark.com/Goods/GoodsInfo?GoodsCode=31", jazz.URL)

	acoustic := result.Concerts[1]
	assert.Equal(t, "어쿠스틱 라이브", acoustic.Title)
	assert.Equal(t, "인터파크 티켓", acoustic.Venue)
	assert.Equal(t, concert.Day(fixedNow()), acoustic.Date)
	assert.Equal(t, 0, acoustic.Price)
}

func TestParseAnchorContainers(t *testing.T) {
	page := `<div>
		<a class="goods-item" href="/Goods/GoodsInfo?GoodsCode=1">Concert A</a>
		<a class="goods-item" href="/Goods/GoodsInfo?GoodsCode=2" title="Concert B"></a>
	</div>`

	result := parseTestPage(t, page)

	assert.Equal(t, StrategyContainer, result.Strategy)
	assert.Equal(t, 2, result.Candidates)
	require.Len(t, result.Concerts, 2)
	assert.Equal(t, "Concert A", result.Concerts[0].Title)
	assert.Equal(t, "https://mticket.interpark.com/Goods/GoodsInfo?GoodsCode=1", result.Concerts[0].URL)
	assert.Equal(t, "Concert B", result.Concerts[1].Title)
	assert.Equal(t, "https://mticket.interpark.com/Goods/GoodsInfo?GoodsCode=2", result.Concerts[1].URL)
}

func TestParseMixedCaseLinks(t *testing.T) {
	page := `<div><a href="/x?goodscode=1">소문자 공연</a></div><p><a href="/x?GOODSCODE=2">대문자 공연</a></p>`

	result := parseTestPage(t, page)

	assert.Equal(t, StrategyLink, result.Strategy)
	require.Len(t, result.Concerts, 2)
	assert.Equal(t, "소문자 공연", result.Concerts[0].Title)
	assert.Equal(t, "대문자 공연", result.Concerts[1].Title)
}

func TestParseNoCandidates(t *testing.T) {
	result := parseTestPage(t, `<html><body><p>공연이 없습니다</p></body></html>`)

	assert.Equal(t, StrategyNone, result.Strategy)
	assert.Equal(t, 0, result.Candidates)
	assert.Empty(t, result.Concerts)
}

func TestParseCapsRecords(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, `<li class="goodsItem"><a href="/Goods/GoodsInfo?GoodsCode=%d"><span class="title">공연 %d</span></a></li>`, i, i)
	}
	b.WriteString("</ul></body></html>")

	result := parseTestPage(t, b.String())

	assert.Equal(t, 25, result.Candidates)
	require.Len(t, result.Concerts, DefaultMaxRecords)
	assert.Equal(t, "공연 0", result.Concerts[0].Title)
	assert.Equal(t, "공연 19", result.Concerts[19].Title)
}

func TestParseCustomMaxRecords(t *testing.T) {
	s := newTestScraper(&mockFetcher{}, nil)
	s.MaxRecords = 1

	result, err := s.Parse(containerPage, testPageURL)
	require.NoError(t, err)
	require.Len(t, result.Concerts, 1)
	assert.Equal(t, "잔나비 전국투어 서울", result.Concerts[0].Title)
}

func TestParseClampsMaxRecords(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, `<li class="goodsItem"><span class="title">공연 %d</span></li>`, i)
	}

	s := newTestScraper(&mockFetcher{}, nil)
	s.MaxRecords = 50

	result, err := s.Parse(b.String(), testPageURL)
	require.NoError(t, err)
	assert.Len(t, result.Concerts, DefaultMaxRecords)
}

func TestParseDropsDuplicates(t *testing.T) {
	page := `<ul>
		<li class="goodsItem"><a href="/Goods/GoodsInfo?GoodsCode=1"><span class="title">같은 공연</span></a></li>
		<li class="goodsItem"><a href="/Goods/GoodsInfo?GoodsCode=1"><span class="title">같은 공연</span></a></li>
		<li class="goodsItem"><span class="title">같은 공연</span></li>
		<li class="goodsItem"><a href="/Goods/GoodsInfo?GoodsCode=2"><span class="title">같은 공연</span></a></li>
	</ul>`

	result := parseTestPage(t, page)

	require.Len(t, result.Concerts, 2)
	assert.True(t, strings.HasSuffix(result.Concerts[0].URL, "GoodsCode=1"))
	assert.True(t, strings.HasSuffix(result.Concerts[1].URL, "GoodsCode=2"))
}

func TestApplyHandlers(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div><a title="제목">  </a><span class="x">값</span></div>`))
	require.NoError(t, err)
	s := doc.Find("div")

	assert.Equal(t, "제목", applyHandlers(s, textOf(".missing"), firstAnchorText, firstAnchorTitle))
	assert.Equal(t, "값", applyHandlers(s, nil, textOf(".x")))
	assert.Equal(t, "", applyHandlers(s, textOf(""), textOf(".missing")))

	anchor := doc.Find("a")
	assert.Equal(t, "제목", firstAnchorTitle(anchor))
	assert.Equal(t, "", firstAnchorText(anchor))
}

func TestSafeExtractRecoversPanic(t *testing.T) {
	x := &extraction{source: "Interpark", log: newTestScraper(&mockFetcher{}, nil).log}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div></div>`))
	require.NoError(t, err)

	c, err := x.safeExtract(func(*goquery.Selection) (*concert.Concert, error) {
		panic("boom")
	}, doc.Find("div"))

	assert.Nil(t, c)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

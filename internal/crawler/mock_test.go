package crawler

import (
	"context"
	"sync"
	"time"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, &mockError{message: "cache miss"}
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

// mockFetcher returns canned markup or an error and counts its calls
type mockFetcher struct {
	markup string
	err    error
	panics bool
	calls  int
	urls   []string
}

func (m *mockFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	m.calls++
	m.urls = append(m.urls, targetURL)
	if m.panics {
		panic("driver crashed")
	}
	if m.err != nil {
		return "", m.err
	}
	return m.markup, nil
}

func (m *mockFetcher) Name() string { return "mock" }

// fixedNow pins the reference time used by scrapers under test
func fixedNow() time.Time {
	return time.Date(2025, 10, 19, 15, 30, 0, 0, time.UTC)
}

const testPageURL = "https://mticket.interpark.com/Genre/ConcertMain?invisible=N"

// newTestScraper creates a scraper with the default selectors and a fixed clock
func newTestScraper(f Fetcher, cacheSvc *MockCacheService) *Scraper {
	var s *Scraper
	if cacheSvc != nil {
		s = NewScraper("Interpark", testPageURL, f, cacheBlocker(cacheSvc))
	} else {
		s = NewScraper("Interpark", testPageURL, f, nil)
	}
	s.VenueFallback = "인터파크 티켓"
	s.Now = fixedNow
	return s
}

package normalize

import (
	"strconv"
	"strings"
)

// PriceKind tells how a price value was obtained
type PriceKind int

const (
	// PriceParsed means the digits in the text were read as the price
	PriceParsed PriceKind = iota
	// PriceFree means the text carried a free-of-charge marker
	PriceFree
	// PriceUnknown means there was nothing usable and the price defaulted to zero
	PriceUnknown
)

func (k PriceKind) String() string {
	switch k {
	case PriceParsed:
		return "parsed"
	case PriceFree:
		return "free"
	default:
		return "unknown"
	}
}

var freeMarkers = []string{"무료", "free"}

// PriceResult is a normalized non-negative price
type PriceResult struct {
	Value int
	Kind  PriceKind
}

// Price reads a price from listing text such as "12,000원".
// All digit characters are concatenated in order; thousands separators,
// currency words and ranges are not interpreted.
func Price(text string) PriceResult {
	if strings.TrimSpace(text) == "" {
		return PriceResult{Kind: PriceUnknown}
	}

	lower := strings.ToLower(text)
	for _, marker := range freeMarkers {
		if strings.Contains(lower, marker) {
			return PriceResult{Kind: PriceFree}
		}
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return PriceResult{Kind: PriceUnknown}
	}

	// Values beyond 32 bits are treated as unusable text
	v, err := strconv.ParseInt(digits, 10, 32)
	if err != nil {
		return PriceResult{Kind: PriceUnknown}
	}
	return PriceResult{Value: int(v), Kind: PriceParsed}
}

package crawler

import (
	"fmt"
	"strings"
	"time"

	"bito/concertworker/helpers"
	"bito/concertworker/internal/concert"
	"bito/concertworker/internal/normalize"
	"bito/concertworker/logger"
	apperrors "bito/concertworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// extractor turns one candidate element into a concert, or nil when it is not one
type extractor func(s *goquery.Selection) (*concert.Concert, error)

// extraction holds the per-page state the extractors need
type extraction struct {
	source        string
	venueFallback string
	pageURL       string
	today         time.Time
	sel           Selectors
	log           *logger.Logger
}

// applyHandlers returns the first non-empty value produced by handlers
func applyHandlers(s *goquery.Selection, handlers ...ElementHandler) string {
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if result := strings.TrimSpace(handler(s)); result != "" {
			return result
		}
	}
	return ""
}

// textOf returns a handler yielding the first non-blank text matched by selector
func textOf(selector string) ElementHandler {
	return func(s *goquery.Selection) string {
		if selector == "" {
			return ""
		}
		var out string
		s.Find(selector).EachWithBreak(func(_ int, e *goquery.Selection) bool {
			out = helpers.CollapseSpace(e.Text())
			return out == ""
		})
		return out
	}
}

// attrOf returns a handler yielding the first non-blank attribute matched by selector
func attrOf(selector, attr string) ElementHandler {
	return func(s *goquery.Selection) string {
		var out string
		s.Find(selector).EachWithBreak(func(_ int, e *goquery.Selection) bool {
			out = strings.TrimSpace(e.AttrOr(attr, ""))
			return out == ""
		})
		return out
	}
}

// ownText is the collapsed text of the selection itself
func ownText(s *goquery.Selection) string {
	return helpers.CollapseSpace(s.Text())
}

// ownAttr returns a handler reading an attribute of the selection itself
func ownAttr(attr string) ElementHandler {
	return func(s *goquery.Selection) string {
		return s.AttrOr(attr, "")
	}
}

// firstAnchor is the selection itself when it is an anchor, else its first descendant anchor
func firstAnchor(s *goquery.Selection) *goquery.Selection {
	return s.Filter("a").AddSelection(s.Find("a")).First()
}

// firstAnchorText is the text of the first anchor of the selection
func firstAnchorText(s *goquery.Selection) string {
	return helpers.CollapseSpace(firstAnchor(s).Text())
}

// firstAnchorTitle is the title attribute of the first anchor of the selection
func firstAnchorTitle(s *goquery.Selection) string {
	return firstAnchor(s).AttrOr("title", "")
}

// goodsLink resolves the href of the first goods anchor, the candidate itself included
func (x *extraction) goodsLink(s *goquery.Selection) string {
	anchors := s.Filter(x.sel.GoodsAnchor).AddSelection(s.Find(x.sel.GoodsAnchor))
	var link string
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		link = helpers.ResolveURL(x.pageURL, a.AttrOr("href", ""))
		return link == ""
	})
	return link
}

// build normalizes the raw fields into a concert
func (x *extraction) build(title, artist, venue, dateText, priceText, link string) *concert.Concert {
	date := normalize.Date(dateText, x.today)
	price := normalize.Price(priceText)

	if date.Defaulted && dateText != "" {
		x.log.Debug().Str("title", title).Str("date_text", dateText).Msg("Unparsable date, using today")
	}
	if price.Kind == normalize.PriceUnknown && priceText != "" {
		x.log.Debug().Str("title", title).Str("price_text", priceText).Msg("Unparsable price, using 0")
	}

	return &concert.Concert{
		Title:  title,
		Artist: helpers.FirstNonEmpty(artist, concert.UnknownArtist),
		Venue:  helpers.FirstNonEmpty(venue, x.venueFallback),
		Date:   date.Value,
		Price:  price.Value,
		URL:    link,
		Source: x.source,
	}
}

// fromContainer extracts a concert from an item container element
func (x *extraction) fromContainer(s *goquery.Selection) (*concert.Concert, error) {
	title := applyHandlers(s, textOf(x.sel.Title), firstAnchorText, firstAnchorTitle)
	if title == "" {
		return nil, nil
	}

	return x.build(
		title,
		applyHandlers(s, textOf(x.sel.Artist)),
		applyHandlers(s, textOf(x.sel.Venue)),
		applyHandlers(s, textOf(x.sel.Date)),
		applyHandlers(s, textOf(x.sel.Price)),
		x.goodsLink(s),
	), nil
}

// fromLink extracts a concert from a goods anchor, reading the other fields
// from the anchor's parent element
func (x *extraction) fromLink(s *goquery.Selection) (*concert.Concert, error) {
	link := helpers.ResolveURL(x.pageURL, s.AttrOr("href", ""))
	title := applyHandlers(s, ownText, ownAttr("title"), attrOf("img", "alt"))
	if title == "" || link == "" {
		return nil, nil
	}

	scope := s.Parent()
	if scope.Length() == 0 {
		scope = s
	}

	return x.build(
		title,
		"",
		applyHandlers(scope, textOf(x.sel.ScopeVenue)),
		applyHandlers(scope, textOf(x.sel.ScopeDate)),
		applyHandlers(scope, textOf(x.sel.ScopePrice)),
		link,
	), nil
}

// extractorFor returns the extractor matching the strategy
func (x *extraction) extractorFor(strategy Strategy) extractor {
	switch strategy {
	case StrategyContainer:
		return x.fromContainer
	case StrategyLink:
		return x.fromLink
	default:
		return nil
	}
}

// safeExtract runs fn and turns a panic inside it into an extraction error
func (x *extraction) safeExtract(fn extractor, s *goquery.Selection) (c *concert.Concert, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = apperrors.NewExtraction(x.source, "candidate extraction panicked", fmt.Errorf("%v", r))
		}
	}()

	c, err = fn(s)
	if err != nil {
		return nil, apperrors.NewExtraction(x.source, "candidate extraction failed", err)
	}
	return c, nil
}

// extractAll runs the strategy's extractor over the candidates in order and stops
// after limit concerts. Failing candidates are skipped. A later candidate that repeats
// an earlier title without a different URL is dropped as a duplicate.
func (x *extraction) extractAll(cands Candidates, limit int) []concert.Concert {
	fn := x.extractorFor(cands.Strategy)
	if fn == nil || cands.Len() == 0 {
		return nil
	}

	concerts := make([]concert.Concert, 0, min(cands.Len(), limit))
	seen := make(map[string][]string)

	cands.Selection.EachWithBreak(func(i int, s *goquery.Selection) bool {
		c, err := x.safeExtract(fn, s)
		if err != nil {
			x.log.Debug().Err(err).Int("candidate", i).Msg("Skipping candidate")
			return true
		}
		if c == nil {
			return true
		}

		// Without a URL a repeated title cannot be told apart from the earlier listing
		if isDuplicate(seen[c.Title], c.URL) {
			return true
		}
		seen[c.Title] = append(seen[c.Title], c.URL)

		concerts = append(concerts, *c)
		return len(concerts) < limit
	})

	return concerts
}

func isDuplicate(urls []string, url string) bool {
	for _, u := range urls {
		if url == "" || u == url {
			return true
		}
	}
	return false
}

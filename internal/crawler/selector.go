package crawler

import (
	"github.com/PuerkitoBio/goquery"
)

// Candidates are the elements picked as plausible listing items
type Candidates struct {
	Strategy  Strategy
	Selection *goquery.Selection
}

// Len returns the number of candidate elements
func (c Candidates) Len() int {
	if c.Selection == nil {
		return 0
	}
	return c.Selection.Length()
}

// SelectCandidates applies the container strategy and falls back to the link
// strategy when it finds nothing. Elements are in document order.
func SelectCandidates(doc *goquery.Document, sel Selectors) Candidates {
	if sel.Container != "" {
		if items := doc.Find(sel.Container); items.Length() > 0 {
			return Candidates{Strategy: StrategyContainer, Selection: items}
		}
	}

	if sel.Link != "" {
		if links := doc.Find(sel.Link); links.Length() > 0 {
			return Candidates{Strategy: StrategyLink, Selection: links}
		}
	}

	return Candidates{Strategy: StrategyNone, Selection: doc.Selection.Slice(0, 0)}
}

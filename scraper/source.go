package scraper

import (
	"context"
	"encoding/json"
	"fmt"

	"upsolve/browser"
)

const (
	contestTableSelector = ".user-contests-table"
	statementSelector    = ".problem-statement"
)

// contestLinksScript collects the standings link of every contest row.
const contestLinksScript = `() => JSON.stringify(
  Array.from(document.querySelectorAll(".user-contests-table > tbody > tr > td:nth-child(4) > a"))
    .map((a) => a.href)
)`

// statementSectionsScript flattens each child of the statement node. Index
// markers become math spans, images get a light background hook, and the
// body and note children keep their markup minus the duplicate MathJax
// output; every other child keeps visible text only.
const statementSectionsScript = `() => {
  const root = document.querySelector(".problem-statement");
  if (!root) throw new Error("problem statement not found");
  return JSON.stringify(Array.from(root.children).map((child, index) => {
    child.querySelectorAll(".upper-index").forEach((el) => {
      el.replaceWith(document.createTextNode("$$$^" + el.textContent + "$$$"));
    });
    child.querySelectorAll(".lower-index").forEach((el) => {
      el.replaceWith(document.createTextNode("$$$_" + el.textContent + "$$$"));
    });
    child.querySelectorAll("img").forEach((el) => el.classList.add("bg-white"));
    if (index === 1 || index === 5) {
      child.querySelectorAll(".MathJax, .MathJax_Preview, .section-title").forEach((el) => el.remove());
      return child.innerHTML;
    }
    return child.innerText;
  }));
}`

// PageSource is the browser-facing half of the scraper. Keeping it behind an
// interface lets the evasion and fetch strategy change without touching the
// parsing code.
type PageSource interface {
	// ContestLinks returns the standings link of every contest on a
	// contest-history page, in page order.
	ContestLinks(ctx context.Context, historyURL string) ([]string, error)
	// StatementSections returns the flattened children of a problem's
	// statement node, in DOM order.
	StatementSections(ctx context.Context, problemURL string) ([]string, error)
}

// BrowserSource implements PageSource with one fresh browser session per call.
type BrowserSource struct {
	manager *browser.Manager
}

func NewBrowserSource(m *browser.Manager) *BrowserSource {
	return &BrowserSource{manager: m}
}

func (b *BrowserSource) ContestLinks(ctx context.Context, historyURL string) ([]string, error) {
	var links []string
	err := b.manager.WithSession(ctx, func(ctx context.Context, s *browser.Session) error {
		if err := s.Navigate(ctx, historyURL); err != nil {
			return err
		}
		has, err := s.Has(ctx, contestTableSelector)
		if err != nil {
			return fmt.Errorf("query %s: %w", contestTableSelector, err)
		}
		if !has {
			return fmt.Errorf("%w: %s missing on %s", ErrScrapeStructure, contestTableSelector, historyURL)
		}
		out, err := s.EvalString(ctx, contestLinksScript)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(out), &links)
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (b *BrowserSource) StatementSections(ctx context.Context, problemURL string) ([]string, error) {
	var sections []string
	err := b.manager.WithSession(ctx, func(ctx context.Context, s *browser.Session) error {
		// Math must stay as literal delimiters, so MathJax is kept from running.
		if err := s.DisableScripts(ctx); err != nil {
			return err
		}
		if err := s.Navigate(ctx, problemURL); err != nil {
			return err
		}
		if err := s.WaitFor(ctx, statementSelector); err != nil {
			return err
		}
		out, err := s.EvalString(ctx, statementSectionsScript)
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(out), &sections); err != nil {
			return fmt.Errorf("%w: decode sections: %v", ErrScrapeStructure, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sections, nil
}

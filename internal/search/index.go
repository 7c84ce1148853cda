// Package search provides a small, deterministic, concurrency-safe in-memory
// index over short documents such as the service taxonomy. It is used by the
// provider search endpoint to suggest directory topics for free-text queries.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options for stop words, minimum length and document caps
//   - Unicode-aware tokenization; query tokens of three or more runes also
//     match as prefixes ("plumb" finds "plumbing")
//   - Immutable after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Document is one searchable entry. ID is returned with results; Text is
// what gets tokenized.
type Document struct {
	ID   string
	Text string
}

// Result is a ranked document id with its similarity score.
type Result struct {
	ID    string
	Score float64
}

// Option configures NewIndex.
type Option func(*config)

type config struct {
	minRunes  int
	stopwords map[string]struct{}
	maxDocs   int
	minPrefix int
}

func defaultConfig() config {
	return config{minPrefix: 3}
}

// WithMinRunes skips documents shorter than n runes.
func WithMinRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minRunes = n
		}
	}
}

// WithStopwords drops the given words from documents and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many documents are indexed.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// WithMinPrefix sets the shortest query token allowed to match as a prefix.
// Zero disables prefix matching.
func WithMinPrefix(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minPrefix = n
		}
	}
}

type doc struct {
	id     string
	text   string
	tokens map[string]struct{}
}

// Index is an immutable document index.
type Index struct {
	cfg  config
	docs []doc
}

// NewIndex tokenizes docs. Blank documents and documents without tokens are
// skipped.
func NewIndex(docs []Document, opts ...Option) *Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	out := make([]doc, 0, len(docs))
	for _, d := range docs {
		t := strings.TrimSpace(normalizeWhitespace(d.Text))
		if t == "" {
			continue
		}
		if cfg.minRunes > 0 && utf8.RuneCountInString(t) < cfg.minRunes {
			continue
		}
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		out = append(out, doc{id: d.ID, text: t, tokens: toks})
		if cfg.maxDocs > 0 && len(out) >= cfg.maxDocs {
			break
		}
	}
	return &Index{cfg: cfg, docs: out}
}

// Len reports how many documents were indexed.
func (i *Index) Len() int { return len(i.docs) }

// TopK returns up to k best-matching documents. k <= 0 means 3.
func (i *Index) TopK(q string, k int) []Result {
	if i == nil || len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	type scored struct {
		id       string
		score    float64
		lenRunes int
	}
	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens, i.cfg.minPrefix)
		if over == 0 {
			continue
		}
		union := float64(len(qTokens) + len(d.tokens) - over)
		if union <= 0 {
			continue
		}
		buf = append(buf, scored{
			id:       d.id,
			score:    float64(over) / union,
			lenRunes: utf8.RuneCountInString(d.text),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].id < buf[b].id
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = Result{ID: buf[n].id, Score: buf[n].score}
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

// overlap counts query tokens found in d, exactly or, when long enough, as a
// prefix of some document token.
func overlap(q, d map[string]struct{}, minPrefix int) int {
	if len(q) == 0 || len(d) == 0 {
		return 0
	}
	n := 0
	for w := range q {
		if _, ok := d[w]; ok {
			n++
			continue
		}
		if minPrefix == 0 || utf8.RuneCountInString(w) < minPrefix {
			continue
		}
		for dw := range d {
			if strings.HasPrefix(dw, w) {
				n++
				break
			}
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

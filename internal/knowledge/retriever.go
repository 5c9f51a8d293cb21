// Package knowledge serves store policy and FAQ snippets relevant to a
// request. It is a keyword precursor to a vector retriever: same contract,
// simpler scoring.
package knowledge

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shophub-ai/assistant"
	"gopkg.in/yaml.v3"
)

//go:embed docs.yaml
var defaultDocs []byte

// Document is one retrievable policy or FAQ entry.
type Document struct {
	Title    string   `yaml:"title"`
	Keywords []string `yaml:"keywords"`
	Body     string   `yaml:"body"`
}

type docsFile struct {
	Documents []Document `yaml:"documents"`
}

// KeywordRetriever scores documents by keyword overlap with the query and
// returns the best matches joined into one context block.
type KeywordRetriever struct {
	documents []Document
	topN      int
	logger    zerolog.Logger
}

// Option configures a KeywordRetriever.
type Option func(*KeywordRetriever)

// WithTopN bounds how many documents one retrieval returns.
func WithTopN(n int) Option {
	return func(r *KeywordRetriever) {
		if n > 0 {
			r.topN = n
		}
	}
}

// WithLogger sets the retriever's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *KeywordRetriever) {
		r.logger = logger
	}
}

// NewKeywordRetriever creates a retriever over the embedded document set.
func NewKeywordRetriever(options ...Option) *KeywordRetriever {
	r, err := NewKeywordRetrieverFromYAML(defaultDocs, options...)
	if err != nil {
		panic(fmt.Sprintf("embedded knowledge documents are invalid: %v", err))
	}
	return r
}

// NewKeywordRetrieverFromYAML creates a retriever over a YAML document set.
func NewKeywordRetrieverFromYAML(data []byte, options ...Option) (*KeywordRetriever, error) {
	var file docsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, assistant.NewRetrievalError(err)
	}

	r := &KeywordRetriever{
		documents: file.Documents,
		topN:      2,
		logger:    zerolog.Nop(),
	}
	for _, option := range options {
		option(r)
	}
	return r, nil
}

// Retrieve implements assistant.KnowledgeRetriever. An empty string means
// nothing relevant was found; that is not an error.
func (r *KeywordRetriever) Retrieve(ctx context.Context, query string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	words := tokenize(query)
	if len(words) == 0 {
		return "", nil
	}

	type scored struct {
		doc   Document
		score int
		index int
	}
	var matches []scored
	for i, doc := range r.documents {
		score := 0
		for _, keyword := range doc.Keywords {
			if words[strings.ToLower(keyword)] {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{doc: doc, score: score, index: i})
		}
	}
	if len(matches) == 0 {
		return "", nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].index < matches[j].index
	})
	if len(matches) > r.topN {
		matches = matches[:r.topN]
	}

	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.doc.Title)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(m.doc.Body))
	}

	r.logger.Debug().Int("matched", len(matches)).Msg("knowledge retrieved")
	return b.String(), nil
}

// tokenize lowercases the query and splits it into a word set.
func tokenize(query string) map[string]bool {
	words := map[string]bool{}
	for _, field := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		words[field] = true
	}
	return words
}

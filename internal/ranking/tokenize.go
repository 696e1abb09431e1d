// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package ranking

import (
	"strings"
	"unicode"

	"github.com/Maphari/the-news-sub000/internal/models"
)

// stopWords are excluded from tokenization. The set is fixed; query and
// item tokens go through the same filter so affinity lookups line up.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "is": {}, "are": {}, "was": {},
	"with": {}, "by": {}, "from": {}, "as": {}, "it": {}, "its": {},
	"this": {}, "that": {}, "be": {}, "has": {}, "have": {}, "had": {},
	"not": {}, "but": {}, "what": {}, "when": {}, "how": {}, "why": {},
	"who": {}, "will": {}, "would": {}, "can": {}, "could": {}, "you": {},
	"your": {}, "we": {}, "our": {}, "they": {}, "their": {}, "new": {},
	"about": {}, "after": {}, "over": {}, "into": {}, "more": {},
}

// minTokenLength is the minimum length of a normalized token.
const minTokenLength = 2

// Tokenize splits free text into normalized lowercase alphanumeric tokens
// of length >= 2, excluding stop words. Duplicate tokens are preserved;
// callers that need a set deduplicate themselves.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLength {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// ItemTokens returns the deduplicated token set of an item's title and
// keyword fields, used for keyword affinity on both sides: accumulating a
// user's keyword weights and scoring a candidate against them.
func ItemTokens(item *models.CandidateItem) []string {
	seen := make(map[string]struct{})
	tokens := make([]string, 0, 16)

	add := func(tok string) {
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	for _, tok := range Tokenize(item.Title) {
		add(tok)
	}
	for _, kw := range item.Keywords {
		for _, tok := range Tokenize(kw) {
			add(tok)
		}
	}
	return tokens
}

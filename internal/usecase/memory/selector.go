// Package memory selects which prior conversation turns to reinject
// into a new prompt, scored by keyword overlap with the current
// question.
package memory

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/askdocs/askdocs/internal/domain"
)

const (
	// DefaultMax bounds how many prior turns are injected.
	DefaultMax = 3
	// recentWindow bounds how far back selection looks, for bounded cost.
	recentWindow = 50
)

// stopwords are dropped during keyword extraction.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "are": {}, "was": {}, "were": {}, "for": {},
	"with": {}, "from": {}, "into": {}, "about": {}, "what": {}, "which": {},
	"who": {}, "whom": {}, "when": {}, "where": {}, "how": {}, "why": {},
	"does": {}, "did": {}, "can": {}, "could": {}, "would": {}, "should": {},
	"have": {}, "has": {}, "had": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "there": {}, "their": {}, "they": {}, "you": {}, "your": {},
	"not": {}, "but": {}, "all": {}, "any": {}, "its": {}, "our": {},
	"please": {}, "tell": {},
}

// continuationCues mark under-specified follow-up questions that are
// almost always about the immediately preceding exchange.
var continuationCues = []string{
	"that", "this", "it", "related", "above", "previous", "earlier", "mentioned",
}

var continuationPhrases = []string{
	"the above", "as before", "you said", "you mentioned",
}

// locatorPattern matches structured reference locators (clause/section
// numbers) in questions and answers.
var locatorPattern = regexp.MustCompile(
	`(?i)\b(?:article|section|clause|paragraph|item|chapter)\s+\d+(?:\.\d+)*\b|§\s*\d+`)

// locatorWords flag questions that ask about such locators.
var locatorWords = map[string]struct{}{
	"article": {}, "section": {}, "clause": {}, "paragraph": {},
	"item": {}, "chapter": {}, "provision": {}, "regulation": {},
}

// Keywords extracts the keyword set of text: lowercased alphanumeric
// tokens, at least three runes, stopwords removed. Order follows first
// appearance; tokens are de-duplicated.
func Keywords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{})
	var keywords []string
	for _, tok := range tokens {
		if len([]rune(tok)) < 3 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}

// Select returns the prior turns worth injecting for question, most
// relevant first, at most max. Only the most recent turns are
// considered. Continuation questions and questions with too few
// keywords short-circuit to the single most recent turn. Otherwise
// turns are scored by keyword overlap, boosted when the question asks
// about reference locators and a turn's answer contains them; ties
// break toward recency.
func Select(question string, history []domain.Turn, max int) []domain.Turn {
	if len(history) == 0 || max <= 0 {
		return nil
	}
	recent := history
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	qKeywords := Keywords(question)
	if len(qKeywords) < 2 || isContinuation(question) {
		return []domain.Turn{recent[len(recent)-1]}
	}

	qSet := make(map[string]struct{}, len(qKeywords))
	for _, k := range qKeywords {
		qSet[k] = struct{}{}
	}
	locatorQuestion := asksAboutLocator(question)

	type scored struct {
		score float64
		pos   int
	}
	var candidates []scored
	for i, turn := range recent {
		overlap := 0
		for _, k := range Keywords(turn.Question + " " + turn.Answer) {
			if _, ok := qSet[k]; ok {
				overlap++
			}
		}
		if locatorQuestion {
			overlap += 2 * len(locatorPattern.FindAllString(turn.Answer, -1))
		}
		if overlap == 0 {
			continue
		}
		candidates = append(candidates, scored{
			score: float64(overlap) / float64(len(qKeywords)),
			pos:   i,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].pos > candidates[j].pos
	})

	if len(candidates) > max {
		candidates = candidates[:max]
	}
	selected := make([]domain.Turn, len(candidates))
	for i, c := range candidates {
		selected[i] = recent[c.pos]
	}
	return selected
}

// isContinuation reports whether question carries a context-continuation
// cue ("that", "related", "the above", ...).
func isContinuation(question string) bool {
	lower := strings.ToLower(question)
	for _, phrase := range continuationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		for _, cue := range continuationCues {
			if tok == cue {
				return true
			}
		}
	}
	return false
}

// asksAboutLocator reports whether question references a structured
// locator like a clause or section number.
func asksAboutLocator(question string) bool {
	if locatorPattern.MatchString(question) {
		return true
	}
	tokens := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if _, ok := locatorWords[tok]; ok {
			return true
		}
	}
	return false
}

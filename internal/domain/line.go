package domain

import "strings"

// Separator splits a quote line into body and author.
const Separator = "-"

// quotePairs are the enclosing quotation marks stripped from paragraph bodies.
var quotePairs = [][2]string{
	{`"`, `"`},
	{"“", "”"},
}

// ParseLine turns one raw "BODY - AUTHOR" line into a Quote.
//
// The line is split on the first separator only, so hyphens after it stay in the
// author segment. A line without a separator, or with an empty side after trimming,
// fails with a *MalformedLineError.
func ParseLine(raw string) (Quote, error) {
	body, author, ok := strings.Cut(raw, Separator)
	if !ok {
		return Quote{}, NewMalformedLineError(strings.TrimSpace(raw), "no separator")
	}

	q, err := NewQuote(body, author)
	if err != nil {
		return Quote{}, NewMalformedLineError(strings.TrimSpace(raw), reasonOf(err))
	}

	return q, nil
}

// ParseQuotedLine is ParseLine for sources that wrap the body in quotation marks.
// A single pair of enclosing double quotes is removed from the body.
func ParseQuotedLine(raw string) (Quote, error) {
	q, err := ParseLine(raw)
	if err != nil {
		return Quote{}, err
	}

	body := unquote(q.Body)
	if body == q.Body {
		return q, nil
	}

	unquoted, err := NewQuote(body, q.Author)
	if err != nil {
		return Quote{}, NewMalformedLineError(strings.TrimSpace(raw), reasonOf(err))
	}

	return unquoted, nil
}

func unquote(s string) string {
	for _, pair := range quotePairs {
		if len(s) >= len(pair[0])+len(pair[1]) &&
			strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return s[len(pair[0]) : len(s)-len(pair[1])]
		}
	}

	return s
}

func reasonOf(err error) string {
	if mle, ok := err.(*MalformedLineError); ok {
		return mle.Reason
	}

	return err.Error()
}

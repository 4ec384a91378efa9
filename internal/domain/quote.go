// Package domain contains core business entities and rules.
package domain

import (
	"fmt"
	"strings"
)

// Quote represents a quotation with its author.
// This is a domain entity - it has no knowledge of the file it was decoded from.
// Quotes are values: two quotes are equal when body and author are equal.
type Quote struct {
	// Body is the text of the quote.
	Body string `json:"body"`

	// Author is who said or wrote the quote.
	Author string `json:"author"`
}

// NewQuote creates a quote from raw body and author fields.
// Surrounding whitespace is trimmed and both fields must be non-empty afterwards.
func NewQuote(body, author string) (Quote, error) {
	body = strings.TrimSpace(body)
	author = strings.TrimSpace(author)

	switch {
	case body == "" && author == "":
		return Quote{}, NewMalformedLineError("", "body and author are empty")
	case body == "":
		return Quote{}, NewMalformedLineError(author, "body is empty")
	case author == "":
		return Quote{}, NewMalformedLineError(body, "author is empty")
	}

	return Quote{Body: body, Author: author}, nil
}

// String renders the quote the way captions print it.
func (q Quote) String() string {
	return fmt.Sprintf("%q - %s", q.Body, q.Author)
}

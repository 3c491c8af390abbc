package utils

import "github.com/microcosm-cc/bluemonday"

// Free-text fields (smoking notes, quit reason) are plain text: strip all markup.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips any HTML from user supplied free text.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

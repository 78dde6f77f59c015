package helpers

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonPriceChars = regexp.MustCompile(`[^0-9.]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	digitRun      = regexp.MustCompile(`\d+`)
)

// CleanPrice strips every character that is not a digit or decimal point and
// parses the remainder as a float. Empty or unparseable input yields 0.0.
// "$1,234.56" becomes 1234.56 because the comma is stripped, not because it is
// understood as a thousands separator.
func CleanPrice(raw string) float64 {
	stripped := nonPriceChars.ReplaceAllString(raw, "")
	if stripped == "" {
		return 0
	}
	price, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0
	}
	return price
}

// CleanText collapses runs of whitespace to a single space and trims the result.
func CleanText(raw string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
}

// Absolutize prefixes a scraped link with the base origin unless it already
// carries an http(s) scheme.
func Absolutize(link, baseOrigin string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return baseOrigin + link
}

// ValidateURL returns the URL unchanged when it parses as an absolute URL,
// otherwise the empty string.
func ValidateURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return raw
}

// ExtractNumber returns the first run of digits in text as an integer, or the
// default when no digits are present.
func ExtractNumber(text string, defaultValue int) int {
	match := digitRun.FindString(text)
	if match == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return defaultValue
	}
	return n
}

// Package redact scrubs secrets and personal data from error text before it
// is logged. Identifiers such as todo and user UUIDs are left intact so log
// lines stay correlatable.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	Placeholder           = "[REDACTED]"
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	HashPlaceholder       = "[REDACTED_HASH]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	StackPlaceholder      = "[REDACTED_STACK]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules run in order; later rules see the output of earlier ones.
var rules = []rule{
	// Everything from a panic or goroutine dump onwards.
	{regexp.MustCompile(`(?:panic:|goroutine \d+ \[)[\s\S]*`), StackPlaceholder},

	// userinfo in postgres://, redis:// and similar URLs; host and path are kept.
	{regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^/\s:@]*:[^/\s@]+@`), "${1}" + CredentialPlaceholder + "@"},

	{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/-]+=*`), "Bearer " + TokenPlaceholder},
	{regexp.MustCompile(`eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`), TokenPlaceholder},
	{regexp.MustCompile(`\$2[abxy]?\$\d{2}\$[./A-Za-z0-9]{53}`), HashPlaceholder},

	// key=value and key: value pairs such as password=..., refresh_token: ...
	{
		regexp.MustCompile(`(?i)([a-z_]*(?:password|passwd|pwd|secret|api[_-]?key|token))(\s*[=:]\s*)['"]?[^'"&\s,\[][^'"&\s,]*['"]?`),
		"${1}${2}" + Placeholder,
	},

	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},

	// Single-quoted SQL literals carry user data.
	{regexp.MustCompile(`'(?:[^']|'')*'`), "'" + Placeholder + "'"},

	{regexp.MustCompile(`(^|\s)(/[\w.-]+){2,}`), "${1}" + PathPlaceholder},
}

// String returns input with every sensitive fragment replaced.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.replacement)
	}
	return input
}

// Error redacts err.Error(). A nil error yields the empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

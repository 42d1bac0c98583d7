package offline

import (
	"net/http"
	"regexp"
	"strconv"
)

var statusPrefix = regexp.MustCompile(`^\[(\d+)\] *`)

// extractStatus derives an HTTP status code from a failure message. A
// leading bracketed integer prefix like "[401]" selects that status and is
// stripped from the display message; anything else defaults to 500 with the
// message unmodified. Only custom integrations consult this rule.
func extractStatus(message string) (int, string) {
	m := statusPrefix.FindStringSubmatch(message)
	if m == nil {
		return http.StatusInternalServerError, message
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return http.StatusInternalServerError, message
	}
	return code, message[len(m[0]):]
}

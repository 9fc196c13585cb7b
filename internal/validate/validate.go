package validate

import (
	"fmt"
	"strings"
)

const MaxVideoPathLength = 1024

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

// VideoPath checks a storage key supplied by a client. It returns an empty
// string when the key is acceptable, otherwise a user-facing message.
func VideoPath(s string) string {
	if s == "" {
		return "path is required"
	}
	if msg := checkLen(s, MaxVideoPathLength, "path"); msg != "" {
		return msg
	}
	for _, segment := range strings.Split(s, "/") {
		if segment == ".." {
			return "path must not contain relative segments"
		}
	}
	return ""
}

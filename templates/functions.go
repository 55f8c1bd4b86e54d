package templates

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// GetTemplateFunc returns the template functions of the HTML report
func GetTemplateFunc() template.FuncMap {
	return template.FuncMap{
		"msToTime":        MsToTime,
		"rootStatusClass": RootStatusClass,
		"testStateClass":  TestStateClass,
		"shortFile":       ShortFile,
	}
}

// MsToTime formats milliseconds as s.ms for short durations, m:s below an
// hour and h:m:s above
func MsToTime(ms int64) string {
	rest := ms % 1000
	s := ms / 1000
	secs := s % 60
	s /= 60
	mins := s % 60
	hrs := s / 60

	switch {
	case hrs <= 0 && mins <= 0:
		return fmt.Sprintf("%d.%ds", secs, rest)
	case hrs <= 0:
		return fmt.Sprintf("%d:%d", mins, secs)
	default:
		return fmt.Sprintf("%d:%d:%d", hrs, mins, secs)
	}
}

// RootStatusClass picks the CSS status class of a file root. Failures win
// over skips, skips over unknown states, and those over passes.
func RootStatusClass(c *types.AggregateCount) string {
	if c == nil {
		return ""
	}
	switch {
	case c.FailCount > 0:
		return "fail"
	case c.SkipCount > 0:
		return "skip"
	case c.UnknownCount > 0:
		return "unknown_state"
	case c.PassCount > 0:
		return "pass"
	}
	return ""
}

// TestStateClass returns the CSS status class of a test
func TestStateClass(state types.TestState) string {
	switch state {
	case types.TestStatePass:
		return "pass"
	case types.TestStateFail:
		return "fail"
	case types.TestStatePending:
		return "skip"
	default:
		return "unknown_state"
	}
}

// ShortFile trims root from the front of file for display
func ShortFile(file, root string) string {
	if root == "" {
		return file
	}
	if i := strings.Index(file, root); i >= 0 {
		return strings.TrimPrefix(file[i+len(root):], "/")
	}
	return file
}

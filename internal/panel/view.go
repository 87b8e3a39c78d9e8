// Package panel holds the province/constituency view state and the controller
// that drives it. It knows nothing about terminals: a renderer reads View and
// forwards user events to the Controller.
package panel

import (
	"fmt"
	"strings"
)

// State is the lifecycle of the constituency panel.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePopulated
	StateEmpty
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Notice is the single placeholder row shown instead of results.
type Notice int

const (
	NoticeNone Notice = iota
	NoticeEmpty
	NoticeError
)

// Placeholder and notice texts.
const (
	PlaceholderLabel     = "Select a province"
	FailedProvincesLabel = "Failed to load provinces"
	EmptyNoticeText      = "No constituencies found."
	ErrorNoticeText      = "Failed to load data. Please try again."
)

// Text returns the row text of the notice.
func (n Notice) Text() string {
	switch n {
	case NoticeEmpty:
		return EmptyNoticeText
	case NoticeError:
		return ErrorNoticeText
	default:
		return ""
	}
}

// Option is one entry of the province selector. The placeholder has an empty Value.
type Option struct {
	Value string
	Label string
}

// Row is one rendered constituency.
type Row struct {
	Text   string
	Hidden bool
}

// View is the complete state a renderer needs.
type View struct {
	Options          []Option
	SelectorDisabled bool
	Selected         string

	Rows   []Row
	Notice Notice

	Loading       bool
	FilterVisible bool
	FilterFocused bool
	FilterText    string

	State      State
	Generation uint64
}

// VisibleRows returns the texts of rows not hidden by the filter, in order.
func (v View) VisibleRows() []string {
	out := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		if !r.Hidden {
			out = append(out, r.Text)
		}
	}
	return out
}

// clone copies the slices so callers cannot mutate controller state.
func (v View) clone() View {
	out := v
	if v.Options != nil {
		out.Options = append([]Option(nil), v.Options...)
	}
	if v.Rows != nil {
		out.Rows = append([]Row(nil), v.Rows...)
	}
	return out
}

// matches reports whether text contains term, ignoring case.
func matches(text, term string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(term))
}

package fetchwork

// Action is the classification of a single response: it tells the
// request loop whether to stop and with what, or to follow a redirect.
type Action int

const (
	// ActionSuccess terminates the loop with a usable response.
	ActionSuccess Action = iota
	// ActionNotModified terminates the loop; the caller's cached copy
	// is still valid.
	ActionNotModified
	// ActionRedirect continues the loop at the Location target.
	ActionRedirect
	// ActionError terminates the loop with a status failure.
	ActionError
)

func (a Action) String() string {
	switch a {
	case ActionSuccess:
		return "success"
	case ActionNotModified:
		return "not-modified"
	case ActionRedirect:
		return "redirect"
	default:
		return "error"
	}
}

// Classify maps a status code to the loop action.
// Redirect-following is an allow-list: 3xx codes outside the list
// (including 308) classify as errors, not redirects.
func Classify(statusCode int) Action {
	switch statusCode {
	case 200:
		return ActionSuccess
	case 304:
		return ActionNotModified
	case 301, 302, 303, 307:
		return ActionRedirect
	default:
		return ActionError
	}
}

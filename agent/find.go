package agent

import (
	"context"
	"fmt"

	"github.com/agext/levenshtein"
)

// Find lists runtimes and returns the one with the given name.
//
// If no runtime matches, the returned error has kind NotFound and matches
// ErrNotFound. When a runtime with a similar name exists, it is suggested in
// the error message. Listing failures have kind Remote.
func Find(ctx context.Context, l Lister, name string) (*Runtime, error) {
	list, err := l.ListRuntimes(ctx)
	if err != nil {
		return nil, &Error{Kind: Remote, Op: "list runtimes", Err: err}
	}
	names := make([]string, len(list))
	for i := range list {
		if list[i].Name == name {
			rt := list[i]
			return &rt, nil
		}
		names[i] = list[i].Name
	}
	err = ErrNotFound
	if s := suggest(name, names); s != "" {
		err = &suggestionError{err: ErrNotFound, suggestion: s}
	}
	return nil, &Error{Kind: NotFound, Op: "find", Name: name, Err: err}
}

type suggestionError struct {
	err        error
	suggestion string
}

func (e *suggestionError) Error() string {
	return fmt.Sprintf("%v, did you mean %q?", e.err, e.suggestion)
}

func (e *suggestionError) Unwrap() error { return e.err }

// suggest returns the candidate closest to want, or an empty string if none
// is close enough.
//
// At most one edit per five characters is allowed, with a minimum of one.
func suggest(want string, candidates []string) string {
	maxDist := len(want) / 5
	if maxDist == 0 {
		maxDist = 1
	}

	var best string
	dist := maxDist + 1
	for _, cand := range candidates {
		if cand == want {
			return cand
		}
		if d := levenshtein.Distance(want, cand, nil); d < dist {
			best, dist = cand, d
		}
	}
	return best
}

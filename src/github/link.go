package github

import (
	"fmt"
	"strings"

	"baobab/src/provider"
)

const (
	relNext = `rel="next"`
	relPrev = `rel="prev"`
)

// Link holds the cursor URLs from a Link response header. Nil means absent.
type Link struct {
	Prev *string
	Next *string
}

// ParseLink parses a header value of the form `<url>; rel="next", <url>; rel="prev"`.
// Segments with other rels are ignored. A segment that does not split into exactly
// a URL and a rel, or whose URL lacks angle brackets, fails with *provider.ParseError.
func ParseLink(value string) (Link, error) {
	var link Link

	for _, segment := range strings.Split(value, ",") {
		parts := strings.Split(segment, ";")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		if len(parts) != 2 {
			return Link{}, &provider.ParseError{
				Segment: strings.TrimSpace(segment),
				Reason:  fmt.Sprintf("expected 2 parts, got %d", len(parts)),
			}
		}

		target := parts[0]
		if len(target) < 2 || target[0] != '<' || target[len(target)-1] != '>' {
			return Link{}, &provider.ParseError{
				Segment: strings.TrimSpace(segment),
				Reason:  "URL is not enclosed in angle brackets",
			}
		}
		url := target[1 : len(target)-1]

		switch parts[1] {
		case relNext:
			link.Next = &url
		case relPrev:
			link.Prev = &url
		}
	}

	return link, nil
}

// String renders the link back into header form.
func (l Link) String() string {
	var segments []string
	if l.Next != nil {
		segments = append(segments, fmt.Sprintf("<%s>; %s", *l.Next, relNext))
	}
	if l.Prev != nil {
		segments = append(segments, fmt.Sprintf("<%s>; %s", *l.Prev, relPrev))
	}
	return strings.Join(segments, ", ")
}

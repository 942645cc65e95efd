package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// SetLinkHeaders emits RFC 8288 Link relations (first/prev/next/last) for
// the current page against the request path.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	path := c.Path()
	link := func(rel string, offset int) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, path, offset, p.Limit, rel)
	}

	links := []string{link("first", 0)}

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, link("prev", prev))
	}
	if next := p.Offset + p.Limit; next < p.Total {
		links = append(links, link("next", next))
	}

	last := p.Total - p.Limit
	if last < 0 {
		last = 0
	}
	links = append(links, link("last", last))

	c.Set("Link", strings.Join(links, ", "))
}

package pagination

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds limit/offset paging taken from the query string.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads ?limit= and ?offset=, clamping limit to [1, MaxLimit].
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset never goes below zero.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}

// Links holds navigation URLs for a page. Empty fields are omitted.
type Links struct {
	Self     string `json:"self"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
	Links   *Links      `json:"links,omitempty"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.HasNext(total),
	}
}

// WithLinks fills in navigation links relative to basePath, carrying over
// any extra query values (filters) from query.
func (r *Response) WithLinks(basePath string, query url.Values) *Response {
	p := Params{Limit: r.Limit, Offset: r.Offset}
	links := &Links{Self: pageURL(basePath, query, p.Limit, p.Offset)}
	if p.HasNext(r.Total) {
		links.Next = pageURL(basePath, query, p.Limit, p.NextOffset())
	}
	if p.HasPrevious() {
		links.Previous = pageURL(basePath, query, p.Limit, p.PreviousOffset())
	}
	r.Links = links
	return r
}

func pageURL(basePath string, query url.Values, limit, offset int) string {
	q := url.Values{}
	for k, vs := range query {
		if k == "limit" || k == "offset" {
			continue
		}
		q[k] = append([]string(nil), vs...)
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return basePath + "?" + q.Encode()
}

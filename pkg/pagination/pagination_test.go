package pagination

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextFor(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/", DefaultLimit, 0},
		{"custom", "/?limit=5&offset=10", 5, 10},
		{"max limit", "/?limit=1000", MaxLimit, 0},
		{"zero limit", "/?limit=0", DefaultLimit, 0},
		{"negative offset", "/?offset=-3", DefaultLimit, 0},
		{"garbage", "/?limit=abc&offset=xyz", DefaultLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromContext(contextFor(tt.target))
			if p.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", p.Limit, tt.wantLimit)
			}
			if p.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", p.Offset, tt.wantOffset)
			}
		})
	}
}

func TestParams_Navigation(t *testing.T) {
	p := Params{Limit: 10, Offset: 5}
	if !p.HasNext(20) {
		t.Error("expected HasNext(20) to be true")
	}
	if p.HasNext(15) {
		t.Error("expected HasNext(15) to be false")
	}
	if !p.HasPrevious() {
		t.Error("expected HasPrevious to be true")
	}
	if p.NextOffset() != 15 {
		t.Errorf("NextOffset = %d, want 15", p.NextOffset())
	}
	if p.PreviousOffset() != 0 {
		t.Errorf("PreviousOffset = %d, want 0", p.PreviousOffset())
	}
	if (Params{Limit: 10, Offset: 30}).PreviousOffset() != 20 {
		t.Error("expected PreviousOffset 20")
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 50, Params{Limit: 2, Offset: 0})
	if resp.Total != 50 || resp.Limit != 2 || resp.Offset != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if !resp.HasMore {
		t.Error("expected HasMore to be true")
	}
	if resp.Links != nil {
		t.Error("expected no links before WithLinks")
	}
}

func TestResponse_WithLinks(t *testing.T) {
	query := url.Values{"status": {"parsed"}, "offset": {"10"}}
	resp := NewResponse(nil, 25, Params{Limit: 10, Offset: 10}).WithLinks("/api/v1/extractions", query)

	if resp.Links == nil {
		t.Fatal("expected links")
	}
	if resp.Links.Self != "/api/v1/extractions?limit=10&offset=10&status=parsed" {
		t.Errorf("unexpected self link: %s", resp.Links.Self)
	}
	if resp.Links.Next != "/api/v1/extractions?limit=10&offset=20&status=parsed" {
		t.Errorf("unexpected next link: %s", resp.Links.Next)
	}
	if resp.Links.Previous != "/api/v1/extractions?limit=10&offset=0&status=parsed" {
		t.Errorf("unexpected previous link: %s", resp.Links.Previous)
	}
}

func TestResponse_WithLinks_SinglePage(t *testing.T) {
	resp := NewResponse(nil, 3, Params{Limit: 10, Offset: 0}).WithLinks("/runs", nil)
	if resp.Links.Next != "" || resp.Links.Previous != "" {
		t.Errorf("expected only a self link, got %+v", resp.Links)
	}
}

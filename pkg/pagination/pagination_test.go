package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	cases := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=50&offset=10", 50, 10},
		{"capped at max", "limit=5000", MaxLimit, 0},
		{"negative offset clamped", "offset=-5", DefaultLimit, 0},
		{"garbage ignored", "limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := paramsFor(t, tc.query)
			if p.Limit != tc.wantLimit || p.Offset != tc.wantOffset {
				t.Errorf("got %+v, want limit=%d offset=%d", p, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]int{1, 2, 3}, 10, 3, 0)
	if !resp.HasMore {
		t.Error("expected HasMore with more rows remaining")
	}
	resp = NewResponse([]int{1}, 1, 20, 0)
	if resp.HasMore {
		t.Error("expected HasMore=false when all rows returned")
	}
}

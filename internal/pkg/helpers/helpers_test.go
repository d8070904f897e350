package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestCalculateOffsetLimit(t *testing.T) {
	cases := []struct {
		page, size    int
		offset, limit uint64
	}{
		{1, 10, 0, 10},
		{3, 20, 40, 20},
		{0, 10, 0, 10},
		{2, 0, 10, 10},
		{2, MaxPageSize + 1, 10, 10},
	}
	for _, c := range cases {
		offset, limit := CalculateOffsetLimit(c.page, c.size)
		if offset != c.offset || limit != c.limit {
			t.Fatalf("CalculateOffsetLimit(%d, %d) = (%d, %d), want (%d, %d)", c.page, c.size, offset, limit, c.offset, c.limit)
		}
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(25, 2, 10)
	if info.TotalPages != 3 || info.CurrentPage != 2 || info.TotalItems != 25 {
		t.Fatalf("unexpected pagination info: %+v", info)
	}

	empty := NewPaginationInfo(0, 1, 10)
	if empty.TotalPages != 1 {
		t.Fatalf("empty first page should report one page, got %d", empty.TotalPages)
	}

	clamped := NewPaginationInfo(5, 9, 10)
	if clamped.CurrentPage != 1 {
		t.Fatalf("current page should clamp to total pages, got %d", clamped.CurrentPage)
	}
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?page=-2&size=abc", nil)

	page, size := ParsePaginationParams(c)
	if page != DefaultPage || size != DefaultPageSize {
		t.Fatalf("invalid params should fall back to defaults, got page=%d size=%d", page, size)
	}
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	if got := LikePattern(" 100%_done "); got != `%100\%\_done%` {
		t.Fatalf("unexpected pattern %q", got)
	}
}

func TestExpiresAt(t *testing.T) {
	if ExpiresAt(nil, time.Hour) != nil {
		t.Fatalf("nil timestamp should not expire")
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ExpiresAt(&base, 48*time.Hour); !got.Equal(base.Add(48 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", got)
	}
}

func TestParseDurationFallback(t *testing.T) {
	if d := ParseDuration("nonsense", 5*time.Second); d != 5*time.Second {
		t.Fatalf("expected fallback, got %v", d)
	}
	if d := ParseDuration("90m", time.Second); d != 90*time.Minute {
		t.Fatalf("expected 90m, got %v", d)
	}
}

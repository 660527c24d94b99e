package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func queryContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req, err := http.NewRequest(http.MethodGet, "/contracts?"+rawQuery, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Request = req
	return c
}

func TestIntQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"valid", "limit=25", 25},
		{"missing", "", 50},
		{"empty value", "limit=", 50},
		{"trailing junk", "limit=10abc", 50},
		{"not a number", "limit=ten", 50},
		{"negative", "limit=-5", -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := queryContext(t, tt.query)
			if got := intQuery(c, "limit", 50); got != tt.want {
				t.Errorf("intQuery(%q) = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"2025-01-01", "2025-01-01T09:30:00", "2025-01-01T09:30:00+09:00"} {
		if _, err := parseDate(raw); err != nil {
			t.Errorf("parseDate(%q) should succeed: %v", raw, err)
		}
	}
	for _, raw := range []string{"", "  ", "01/01/2025", "2025-13-40"} {
		if _, err := parseDate(raw); err == nil {
			t.Errorf("parseDate(%q) should fail", raw)
		}
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDEchoesOrMints(t *testing.T) {
	cases := []struct {
		name    string
		inbound string
		echoed  bool
	}{
		{"echo", "req-42.a_b", true},
		{"missing", "", false},
		{"unsafe", "bad id\nwith newline", false},
		{"too long", strings.Repeat("a", 65), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.inbound != "" {
				req.Header.Set("X-Request-ID", tc.inbound)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Header().Get("X-Request-ID") != seen {
				t.Fatalf("header %q does not match context %q", rr.Header().Get("X-Request-ID"), seen)
			}
			if tc.echoed {
				if seen != tc.inbound {
					t.Fatalf("expected %q to be echoed, got %q", tc.inbound, seen)
				}
				return
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Fatalf("expected minted uuid, got %q", seen)
			}
		})
	}
}

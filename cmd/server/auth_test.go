package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminGuard(t *testing.T) {
	tests := []struct {
		name   string
		guard  *adminGuard
		header http.Header
		want   bool
	}{
		{"key header", newAdminGuard("k", false), http.Header{adminKeyHeader: {"k"}}, true},
		{"bearer token", newAdminGuard("k", false), http.Header{"Authorization": {"Bearer k"}}, true},
		{"wrong key", newAdminGuard("k", false), http.Header{adminKeyHeader: {"kk"}}, false},
		{"missing key", newAdminGuard("k", true), nil, false},
		{"basic auth ignored", newAdminGuard("k", false), http.Header{"Authorization": {"Basic k"}}, false},
		{"no key in dev", newAdminGuard("", true), nil, true},
		{"no key in production", newAdminGuard("", false), http.Header{adminKeyHeader: {"anything"}}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/settings", nil)
			for k, v := range tc.header {
				req.Header[k] = v
			}
			if got := tc.guard.authorized(req); got != tc.want {
				t.Fatalf("authorized=%v, want %v", got, tc.want)
			}
		})
	}
}

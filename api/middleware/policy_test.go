package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testPolicy() *Policy {
	return NewPolicy([]Rule{
		{Pattern: "/api/v1/users/*", Roles: []string{"admin"}},
		{Pattern: "/api/v1/orders/admin/{id}", Methods: []string{http.MethodDelete}, Roles: []string{"admin"}},
		{Pattern: "/api/v1/orders/admin/{id}", Methods: []string{http.MethodPatch}, Roles: []string{"admin", "waiter", "cashier"}},
		{Pattern: "/api/v1/orders/admin/*", Roles: []string{"admin", "chef", "waiter", "cashier"}},
		{Pattern: "/api/v1/settings", Methods: []string{http.MethodPut}, Roles: []string{"admin"}},
	})
}

func TestPolicyAllow(t *testing.T) {
	p := testPolicy()

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		want   bool
	}{
		{"admin manages users", http.MethodPost, "/api/v1/users", "admin", true},
		{"admin lists users", http.MethodGet, "/api/v1/users/abc", "admin", true},
		{"waiter cannot manage users", http.MethodGet, "/api/v1/users/abc", "waiter", false},
		{"only admin deletes orders", http.MethodDelete, "/api/v1/orders/admin/123", "waiter", false},
		{"admin deletes orders", http.MethodDelete, "/api/v1/orders/admin/123", "admin", true},
		{"waiter patches orders", http.MethodPatch, "/api/v1/orders/admin/123", "waiter", true},
		{"chef cannot patch orders", http.MethodPatch, "/api/v1/orders/admin/123", "chef", false},
		{"chef views order board", http.MethodGet, "/api/v1/orders/admin/board", "chef", true},
		{"admin updates settings", http.MethodPut, "/api/v1/settings", "admin", true},
		{"cashier cannot update settings", http.MethodPut, "/api/v1/settings", "cashier", false},
		{"unmatched path denied", http.MethodGet, "/api/v1/unknown", "admin", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.Allow(tc.method, tc.path, tc.role); got != tc.want {
				t.Fatalf("Allow(%s %s as %s) = %v, want %v", tc.method, tc.path, tc.role, got, tc.want)
			}
		})
	}
}

func TestPolicyFirstMatchWins(t *testing.T) {
	p := testPolicy()

	// The DELETE-specific rule precedes the wildcard, so a chef matching
	// only the wildcard must not gain delete access.
	if p.Allow(http.MethodDelete, "/api/v1/orders/admin/123", "chef") {
		t.Fatal("chef should not be able to delete orders")
	}
}

func TestEnforce(t *testing.T) {
	p := testPolicy()
	handler := p.Enforce(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("forbidden role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/abc", nil)
		req = req.WithContext(WithRole(req.Context(), "chef"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("allowed role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/abc", nil)
		req = req.WithContext(WithRole(req.Context(), "admin"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
	})
}

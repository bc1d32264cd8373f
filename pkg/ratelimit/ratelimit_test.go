// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-companion-auth.
//
// go-companion-auth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew(t *testing.T) {
	config := &Config{
		Enabled:           true,
		RequestsPerMinute: 60,
		Burst:             10,
	}

	limiter := New(config)
	if limiter == nil {
		t.Fatal("Expected limiter to be created")
	}

	if !limiter.enabled {
		t.Error("Expected limiter to be enabled")
	}

	stats := limiter.Stats()
	if stats["enabled"] != true {
		t.Error("Expected enabled to be true in stats")
	}

	limiter.Stop()
}

func TestAllow_Burst(t *testing.T) {
	config := &Config{
		Enabled:           true,
		RequestsPerMinute: 60, // 1 per second
		Burst:             5,
	}

	limiter := New(config)
	defer limiter.Stop()

	clientID := "test-client"

	// First 5 requests should succeed (burst)
	for i := 0; i < 5; i++ {
		if !limiter.Allow(clientID) {
			t.Errorf("Request %d should have been allowed", i+1)
		}
	}

	// Bucket is now empty
	if limiter.Allow(clientID) {
		t.Error("Request over burst should have been denied")
	}

	// Other clients have their own bucket
	if !limiter.Allow("other-client") {
		t.Error("Separate client should have been allowed")
	}
}

func TestAllow_Disabled(t *testing.T) {
	limiter := New(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		if !limiter.Allow("client") {
			t.Fatal("Disabled limiter should allow everything")
		}
	}
}

func TestAllow_NilConfig(t *testing.T) {
	limiter := New(nil)

	if limiter.IsEnabled() {
		t.Error("Nil config should produce a disabled limiter")
	}
	if !limiter.Allow("client") {
		t.Error("Disabled limiter should allow requests")
	}
}

func TestMiddleware(t *testing.T) {
	limiter := New(&Config{
		Enabled:           true,
		RequestsPerMinute: 60,
		Burst:             1,
	})
	defer limiter.Stop()

	handler := Middleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login/start", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if ip := getClientIP(req); ip != "10.0.0.1:1234" {
		t.Errorf("Expected RemoteAddr fallback, got %s", ip)
	}

	req.Header.Set("X-Real-IP", "192.168.1.5")
	if ip := getClientIP(req); ip != "192.168.1.5" {
		t.Errorf("Expected X-Real-IP, got %s", ip)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ip := getClientIP(req); ip != "203.0.113.7" {
		t.Errorf("Expected first X-Forwarded-For entry, got %s", ip)
	}
}

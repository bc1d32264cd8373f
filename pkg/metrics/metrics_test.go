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

package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsEnabled(t *testing.T) {
	// Metrics should be enabled by default
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled by default")
	}

	Disable()
	if IsEnabled() {
		t.Error("Expected metrics to be disabled after Disable()")
	}

	Enable()
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled after Enable()")
	}
}

func TestRecordAuthAttempt(t *testing.T) {
	Enable()
	AuthAttemptsTotal.Reset()

	RecordAuthAttempt(FlowLogin, StatusSuccess)

	count := testutil.CollectAndCount(AuthAttemptsTotal)
	if count != 1 {
		t.Errorf("Expected 1 attempt recorded, got %d", count)
	}

	RecordAuthAttempt(FlowChildLogin, StatusFailure)

	count = testutil.CollectAndCount(AuthAttemptsTotal)
	if count != 2 {
		t.Errorf("Expected 2 attempts recorded, got %d", count)
	}

	value := testutil.ToFloat64(AuthAttemptsTotal.WithLabelValues(FlowLogin, StatusSuccess))
	if value != 1 {
		t.Errorf("Expected login success counter to be 1, got %f", value)
	}
}

func TestRecordAuthAttemptWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	AuthAttemptsTotal.Reset()

	RecordAuthAttempt(FlowRegister, StatusSuccess)

	count := testutil.CollectAndCount(AuthAttemptsTotal)
	if count != 0 {
		t.Errorf("Expected 0 attempts when disabled, got %d", count)
	}
}

func TestRecordRefreshRotation(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(RefreshRotationsTotal)
	RecordRefreshRotation()
	after := testutil.ToFloat64(RefreshRotationsTotal)

	if after != before+1 {
		t.Errorf("Expected rotation counter to increase by 1, got %f -> %f", before, after)
	}
}

func TestRecordTokensSwept(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(TokensSweptTotal)
	RecordTokensSwept(3)
	after := testutil.ToFloat64(TokensSweptTotal)

	if after != before+3 {
		t.Errorf("Expected swept counter to increase by 3, got %f -> %f", before, after)
	}
}

func TestStoreGauges(t *testing.T) {
	Enable()

	SetChallengesOutstanding(7)
	if got := testutil.ToFloat64(ChallengesOutstanding); got != 7 {
		t.Errorf("Expected challenges gauge to be 7, got %f", got)
	}

	SetRefreshTokensStored(4)
	if got := testutil.ToFloat64(RefreshTokensStored); got != 4 {
		t.Errorf("Expected refresh tokens gauge to be 4, got %f", got)
	}
}

func TestStoreGaugesWhenDisabled(t *testing.T) {
	Enable()
	SetChallengesOutstanding(1)

	Disable()
	defer Enable()

	SetChallengesOutstanding(99)
	if got := testutil.ToFloat64(ChallengesOutstanding); got != 1 {
		t.Errorf("Expected gauge unchanged while disabled, got %f", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	Enable()
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "200", 0.05)

	if count := testutil.CollectAndCount(HTTPRequestsTotal); count != 1 {
		t.Errorf("Expected 1 request recorded, got %d", count)
	}
	if count := testutil.CollectAndCount(HTTPRequestDuration); count != 1 {
		t.Errorf("Expected 1 histogram sample, got %d", count)
	}
}

func TestFlowConstants(t *testing.T) {
	flows := map[string]string{
		FlowRegister:   "register",
		FlowLogin:      "login",
		FlowChildLogin: "child_login",
		FlowRefresh:    "refresh",
	}
	for got, want := range flows {
		if got != want {
			t.Errorf("Flow constant = %v, want %v", got, want)
		}
	}
}

func TestMetricsNamespace(t *testing.T) {
	if Namespace != "companionauth" {
		t.Errorf("Namespace = %v, want companionauth", Namespace)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	Enable()
	AuthAttemptsTotal.Reset()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordAuthAttempt(FlowLogin, StatusSuccess)
			}
		}()
	}
	wg.Wait()

	value := testutil.ToFloat64(AuthAttemptsTotal.WithLabelValues(FlowLogin, StatusSuccess))
	if value != 1600 {
		t.Errorf("Expected 1600 recorded attempts, got %f", value)
	}
}

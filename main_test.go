package main

import (
	"testing"
	"time"

	"bank-backoffice/internal/security"
	"bank-backoffice/pkg/utils"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testSecurityConfig(mode string) utils.SecurityConfig {
	return utils.SecurityConfig{
		OTPLifetime:        2 * time.Minute,
		MaxOTPAttempts:     3,
		MaxLoginAttempts:   3,
		LockoutDuration:    24 * time.Hour,
		LockoutCheckMode:   mode,
		NotifyEveryFailure: true,
	}
}

func TestSecurityPolicy(t *testing.T) {
	policy, err := securityPolicy(testSecurityConfig("intended"))
	if err != nil {
		t.Fatalf("securityPolicy error: %v", err)
	}
	if policy.LockoutCheck != security.CheckIntended || policy.MaxLoginAttempts != 3 {
		t.Fatalf("unexpected policy %+v", policy)
	}

	if _, err := securityPolicy(testSecurityConfig("sometimes")); err == nil {
		t.Fatal("expected unknown lockout mode rejected")
	}
}

func TestWarnLockoutMode(t *testing.T) {
	tests := []struct {
		mode     string
		wantWarn int
	}{
		{"literal", 1},
		{"intended", 0},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			policy, err := securityPolicy(testSecurityConfig(tt.mode))
			if err != nil {
				t.Fatalf("securityPolicy error: %v", err)
			}

			core, logs := observer.New(zapcore.WarnLevel)
			warnLockoutMode(zap.New(core), policy)

			if got := logs.Len(); got != tt.wantWarn {
				t.Fatalf("expected %d warnings, got %d", tt.wantWarn, got)
			}
		})
	}
}

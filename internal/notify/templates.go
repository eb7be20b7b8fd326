package notify

import (
	"fmt"
	"strings"
	"time"

	"bank-backoffice/internal/task"
)

func otpEmail(siteName string, p task.EmailOTPPayload) (subject, body string) {
	subject = fmt.Sprintf("Your %s login code", siteName)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", greetingName(p.FullName))
	fmt.Fprintf(&b, "Your one-time login code is: %s\n\n", p.Code)
	fmt.Fprintf(&b, "The code expires at %s UTC.\n", p.ExpiresAt.UTC().Format(time.DateTime))
	b.WriteString("If you did not try to sign in, change your password and contact your branch.\n\n")
	fmt.Fprintf(&b, "%s\n", siteName)

	return subject, b.String()
}

func accountLockedEmail(siteName string, lockout time.Duration, p task.AccountLockedPayload) (subject, body string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", greetingName(p.FullName))

	if p.Locked {
		subject = fmt.Sprintf("Your %s account has been locked", siteName)
		fmt.Fprintf(&b, "Your account was locked after %d failed login attempts.\n", p.Attempts)
		fmt.Fprintf(&b, "It stays locked for %s from the last attempt at %s UTC, ", formatDuration(lockout), p.OccurredAt.UTC().Format(time.DateTime))
		b.WriteString("or until a branch manager unlocks it.\n")
	} else {
		subject = fmt.Sprintf("Failed login attempt on your %s account", siteName)
		fmt.Fprintf(&b, "A failed login attempt was recorded at %s UTC (%d so far).\n", p.OccurredAt.UTC().Format(time.DateTime), p.Attempts)
		b.WriteString("Further failures will lock the account.\n")
	}

	b.WriteString("If this was not you, contact your branch immediately.\n\n")
	fmt.Fprintf(&b, "%s\n", siteName)

	return subject, b.String()
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "customer"
	}
	return name
}

func formatDuration(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}

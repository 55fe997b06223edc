package identity

import "context"

// Notifier delivers the verification email. Delivery is best-effort:
// registration never rolls back on notifier failure, the service only
// logs it.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, account *Account) error
}

// NoopNotifier drops notifications. Default when no transport is wired.
type NoopNotifier struct{}

func (NoopNotifier) SendVerificationEmail(ctx context.Context, account *Account) error {
	return nil
}

// LogNotifier writes the verification code to the log instead of sending
// mail. Useful for local development.
type LogNotifier struct {
	Logger Logger
}

func (n LogNotifier) SendVerificationEmail(ctx context.Context, account *Account) error {
	logger := n.Logger
	if logger == nil {
		logger = defLogger{}
	}

	code := ""
	if account.VerificationToken != nil {
		code = *account.VerificationToken
	}

	logger.Info("verification email for %s (%s) code=%s", account.Email, account.Username, code)
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return NoopNotifier{}
	}
	return n
}

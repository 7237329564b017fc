package notifications

import (
	"context"
	"time"
)

type PasswordResetInput struct {
	Email     string
	Name      string
	ResetLink string
	// ExpiresIn is how long the link stays valid. Zero leaves it out of the message.
	ExpiresIn time.Duration
}

type Notifier interface {
	SendPasswordReset(ctx context.Context, input PasswordResetInput) error
}

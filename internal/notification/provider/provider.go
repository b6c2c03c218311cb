// Package provider contains delivery channels for threshold notifications.
package provider

import (
	"context"

	notificationdomain "github.com/quillhq/quill/internal/notification/domain"
)

// NoOpDispatcher drops notifications; used when no channel is configured.
type NoOpDispatcher struct{}

func (NoOpDispatcher) Dispatch(ctx context.Context, crossing notificationdomain.Crossing) error {
	_ = ctx
	_ = crossing
	return nil
}

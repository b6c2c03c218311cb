package provider

import (
	"github.com/quillhq/quill/internal/config"
	notificationdomain "github.com/quillhq/quill/internal/notification/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.provider",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, usersvc userdomain.Service) notificationdomain.Dispatcher {
	if cfg.SMTPHost == "" {
		return NoOpDispatcher{}
	}
	return NewSMTP(SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, usersvc)
}

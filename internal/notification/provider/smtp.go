package provider

import (
	"context"
	"fmt"
	"net/smtp"

	notificationdomain "github.com/quillhq/quill/internal/notification/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPDispatcher emails the user when a quota threshold is crossed.
type SMTPDispatcher struct {
	cfg     SMTPConfig
	usersvc userdomain.Service
}

func NewSMTP(cfg SMTPConfig, usersvc userdomain.Service) *SMTPDispatcher {
	return &SMTPDispatcher{cfg: cfg, usersvc: usersvc}
}

func (p *SMTPDispatcher) Dispatch(ctx context.Context, crossing notificationdomain.Crossing) error {
	user, err := p.usersvc.GetByID(ctx, crossing.UserID)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("You have used %d%% of your %s quota", crossing.Percent, crossing.Metric)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>You have used %d of %d (%d%%) of your <b>%s</b> allowance for this billing cycle.</p>",
		user.DisplayName,
		crossing.Used,
		crossing.Limit,
		crossing.Percent,
		crossing.Metric,
	)
	if crossing.Level >= 100 {
		body += "<p>You have reached your plan limit; upgrade to continue.</p>"
	}

	auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", user.Email, subject, mime, body))

	return smtp.SendMail(addr, auth, p.cfg.From, []string{user.Email}, msg)
}

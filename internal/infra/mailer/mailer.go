package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	mail "github.com/wneessen/go-mail"
)

// 送る中身
type message struct {
	to      string
	subject string
	body    string
}

func verificationMessage(to, code string, expiresIn time.Duration) message {
	return message{
		to:      to,
		subject: "アカウント確認コード",
		body:    fmt.Sprintf("確認コードは %s です。%d分で期限切れになります。", code, int(expiresIn.Minutes())),
	}
}

func resetMessage(to, code string, expiresIn time.Duration) message {
	return message{
		to:      to,
		subject: "パスワード再設定コード",
		body:    fmt.Sprintf("パスワード再設定コードは %s です。%d分で期限切れになります。", code, int(expiresIn.Minutes())),
	}
}

func passwordChangedMessage(to string) message {
	return message{
		to:      to,
		subject: "パスワードが変更されました",
		body:    "パスワードが変更され、すべての端末からログアウトしました。心当たりがない場合はサポートに連絡してください。",
	}
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPで送る
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, to, code string, expiresIn time.Duration) error {
	return m.send(ctx, verificationMessage(to, code, expiresIn))
}

func (m *SMTPMailer) SendPasswordResetCode(ctx context.Context, to, code string, expiresIn time.Duration) error {
	return m.send(ctx, resetMessage(to, code, expiresIn))
}

func (m *SMTPMailer) SendPasswordChanged(ctx context.Context, to string) error {
	return m.send(ctx, passwordChangedMessage(to))
}

func (m *SMTPMailer) send(ctx context.Context, in message) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mailer from: %w", err)
	}
	if err := msg.To(in.to); err != nil {
		return fmt.Errorf("mailer to: %w", err)
	}
	msg.Subject(in.subject)
	msg.SetBodyString(mail.TypeTextPlain, in.body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Pass),
	}
	// 465は最初からTLS
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("mailer client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer send: %w", err)
	}
	return nil
}

// SMTP未設定のとき。送らずにログへ出す（開発用）
type LogMailer struct {
	logger *log.Logger
}

func NewLogMailer(logger *log.Logger) *LogMailer {
	if logger == nil {
		logger = log.New("mailer")
	}
	logger.Warn("SMTP config missing; emails will be logged instead of sent")
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerificationCode(_ context.Context, to, code string, expiresIn time.Duration) error {
	m.write(verificationMessage(to, code, expiresIn))
	return nil
}

func (m *LogMailer) SendPasswordResetCode(_ context.Context, to, code string, expiresIn time.Duration) error {
	m.write(resetMessage(to, code, expiresIn))
	return nil
}

func (m *LogMailer) SendPasswordChanged(_ context.Context, to string) error {
	m.write(passwordChangedMessage(to))
	return nil
}

func (m *LogMailer) write(in message) {
	m.logger.Infoj(log.JSON{
		"dev_email": true,
		"to":        in.to,
		"subject":   in.subject,
		"body":      in.body,
	})
}

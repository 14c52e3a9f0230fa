// Command sendmail sends one message through the storefront mailer. It is
// used to check SMTP settings against a local catcher such as Mailpit.
package main

import (
	"context"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"example.com/storefront/app/internal/infra/mail"
)

type options struct {
	Addr     string        `default:"localhost:2025" usage:"SMTP server address"`
	From     string        `default:"test@example.com" usage:"Envelope sender"`
	To       string        `default:"hello@yopmail.com" usage:"Recipient"`
	Subject  string        `default:"Mailpit Test"`
	Body     string        `default:"This is a test email sent via Mailpit SMTP."`
	Username string        `usage:"SMTP AUTH user, empty to skip AUTH"`
	Password string        `usage:"SMTP AUTH password"`
	Timeout  time.Duration `default:"10s"`
}

func main() {
	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(lg); err != nil {
		lg.Error("Send failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(lg *zap.Logger) error {
	var opts options
	loader := aconfig.LoaderFor(&opts, aconfig.Config{
		EnvPrefix: "STORE_SMTP",
		SkipFiles: true,
	})
	if err := loader.Load(); err != nil {
		return errors.Wrap(err, "load options")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	sender := mail.NewSender(mail.Config{
		Addr:     opts.Addr,
		From:     opts.From,
		Username: opts.Username,
		Password: opts.Password,
	})
	if err := sender.Send(ctx, opts.To, opts.Subject, opts.Body); err != nil {
		return err
	}
	lg.Info("Mail sent", zap.String("addr", opts.Addr), zap.String("to", opts.To))
	return nil
}

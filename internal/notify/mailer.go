package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	mail "gopkg.in/mail.v2"

	"github.com/univmarket/go-market-backend/internal/domain"
)

// Mailer delivers notifications over SMTP. It satisfies Sender.
type Mailer struct {
	dialer *mail.Dialer
	from   string
	site   string
}

// NewMailer configures an SMTP Mailer. site is the public product page base
// URL embedded in lifecycle emails, e.g. "https://market.example.com".
func NewMailer(host string, port int, username, password, from, site string) *Mailer {
	d := mail.NewDialer(host, port, username, password)
	d.Timeout = 15 * time.Second
	return &Mailer{dialer: d, from: from, site: site}
}

var codeTmpl = template.Must(template.New("code").Parse(`<p>아래 인증번호를 입력해 주세요.</p>
<h2>{{.Code}}</h2>
<p>인증번호는 24시간 동안 유효합니다.</p>`))

var reservationTmpl = template.Must(template.New("reservation").Parse(`<p>{{.Buyer}}님이 <strong>{{.Title}}</strong> 상품을 예약했습니다.</p>
<p><a href="{{.Link}}">상품 보러 가기</a></p>`))

var completeTmpl = template.Must(template.New("complete").Parse(`<p><strong>{{.Title}}</strong> 상품의 거래가 완료되었습니다.</p>
<p><a href="{{.Link}}">상품 보러 가기</a></p>`))

func (m *Mailer) send(ctx context.Context, to, subject string, tmpl *template.Template, data any) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render mail body: %w", err)
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	}
}

func (m *Mailer) productLink(p *domain.Product) string {
	return fmt.Sprintf("%s/products/%d", m.site, p.ID)
}

// SendVerificationCode mails the 6-digit code to the academic address.
func (m *Mailer) SendVerificationCode(ctx context.Context, email, code string) error {
	return m.send(ctx, email, "대학 이메일 인증번호", codeTmpl, struct{ Code string }{Code: code})
}

// SendReservationNotice tells the seller their product was reserved.
func (m *Mailer) SendReservationNotice(ctx context.Context, p *domain.Product, seller, buyer *domain.User) error {
	data := struct {
		Buyer, Title, Link string
	}{Buyer: buyer.Nickname, Title: p.Title, Link: m.productLink(p)}
	return m.send(ctx, seller.Email, "상품이 예약되었습니다", reservationTmpl, data)
}

// SendTransactionCompleteNotice tells both participants the sale closed.
// Partial failure is reported after attempting both recipients.
func (m *Mailer) SendTransactionCompleteNotice(ctx context.Context, p *domain.Product, seller, buyer *domain.User) error {
	data := struct {
		Title, Link string
	}{Title: p.Title, Link: m.productLink(p)}

	var firstErr error
	for _, to := range []string{seller.Email, buyer.Email} {
		if err := m.send(ctx, to, "거래가 완료되었습니다", completeTmpl, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package report

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/common/config"
	"github.com/VehiCheck/VehiCheck/internal/common/logger"
	"github.com/VehiCheck/VehiCheck/internal/common/middleware"
	"github.com/VehiCheck/VehiCheck/internal/inspection"
	gomail "gopkg.in/gomail.v2"
)

// Dialer sends one message to the SMTP relay.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer dispatches consolidated reports by mail. Relay failures never
// propagate as errors: the caller always gets a Result it can show the user.
type Mailer struct {
	dialer  Dialer
	from    string
	breaker *middleware.CircuitBreaker
	log     logger.Logger
}

func NewMailer(cfg config.MailConfig, log logger.Logger) *Mailer {
	return &Mailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:    cfg.From,
		breaker: middleware.NewCircuitBreaker("smtp", 5, 30*time.Second),
		log:     log,
	}
}

// newMailerWithDialer is the test seam.
func newMailerWithDialer(d Dialer, from string, log logger.Logger) *Mailer {
	return &Mailer{
		dialer:  d,
		from:    from,
		breaker: middleware.NewCircuitBreaker("smtp", 5, 30*time.Second),
		log:     log,
	}
}

// Result is the user-facing outcome of a dispatch attempt.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"mensaje"`
}

// Dispatch is one outbound report message: destination, subject and body plus
// an optional rendered artifact attached as a PDF.
type Dispatch struct {
	To             string
	Subject        string
	BodyHTML       string
	Attachment     []byte // rendered PDF, nil when the body alone suffices
	AttachmentName string
}

// Send relays one message under the breaker.
func (m *Mailer) Send(ctx context.Context, d Dispatch) Result {
	if m == nil || m.dialer == nil {
		return Result{OK: false, Message: "el envío de correo no está configurado"}
	}
	d.To = strings.TrimSpace(d.To)
	if d.To == "" || !strings.Contains(d.To, "@") {
		return Result{OK: false, Message: "dirección de correo inválida"}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", d.To)
	msg.SetHeader("Subject", d.Subject)
	msg.SetBody("text/html", d.BodyHTML)
	if len(d.Attachment) > 0 {
		name := d.AttachmentName
		if name == "" {
			name = "informe.pdf"
		}
		payload := d.Attachment
		msg.Attach(name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(payload)
			return err
		}))
	}

	err := m.breaker.Call(ctx, func() error {
		return m.dialer.DialAndSend(msg)
	})
	if err != nil {
		if m.log != nil {
			m.log.Errorf("send report to %s: %v", d.To, err)
		}
		return Result{OK: false, Message: "no se pudo enviar el informe, intente más tarde"}
	}
	if m.log != nil {
		m.log.Infof("report sent to %s", d.To)
	}
	return Result{OK: true, Message: "informe enviado correctamente"}
}

// renderReportHTML produces the mail body. Kept deliberately simple: a header
// with the vehicle data and one table per system. Vehicle fields and
// observations are technician input and get escaped.
func renderReportHTML(rep *VehicleReport) string {
	esc := html.EscapeString
	var b strings.Builder
	b.WriteString("<h2>Informe de inspección</h2>")
	fmt.Fprintf(&b, "<p><strong>Orden N° %d</strong> - %s %s (%s)</p>",
		rep.Vehicle.OrderNumber, esc(rep.Vehicle.Brand), esc(rep.Vehicle.Model), esc(rep.Vehicle.Plate))
	fmt.Fprintf(&b, "<p>Estado general: <strong>%s</strong></p>", esc(string(rep.Overall)))
	fmt.Fprintf(&b, "<p>Generado: %s</p>", rep.GeneratedAt.Format("02/01/2006 15:04"))

	for _, sys := range rep.Systems {
		fmt.Fprintf(&b, "<h3>%s - %s</h3>", esc(sys.Label), esc(string(sys.Rollup)))
		b.WriteString("<table border=\"1\" cellpadding=\"4\"><tr><th>Punto</th><th>Estado</th><th>Observación</th></tr>")
		for _, p := range sys.Points {
			status := p.Status
			if status == "" {
				status = inspection.StatusPending
			}
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>", esc(p.Label), esc(string(status)), esc(p.Observation))
		}
		b.WriteString("</table>")
	}
	return b.String()
}

// Package documents renders invoice and ticket PDFs.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/yeqown/go-qrcode"
)

const DefaultFinalizeTimeout = 10 * time.Second

var ErrFinalizeTimeout = errors.New("timed out finalizing pdf")

type ScheduleLine struct {
	StartsAt time.Time
	EndsAt   time.Time
	Location string
}

type Invoice struct {
	Number        string
	PaymentID     string
	BookingID     string
	Reference     string
	PaymentMethod string
	IssuedAt      time.Time
	PaidAt        *time.Time
	StudentName   string
	StudentEmail  string
	ClassTitle    string
	ExpertName    string
	Amount        int64
	Currency      string
	Schedules     []ScheduleLine
}

type Ticket struct {
	BookingID       string
	StudentName     string
	StudentEmail    string
	ClassTitle      string
	ExpertName      string
	Schedules       []ScheduleLine
	VerificationURL string
}

type Renderer struct {
	Timeout  time.Duration
	Location *time.Location
}

func NewRenderer() *Renderer {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*60*60)
	}
	return &Renderer{Timeout: DefaultFinalizeTimeout, Location: loc}
}

func (r *Renderer) Invoice(ctx context.Context, inv Invoice) ([]byte, error) {
	pdf := newDocument("Invoice " + inv.Number)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header(pdf, "INVOICE")
	pdf.SetFont("Helvetica", "", 10)
	keyValue(pdf, tr, "Invoice No.", inv.Number)
	keyValue(pdf, tr, "Issued", r.formatTime(inv.IssuedAt))
	if inv.PaidAt != nil {
		keyValue(pdf, tr, "Paid", r.formatTime(*inv.PaidAt))
	}
	keyValue(pdf, tr, "Booking", inv.BookingID)
	keyValue(pdf, tr, "Payment", inv.PaymentID)
	if inv.Reference != "" {
		keyValue(pdf, tr, "Reference", inv.Reference)
	}
	if inv.PaymentMethod != "" {
		keyValue(pdf, tr, "Method", inv.PaymentMethod)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Billed to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(inv.StudentName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(inv.StudentEmail), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(130, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(0, 8, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	desc := inv.ClassTitle
	if inv.ExpertName != "" {
		desc = fmt.Sprintf("%s (by %s)", inv.ClassTitle, inv.ExpertName)
	}
	pdf.CellFormat(130, 8, tr(desc), "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, FormatAmount(inv.Amount, inv.Currency), "1", 1, "R", false, 0, "")
	for _, s := range inv.Schedules {
		pdf.CellFormat(130, 7, tr("  "+r.formatSchedule(s)), "LR", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, "", "R", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(130, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(0, 8, FormatAmount(inv.Amount, inv.Currency), "1", 1, "R", false, 0, "")

	footer(pdf, "Thank you for learning with us.")
	return r.finalize(ctx, pdf)
}

func (r *Renderer) Ticket(ctx context.Context, t Ticket) ([]byte, error) {
	pdf := newDocument("Ticket " + t.BookingID)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header(pdf, "CLASS TICKET")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(120, 8, tr(t.ClassTitle), "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	if t.ExpertName != "" {
		pdf.CellFormat(120, 6, tr("Expert: "+t.ExpertName), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	keyValue(pdf, tr, "Attendee", t.StudentName)
	keyValue(pdf, tr, "Email", t.StudentEmail)
	keyValue(pdf, tr, "Booking", t.BookingID)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(120, 7, "Sessions", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for i, s := range t.Schedules {
		pdf.MultiCell(120, 6, tr(fmt.Sprintf("%d. %s", i+1, r.formatSchedule(s))), "", "L", false)
	}

	code, err := QRCode(t.VerificationURL)
	if err != nil {
		return nil, fmt.Errorf("could not generate qr code: %w", err)
	}
	opts := fpdf.ImageOptions{ImageType: imageType(code), ReadDpi: false}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(code))
	pdf.ImageOptions("qr", 145, 40, 50, 50, false, opts, 0, "")
	pdf.SetXY(140, 92)
	pdf.SetFont("Helvetica", "", 7)
	pdf.MultiCell(60, 4, "Scan at the venue to verify this ticket", "", "C", false)

	footer(pdf, t.VerificationURL)
	return r.finalize(ctx, pdf)
}

// QRCode encodes text as a QR image.
func QRCode(text string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("qr content is empty")
	}
	qrc, err := qrcode.New(text)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatAmount renders whole rupiah with dot thousands separators.
func FormatAmount(amount int64, currency string) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	if currency == "" || strings.EqualFold(currency, "IDR") {
		return "Rp " + out
	}
	return strings.ToUpper(currency) + " " + out
}

func (r *Renderer) finalize(ctx context.Context, pdf *fpdf.Fpdf) ([]byte, error) {
	if pdf.Err() {
		return nil, pdf.Error()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultFinalizeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var buf bytes.Buffer
		err := pdf.Output(&buf)
		done <- result{data: buf.Bytes(), err: err}
	}()
	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ErrFinalizeTimeout
	}
}

func (r *Renderer) formatTime(t time.Time) string {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02 Jan 2006 15:04 MST")
}

func (r *Renderer) formatSchedule(s ScheduleLine) string {
	line := fmt.Sprintf("%s - %s", r.formatTime(s.StartsAt), r.formatTime(s.EndsAt))
	if s.Location != "" {
		line += " @ " + s.Location
	}
	return line
}

func newDocument(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("oknum", true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	return pdf
}

func header(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(4)
}

func footer(pdf *fpdf.Fpdf, text string) {
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetY(-25)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 6, text, "", 1, "C", false, 0, "")
}

func keyValue(pdf *fpdf.Fpdf, tr func(string) string, key, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(30, 6, key, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

func imageType(data []byte) string {
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		return "PNG"
	}
	return "JPG"
}

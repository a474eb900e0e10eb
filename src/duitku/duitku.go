// Package duitku talks to the Duitku payment gateway: inquiry requests,
// request and callback signatures, and callback payload parsing.
package duitku

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/config"
	"github.com/spf13/cast"
)

const (
	SandboxBaseURL    = "https://sandbox.duitku.com"
	ProductionBaseURL = "https://passport.duitku.com"
	inquiryPath       = "/webapi/api/merchant/v2/inquiry"

	CodeSuccess = "00"
	CodePending = "01"
)

type Client struct {
	merchantCode  string
	apiKey        string
	baseURL       string
	callbackURL   string
	returnURL     string
	expiryMinutes int
	httpClient    *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(cfg config.Duitku, opts ...Option) *Client {
	c := &Client{
		merchantCode:  strings.TrimSpace(cfg.MerchantCode),
		apiKey:        strings.TrimSpace(cfg.ApiKey),
		baseURL:       ProductionBaseURL,
		callbackURL:   cfg.CallbackURL,
		returnURL:     cfg.ReturnURL,
		expiryMinutes: cfg.ExpiryMinutes,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
	if cfg.Sandbox {
		c.baseURL = SandboxBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether both merchant credentials are present.
func (c *Client) Configured() bool {
	return c.merchantCode != "" && c.apiKey != ""
}

func (c *Client) HasApiKey() bool {
	return c.apiKey != ""
}

func (c *Client) MerchantCode() string {
	return c.merchantCode
}

// Signature is md5(merchantCode + merchantOrderId + amount + apiKey) in
// lowercase hex. Every part is trimmed first.
func Signature(merchantCode, merchantOrderId, amount, apiKey string) string {
	raw := strings.TrimSpace(merchantCode) +
		strings.TrimSpace(merchantOrderId) +
		strings.TrimSpace(amount) +
		strings.TrimSpace(apiKey)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (c *Client) Sign(merchantOrderId string, amount int64) string {
	return Signature(c.merchantCode, merchantOrderId, strconv.FormatInt(amount, 10), c.apiKey)
}

// VerifyCallback recomputes the callback signature with the configured key
// and compares it byte for byte with the delivered one. The merchant code is
// taken from the payload, as the gateway signs it.
func (c *Client) VerifyCallback(cb *Callback) bool {
	want := Signature(cb.MerchantCode, cb.MerchantOrderID, cb.Amount, c.apiKey)
	got := strings.TrimSpace(cb.Signature)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

type ItemDetail struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type CustomerDetail struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName,omitempty"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type InquiryRequest struct {
	MerchantCode    string          `json:"merchantCode"`
	PaymentAmount   int64           `json:"paymentAmount"`
	PaymentMethod   string          `json:"paymentMethod"`
	MerchantOrderID string          `json:"merchantOrderId"`
	ProductDetails  string          `json:"productDetails"`
	Email           string          `json:"email"`
	PhoneNumber     string          `json:"phoneNumber,omitempty"`
	CustomerVaName  string          `json:"customerVaName"`
	CallbackURL     string          `json:"callbackUrl"`
	ReturnURL       string          `json:"returnUrl"`
	Signature       string          `json:"signature"`
	ExpiryPeriod    int             `json:"expiryPeriod,omitempty"`
	ItemDetails     []ItemDetail    `json:"itemDetails,omitempty"`
	CustomerDetail  *CustomerDetail `json:"customerDetail,omitempty"`
}

type InquiryResponse struct {
	MerchantCode  string `json:"merchantCode"`
	Reference     string `json:"reference"`
	PaymentURL    string `json:"paymentUrl"`
	VANumber      string `json:"vaNumber"`
	QRString      string `json:"qrString"`
	Amount        string `json:"amount"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`

	Raw map[string]any `json:"-"`
}

func (r *InquiryResponse) OK() bool {
	return r.StatusCode == CodeSuccess
}

// Order is what the caller knows about the payment being initiated.
type Order struct {
	MerchantOrderID string
	Amount          int64
	PaymentMethod   string
	ProductDetails  string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	Items           []ItemDetail
}

func (c *Client) NewInquiryRequest(o Order) InquiryRequest {
	first, last, _ := strings.Cut(strings.TrimSpace(o.CustomerName), " ")
	return InquiryRequest{
		MerchantCode:    c.merchantCode,
		PaymentAmount:   o.Amount,
		PaymentMethod:   o.PaymentMethod,
		MerchantOrderID: o.MerchantOrderID,
		ProductDetails:  o.ProductDetails,
		Email:           o.CustomerEmail,
		PhoneNumber:     o.CustomerPhone,
		CustomerVaName:  o.CustomerName,
		CallbackURL:     c.callbackURL,
		ReturnURL:       c.returnURL,
		Signature:       c.Sign(o.MerchantOrderID, o.Amount),
		ExpiryPeriod:    c.expiryMinutes,
		ItemDetails:     o.Items,
		CustomerDetail: &CustomerDetail{
			FirstName:   first,
			LastName:    last,
			Email:       o.CustomerEmail,
			PhoneNumber: o.CustomerPhone,
		},
	}
}

// Inquiry performs exactly one POST to the inquiry endpoint. It does not retry.
func (c *Client) Inquiry(ctx context.Context, req InquiryRequest) (*InquiryResponse, error) {
	if !c.Configured() {
		return nil, apperr.E(apperr.ErrConfiguration, "duitku merchant code or api key is not set")
	}
	body, err := json.Marshal(&req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+inquiryPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("[Duitku] Inquiry request failed for %s: %s\n", req.MerchantOrderID, err.Error())
		return nil, apperr.Wrap(apperr.ErrUpstream, "payment gateway is unreachable", err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, "could not read payment gateway response", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		if res.StatusCode >= http.StatusBadRequest {
			msg := strings.TrimSpace(string(raw))
			log.Printf("[Duitku] Inquiry rejected for %s: status=%d body=%s\n", req.MerchantOrderID, res.StatusCode, msg)
			return nil, apperr.Ef(apperr.ErrPaymentInitiationFailed, "payment gateway rejected the request: %s", msg)
		}
		return nil, apperr.Wrap(apperr.ErrUpstream, "unexpected payment gateway response", err)
	}
	out := InquiryResponse{
		MerchantCode:  cast.ToString(fields["merchantCode"]),
		Reference:     cast.ToString(fields["reference"]),
		PaymentURL:    cast.ToString(fields["paymentUrl"]),
		VANumber:      cast.ToString(fields["vaNumber"]),
		QRString:      cast.ToString(fields["qrString"]),
		Amount:        cast.ToString(fields["amount"]),
		StatusCode:    cast.ToString(fields["statusCode"]),
		StatusMessage: cast.ToString(fields["statusMessage"]),
		Raw:           fields,
	}
	if out.StatusCode == "" && res.StatusCode >= http.StatusBadRequest {
		out.StatusCode = fmt.Sprintf("HTTP%d", res.StatusCode)
	}
	if out.StatusMessage == "" {
		out.StatusMessage = cast.ToString(fields["Message"])
	}
	if out.StatusMessage == "" && res.StatusCode >= http.StatusBadRequest {
		out.StatusMessage = http.StatusText(res.StatusCode)
	}
	return &out, nil
}

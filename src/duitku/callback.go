package duitku

import (
	"encoding/json"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/spf13/cast"
)

// Callback is the payload the gateway POSTs after a payment changes state.
type Callback struct {
	MerchantCode     string
	MerchantOrderID  string
	Reference        string
	Amount           string
	ResultCode       string
	StatusCode       string
	Signature        string
	PaymentCode      string
	ProductDetail    string
	AdditionalParam  string
	PublisherOrderID string
	SettlementDate   string
	IssuerCode       string

	// Raw holds every field exactly as delivered.
	Raw map[string]any
}

// Code returns resultCode when present, statusCode otherwise.
func (cb *Callback) Code() string {
	if cb.ResultCode != "" {
		return cb.ResultCode
	}
	return cb.StatusCode
}

// Missing lists the required fields absent from the payload.
func (cb *Callback) Missing() []string {
	var missing []string
	if cb.MerchantCode == "" {
		missing = append(missing, "merchantCode")
	}
	if cb.MerchantOrderID == "" {
		missing = append(missing, "merchantOrderId")
	}
	if cb.Reference == "" {
		missing = append(missing, "reference")
	}
	if cb.Amount == "" {
		missing = append(missing, "amount")
	}
	if cb.Code() == "" {
		missing = append(missing, "resultCode")
	}
	if cb.Signature == "" {
		missing = append(missing, "signature")
	}
	return missing
}

// AmountValue parses the delivered amount as a whole number of rupiah.
func (cb *Callback) AmountValue() (int64, error) {
	s := strings.TrimSpace(cb.Amount)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, apperr.Ef(apperr.ErrValidation, "amount %q is not a whole number", cb.Amount)
	}
	return int64(f), nil
}

// ParseCallback reads a JSON or form-encoded callback body.
func ParseCallback(contentType string, body []byte) (*Callback, error) {
	fields := map[string]any{}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	trimmed := strings.TrimSpace(string(body))
	switch {
	case mediaType == "application/json", mediaType == "" && strings.HasPrefix(trimmed, "{"):
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return nil, apperr.Wrap(apperr.ErrValidation, "callback body is not valid JSON", err)
		}
	default:
		values, err := url.ParseQuery(trimmed)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrValidation, "callback body is not valid form data", err)
		}
		for k, v := range values {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
	}

	get := func(key string) string {
		v, ok := fields[key]
		if !ok || v == nil {
			return ""
		}
		if n, ok := v.(json.Number); ok {
			return n.String()
		}
		return strings.TrimSpace(cast.ToString(v))
	}
	return &Callback{
		MerchantCode:     get("merchantCode"),
		MerchantOrderID:  get("merchantOrderId"),
		Reference:        get("reference"),
		Amount:           get("amount"),
		ResultCode:       get("resultCode"),
		StatusCode:       get("statusCode"),
		Signature:        get("signature"),
		PaymentCode:      get("paymentCode"),
		ProductDetail:    get("productDetail"),
		AdditionalParam:  get("additionalParam"),
		PublisherOrderID: get("publisherOrderId"),
		SettlementDate:   get("settlementDate"),
		IssuerCode:       get("issuerCode"),
		Raw:              fields,
	}, nil
}

package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	PREFIX_CLASS        = "cls"
	PREFIX_SCHEDULE     = "sch"
	PREFIX_BOOKING      = "bk"
	PREFIX_PAYMENT      = "pay"
	PREFIX_CALLBACK_LOG = "pcl"
	PREFIX_ISSUE        = "iss"
	PREFIX_CONSULTANT   = "csr"
	PREFIX_NOTIFICATION = "ntf"
)

// NewID returns a prefixed random identifier such as pay_3f2a...
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// ClassSlug builds a unique slug from a class title.
func ClassSlug(title string) string {
	s := slug.Make(title)
	if s == "" {
		s = "class"
	}
	return fmt.Sprintf("%s-%s", s, uuid.NewString()[:8])
}

// TicketVerificationURL is the address encoded in a ticket's QR code.
func TicketVerificationURL(appURL string, bookingID string) string {
	return fmt.Sprintf("%s/verify-ticket/%s", strings.TrimRight(appURL, "/"), bookingID)
}

// Deref returns the value of s or an empty string.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

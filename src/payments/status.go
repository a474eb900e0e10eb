package payments

import (
	"fmt"

	"github.com/gawwe-id/oknum/src/duitku"
	"github.com/gawwe-id/oknum/src/types"
)

// MapResultCode is total: anything that is not a known success or pending
// code is a failure.
func MapResultCode(code string) types.PaymentStatus {
	switch code {
	case duitku.CodeSuccess:
		return types.PAYMENT_SUCCESS
	case duitku.CodePending:
		return types.PAYMENT_PROCESSING
	default:
		return types.PAYMENT_FAILED
	}
}

func statusMessage(status types.PaymentStatus, code string) string {
	switch status {
	case types.PAYMENT_SUCCESS:
		return "Payment successful"
	case types.PAYMENT_PROCESSING:
		return "Payment is being processed"
	default:
		return fmt.Sprintf("Payment failed (result code %s)", code)
	}
}

func failureReason(code string) string {
	return fmt.Sprintf("gateway returned result code %s", code)
}

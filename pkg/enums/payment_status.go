package enums

import "fmt"

// PaymentRecordStatus is the outcome of one verification attempt.
type PaymentRecordStatus string

const (
	PaymentRecordStatusSuccess PaymentRecordStatus = "success"
	PaymentRecordStatusFailed  PaymentRecordStatus = "failed"
)

var validPaymentRecordStatuses = []PaymentRecordStatus{
	PaymentRecordStatusSuccess,
	PaymentRecordStatusFailed,
}

// String implements fmt.Stringer.
func (s PaymentRecordStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s PaymentRecordStatus) IsValid() bool {
	for _, candidate := range validPaymentRecordStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentRecordStatus converts raw input into a PaymentRecordStatus.
func ParsePaymentRecordStatus(value string) (PaymentRecordStatus, error) {
	for _, candidate := range validPaymentRecordStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment record status %q", value)
}

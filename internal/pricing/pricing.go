package pricing

import (
	"errors"
	"math"
	"strings"

	"github.com/BatmanBruc/image-credits/types"
)

const (
	Currency       = "INR"
	MinAmountINR   = 10
	MaxAmountINR   = 500000
	StepINR        = 10
	CreditsPerStep = 6
	PaisePerRupee  = 100
)

var (
	ErrBelowMinimum    = errors.New("amount below minimum recharge")
	ErrAboveMaximum    = errors.New("amount above maximum recharge")
	ErrUnsupportedType = errors.New("unsupported credit type")
)

type Quote struct {
	Amount  int64            `json:"amount"`
	Numeric bool             `json:"numeric"`
	Type    types.CreditType `json:"type"`
	Credits int64            `json:"credits"`
	Message string           `json:"message,omitempty"`
}

// ParseAmount reads a leading integer the way a browser's parseInt does:
// leading whitespace, an optional sign, then digits up to the first non-digit.
// Values too large for int64 saturate instead of being cut short.
func ParseAmount(raw string) (int64, bool) {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	var n int64
	digits := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		digits++
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			n = math.MaxInt64
			continue
		}
		n = n*10 + d
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func Credits(creditType types.CreditType, amount int64) (int64, error) {
	switch creditType {
	case types.CreditTypeImage:
		if amount < MinAmountINR {
			return 0, ErrBelowMinimum
		}
		if amount > MaxAmountINR {
			return 0, ErrAboveMaximum
		}
		return (amount / StepINR) * CreditsPerStep, nil
	default:
		return 0, ErrUnsupportedType
	}
}

func QuoteFor(raw string, creditType types.CreditType) Quote {
	q := Quote{Type: creditType}
	amount, ok := ParseAmount(raw)
	if !ok {
		return q
	}
	q.Amount = amount
	q.Numeric = true

	credits, err := Credits(creditType, amount)
	switch {
	case errors.Is(err, ErrBelowMinimum):
		q.Message = MinimumMessage(creditType)
	case errors.Is(err, ErrAboveMaximum):
		q.Message = MaximumMessage(creditType)
	}
	q.Credits = credits
	return q
}

func MinorUnits(amount int64) int64 {
	return amount * PaisePerRupee
}

func MinimumMessage(creditType types.CreditType) string {
	switch creditType {
	case types.CreditTypeImage:
		return "Minimum recharge for images is ₹10"
	default:
		return ""
	}
}

func MaximumMessage(creditType types.CreditType) string {
	switch creditType {
	case types.CreditTypeImage:
		return "Maximum recharge for images is ₹500000"
	default:
		return ""
	}
}

package types

type CreditType string

const (
	CreditTypeImage CreditType = "image"
)

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusAttempted OrderStatus = "attempted"
	OrderStatusPaid      OrderStatus = "paid"
)

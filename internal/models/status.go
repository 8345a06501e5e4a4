package models

// Status is shared by orders and purchases.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Delivered and Cancelled are terminal.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

func (s Status) Valid() bool {
	_, ok := statusTransitions[s]

	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentUPINetBanking  PaymentMethod = "UPI / Net Banking"
	PaymentCard           PaymentMethod = "Card Payment"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCashOnDelivery, PaymentUPINetBanking, PaymentCard:
		return true
	}

	return false
}

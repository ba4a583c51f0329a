package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder         OutboxAggregateType = "order"
	AggregateReturnRequest OutboxAggregateType = "return_request"
	AggregateReview        OutboxAggregateType = "review"
	AggregateWallet        OutboxAggregateType = "wallet"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateReturnRequest,
	AggregateReview,
	AggregateWallet,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated    OutboxEventType = "order_created"
	EventOrderPaid       OutboxEventType = "order_paid"
	EventOrderCancelled  OutboxEventType = "order_cancelled"
	EventOrderShipped    OutboxEventType = "order_shipped"
	EventOrderInTransit  OutboxEventType = "order_in_transit"
	EventOrderDelivered  OutboxEventType = "order_delivered"
	EventOrderRevoked    OutboxEventType = "order_revoked"
	EventPayoutApproved  OutboxEventType = "payout_approved"
	EventReturnRequested OutboxEventType = "return_requested"
	EventReturnProcessed OutboxEventType = "return_processed"
	EventReturnCompleted OutboxEventType = "return_completed"
	EventReviewCreated   OutboxEventType = "review_created"
	EventWalletRedeemed  OutboxEventType = "wallet_redeemed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderPaid,
	EventOrderCancelled,
	EventOrderShipped,
	EventOrderInTransit,
	EventOrderDelivered,
	EventOrderRevoked,
	EventPayoutApproved,
	EventReturnRequested,
	EventReturnProcessed,
	EventReturnCompleted,
	EventReviewCreated,
	EventWalletRedeemed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

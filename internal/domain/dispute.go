package domain

import "github.com/shopspring/decimal"

type DisputeStatus string

const (
	DisputeStatusNeedsResponse        DisputeStatus = "needs_response"
	DisputeStatusUnderReview          DisputeStatus = "under_review"
	DisputeStatusWarningNeedsResponse DisputeStatus = "warning_needs_response"
	DisputeStatusWarningUnderReview   DisputeStatus = "warning_under_review"
	DisputeStatusWarningClosed        DisputeStatus = "warning_closed"
	DisputeStatusWon                  DisputeStatus = "won"
	DisputeStatusLost                 DisputeStatus = "lost"
)

var disputeOrderStatus = map[DisputeStatus]OrderStatus{
	DisputeStatusNeedsResponse:        OrderStatusDisputed,
	DisputeStatusUnderReview:          OrderStatusDisputed,
	DisputeStatusWarningNeedsResponse: OrderStatusDisputed,
	DisputeStatusWarningUnderReview:   OrderStatusDisputed,
	DisputeStatusWarningClosed:        OrderStatusPaid,
	DisputeStatusWon:                  OrderStatusPaid,
	DisputeStatusLost:                 OrderStatusRefunded,
}

// ParseDisputeStatus accepts only the dispute statuses the processor documents.
func ParseDisputeStatus(s string) (DisputeStatus, bool) {
	status := DisputeStatus(s)
	_, ok := disputeOrderStatus[status]
	return status, ok
}

// OrderStatus is the order status a dispute in this state maps to.
func (d DisputeStatus) OrderStatus() OrderStatus {
	return disputeOrderStatus[d]
}

type DisputeUpdate struct {
	DisputeID string
	Status    DisputeStatus
	Amount    decimal.Decimal
	Reason    string
}

// DisputeSources returns the statuses a dispute update may move an order out
// of on its way to the given status. Only orders that were paid, or are
// already disputed, can be affected by a dispute. Writing the current status
// again is handled separately as a detail-only update.
func DisputeSources(to OrderStatus) []string {
	var from []string
	for _, status := range Predecessors(to) {
		if status == string(OrderStatusPaid) || status == string(OrderStatusDisputed) {
			from = append(from, status)
		}
	}

	return from
}

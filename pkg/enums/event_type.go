package enums

// EventType names the domain events published after commit.
type EventType string

const (
	EventTypeStockChanged          EventType = "stock_changed"
	EventTypeOrderCreated          EventType = "order_created"
	EventTypeOrderStatusChanged    EventType = "order_status_changed"
	EventTypeOrderDeleted          EventType = "order_deleted"
	EventTypeClientPaymentRecorded EventType = "client_payment_recorded"
)

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

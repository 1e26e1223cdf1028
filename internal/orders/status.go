package orders

// Status labels a final Order. It is a free-form edit after creation but
// must be one of the known labels.
type Status string

const (
	StatusFulfilled       Status = "fulfilled"
	StatusPendingDelivery Status = "pending_delivery"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusFulfilled, StatusPendingDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type OnlineStatus string

const (
	OnlineNew         OnlineStatus = "new"
	OnlineTransferred OnlineStatus = "transferred"
	OnlineConfirmed   OnlineStatus = "confirmed"
	OnlineCompleted   OnlineStatus = "completed"
	OnlineRejected    OnlineStatus = "rejected"
	OnlineCancelled   OnlineStatus = "cancelled"
)

var manualOnline = map[OnlineStatus]bool{
	OnlineConfirmed: true,
	OnlineCompleted: true,
	OnlineRejected:  true,
	OnlineCancelled: true,
}

func (s OnlineStatus) Valid() bool {
	return s == OnlineNew || s == OnlineTransferred || manualOnline[s]
}

// CanTransition reports whether an online order may move from -> to.
// Transfer to picking is one-way and only reachable from new; manual
// labels are free among themselves.
func CanTransition(from, to OnlineStatus) bool {
	switch {
	case from == OnlineTransferred:
		return false
	case to == OnlineTransferred:
		return from == OnlineNew
	case to == OnlineNew:
		return false
	default:
		return manualOnline[to]
	}
}

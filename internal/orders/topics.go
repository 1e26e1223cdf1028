package orders

const (
	TopicOrderCommitted     = "order.committed"
	TopicStockRejected      = "order.stock.rejected"
	TopicDraftCancelled     = "draft.cancelled"
	TopicOnlineRequested    = "online_order.requested"
	TopicOnlineSubmitted    = "online_order.submitted"
	TopicOnlineTransferred  = "online_order.transferred"
	TopicOnlineStatusChange = "online_order.status_changed"
)

// Partition key = aggregate id, so every event of one order stays in order.
func PartitionKey(id string) []byte { return []byte(id) }

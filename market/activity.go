package market

import "fmt"

// QueuedMessage describes a user joining a queue.
func QueuedMessage(name string, side Side) string {
	return fmt.Sprintf("%s added to %s queue", name, side)
}

// LeftQueueMessage describes a user cancelling out of a queue.
func LeftQueueMessage(name string, side Side) string {
	return fmt.Sprintf("%s removed from %s queue", name, side)
}

// PairMessage describes a change on a matched order.
func PairMessage(buyer, seller, action string) string {
	return fmt.Sprintf("Buyer: %s, Seller: %s - %s", buyer, seller, action)
}

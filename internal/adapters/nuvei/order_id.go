package nuvei

import (
	"strings"

	"github.com/google/uuid"
)

// OrderIDLength is the longest order ID the gateway accepts
const OrderIDLength = 20

// GenerateOrderID returns a random 20 character hex order ID
func GenerateOrderID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:OrderIDLength]
}

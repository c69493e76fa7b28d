package domain

import "time"

// Webhook is a registered notification destination.
type Webhook struct {
	URL       string
	CreatedAt time.Time
}

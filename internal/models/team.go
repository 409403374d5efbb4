package models

import "time"

// Team owns monitors. Every member receives a notification when one of the
// team's monitors transitions.
type Team struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// Conversation is the aggregate root grouping participants and messages
// under a title. Children must be removed before the conversation row.
type Conversation struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Title     string    `bson:"title" json:"title"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

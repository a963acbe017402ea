package models

import "time"

// Todo is an owner-scoped record unrelated to the messaging entities.
type Todo struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	OwnerID   string    `bson:"owner_id" json:"owner_id"`
	Content   string    `bson:"content" json:"content"`
	IsDone    bool      `bson:"is_done" json:"is_done"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

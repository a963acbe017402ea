package models

// Participant binds one user to one conversation. Create-once,
// delete-on-conversation-removal; there are no updates.
type Participant struct {
	ID             string `bson:"_id,omitempty" json:"id"`
	ConversationID string `bson:"conversation_id" json:"conversation_id"`
	UserID         string `bson:"user_id" json:"user_id"`
}

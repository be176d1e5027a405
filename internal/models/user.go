package models

import "time"

// User mirrors an identity-provider account the first time it signs in and on
// every sign-in after. Email is stored verbatim; it decides who is admin.
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Sub       string    `bson:"sub" json:"sub"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	Picture   string    `bson:"picture,omitempty" json:"picture,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	LastSeen  time.Time `bson:"updatedAt" json:"lastSeen"`
}

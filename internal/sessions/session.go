package sessions

import "time"

// Session backs one refresh token. Rotation replaces the token but carries
// SignedInAt forward, so it always marks the password sign-in.
type Session struct {
	ID           string    `bson:"_id,omitempty" json:"id,omitempty"`
	RefreshToken string    `bson:"refreshToken" json:"refreshToken"`
	Sub          string    `bson:"sub" json:"sub"`
	SignedInAt   time.Time `bson:"signedInAt" json:"signedInAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
}

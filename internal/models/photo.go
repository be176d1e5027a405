package models

import "time"

// Photo is a gallery entry. ImageURL never changes after the record is created.
type Photo struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	ImageURL  string     `bson:"imageUrl" json:"image_url"`
	Caption   *string    `bson:"caption,omitempty" json:"caption"`
	TakenAt   *time.Time `bson:"takenAt,omitempty" json:"taken_at"`
	CreatedAt time.Time  `bson:"createdAt" json:"created_at"`
}

// CaptionText returns the caption or "" when none was set.
func (p Photo) CaptionText() string {
	if p.Caption == nil {
		return ""
	}
	return *p.Caption
}

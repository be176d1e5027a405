package models

import "time"

// AnonymousNickname is shown for comments posted without a nickname.
const AnonymousNickname = "anonymous"

// Memo is a board entry written by the admin.
type Memo struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	Title     string    `bson:"title" json:"title"`
	Body      string    `bson:"body" json:"body"`
}

// Comment belongs to exactly one memo and may be posted by anyone.
type Comment struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	MemoID    string    `bson:"memoId" json:"memo_id"`
	Nickname  *string   `bson:"nickname,omitempty" json:"nickname"`
	Body      string    `bson:"body" json:"body"`
}

// DisplayName is the nickname shown to viewers.
func (c Comment) DisplayName() string {
	if c.Nickname == nil || *c.Nickname == "" {
		return AnonymousNickname
	}
	return *c.Nickname
}

package models

import "time"

// Subscription records that one user follows another's recipes. A user cannot
// follow themselves; the check constraint backs the application-level guard.
// Rows are hard deleted so unsubscribe-then-resubscribe never hits a stale
// index entry.
type Subscription struct {
	ID           uint      `gorm:"primarykey" json:"-"`
	CreatedAt    time.Time `json:"-"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscriber_author;check:chk_no_self_subscription,subscriber_id <> author_id" json:"subscriber_id"`
	AuthorID     uint      `gorm:"not null;uniqueIndex:idx_subscriber_author" json:"author_id"`
	Author       *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

package models

import "time"

// Alert is a network-wide notice shown on every dashboard.
type Alert struct {
	ID      string `bson:"_id" json:"id"`
	Title   string `bson:"title" json:"title"`
	Message string `bson:"message" json:"message"`
	Icon    string `bson:"icon" json:"icon"`
	Color   string `bson:"color" json:"color"`
}

// Announcement is a dated network-wide post authored by an admin.
type Announcement struct {
	ID     string    `bson:"_id" json:"id"`
	Date   time.Time `bson:"date" json:"date"`
	Author string    `bson:"author" json:"author"`
	Title  string    `bson:"title" json:"title"`
	Body   string    `bson:"body" json:"body"`
}

// NetworkStats is the aggregate view shown on the admin overview.
type NetworkStats struct {
	TotalMembers        int64 `json:"totalMembers"`
	PendingApplications int64 `json:"pendingApplications"`
	ActiveListings      int64 `json:"activeListings"`
}

package models

// UserSettings holds farm contact details and notification toggles. Writes are
// merges, so absent fields never clobber stored values.
type UserSettings struct {
	UID          string `bson:"_id" json:"-"`
	FarmName     string `bson:"farm_name,omitempty" json:"farmName,omitempty"`
	ContactName  string `bson:"contact_name,omitempty" json:"contactName,omitempty"`
	PhoneNumber  string `bson:"phone_number,omitempty" json:"phoneNumber,omitempty"`
	NotifyMarket *bool  `bson:"notify_market,omitempty" json:"notifyMarket,omitempty"`
	NotifyNews   *bool  `bson:"notify_news,omitempty" json:"notifyNews,omitempty"`
	NotifyPrice  *bool  `bson:"notify_price,omitempty" json:"notifyPrice,omitempty"`
}

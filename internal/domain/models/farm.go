package models

import "time"

// KPISnapshot holds the headline farm health metrics shown on the dashboard.
// Each metric carries the delta against the previous snapshot.
type KPISnapshot struct {
	UID                     string    `bson:"_id" json:"-"`
	FCR                     float64   `bson:"fcr" json:"fcr"`
	FCRChange               float64   `bson:"fcr_change" json:"fcrChange"`
	FCRFeedKg               float64   `bson:"fcr_feed_kg" json:"fcr_feed_kg"`
	FCREggsKg               float64   `bson:"fcr_eggs_kg" json:"fcr_eggs_kg"`
	EggProductionRate       float64   `bson:"egg_production_rate" json:"eggProductionRate"`
	EggProductionRateChange float64   `bson:"egg_production_rate_change" json:"eggProductionRateChange"`
	EggsToday               int       `bson:"prod_eggs_today" json:"prod_eggs_today"`
	HensTotal               int       `bson:"prod_hens_total" json:"prod_hens_total"`
	FeedCostPerEgg          float64   `bson:"feed_cost_per_egg" json:"feedCostPerEgg"`
	FeedCostPerEggChange    float64   `bson:"feed_cost_per_egg_change" json:"feedCostPerEggChange"`
	FeedCostToday           float64   `bson:"cost_feed_today_php" json:"cost_feed_today_php"`
	MortalityRate           float64   `bson:"mortality_rate" json:"mortalityRate"`
	MortalityRateChange     float64   `bson:"mortality_rate_change" json:"mortalityRateChange"`
	Deaths7d                int       `bson:"mort_deaths_7d" json:"mort_deaths_7d"`
	Birds7dAgo              int       `bson:"mort_birds_7d_ago" json:"mort_birds_7d_ago"`
	UpdatedAt               time.Time `bson:"updated_at" json:"updatedAt"`
}

// KPIHistoryRecord is a dated copy of a KPI snapshot, written once per day by
// the scheduler and never mutated afterwards.
type KPIHistoryRecord struct {
	ID       string      `bson:"_id" json:"id"` // "<uid>:<YYYY-MM-DD>"
	UID      string      `bson:"uid" json:"-"`
	Date     string      `bson:"date" json:"date"` // YYYY-MM-DD
	Snapshot KPISnapshot `bson:"snapshot" json:"snapshot"`
}

// DailyRecordID builds the key for one member's dated record.
func DailyRecordID(uid, date string) string {
	return uid + ":" + date
}

// FlockStatus describes the production stage of a livestock flock.
type FlockStatus string

const (
	FlockPeakProduction FlockStatus = "Peak Production"
	FlockGrowing        FlockStatus = "Growing"
	FlockEndOfLay       FlockStatus = "End of Lay"
	FlockNew            FlockStatus = "New"
)

// LivestockFlock is a per-user flock record.
type LivestockFlock struct {
	ID        string      `bson:"_id" json:"id"`
	UID       string      `bson:"uid" json:"-"`
	Type      string      `bson:"type" json:"type"`
	AgeWeeks  int         `bson:"age_weeks" json:"age"`
	Headcount int         `bson:"headcount" json:"headcount"`
	Status    FlockStatus `bson:"status" json:"status"`
}

// Supply is a per-user inventory line with its network sourcing status.
type Supply struct {
	ID            string `bson:"_id" json:"id"`
	UID           string `bson:"uid" json:"-"`
	Item          string `bson:"item" json:"item"`
	Category      string `bson:"category" json:"category"`
	StockLevel    string `bson:"stock_level" json:"stockLevel"`
	NetworkStatus string `bson:"network_status" json:"networkStatus"`
}

// EggProductionRecord tracks one day of egg output, keyed by member and date.
type EggProductionRecord struct {
	ID   string `bson:"_id" json:"-"` // "<uid>:<YYYY-MM-DD>"
	UID  string `bson:"uid" json:"-"`
	Date string `bson:"date" json:"date"` // YYYY-MM-DD
	Eggs int    `bson:"eggs" json:"eggs"`
}

package models

import "time"

type Condition string

const (
	ConditionNew     Condition = "New"
	ConditionLikeNew Condition = "Like New"
	ConditionGood    Condition = "Good"
	ConditionFair    Condition = "Fair"
	ConditionPoor    Condition = "Poor"

	// ConditionUnknown is only produced by normalization of incomplete records.
	ConditionUnknown Condition = "Unknown"
)

// Conditions lists the values a seller may pick, best first.
var Conditions = []Condition{ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor}

func (c Condition) Valid() bool {
	for _, v := range Conditions {
		if c == v {
			return true
		}
	}
	return false
}

// SellerSummary is the seller block embedded in every listing.
type SellerSummary struct {
	Name         string    `json:"name"`
	Rating       float64   `json:"rating"`
	Phone        string    `json:"phone"`
	JoinedDate   time.Time `json:"joined_date"`
	TotalSales   int       `json:"total_sales"`
	ResponseRate float64   `json:"response_rate"`
}

type Listing struct {
	ID          string        `json:"id"`
	SellerID    string        `json:"seller_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Price       float64       `json:"price"`
	Category    string        `json:"category"`
	Location    string        `json:"location"`
	Image       string        `json:"image"`
	Condition   Condition     `json:"condition"`
	Features    []string      `json:"features"`
	Images      []string      `json:"images"`
	IsSold      bool          `json:"is_sold"`
	Seller      SellerSummary `json:"seller"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
}

// ListingList is one page of search results.
type ListingList struct {
	Listings []Listing `json:"listings"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	MinPrice float64   `json:"min_price"`
	MaxPrice float64   `json:"max_price"`
	// Source is "database" or "cache" when the database was unreachable.
	Source string `json:"source"`
}

package models

import "time"

type SellerProfile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Rating       float64   `json:"rating"`
	TotalSales   int       `json:"total_sales"`
	ResponseRate float64   `json:"response_rate"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	DeviceToken  string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p SellerProfile) Summary() SellerSummary {
	return SellerSummary{
		Name:         p.Name,
		Rating:       p.Rating,
		Phone:        p.Phone,
		JoinedDate:   p.CreatedAt,
		TotalSales:   p.TotalSales,
		ResponseRate: p.ResponseRate,
	}
}

type ProfileUpdateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

package types

import "time"

type NewsItem struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	PublisherName string     `json:"publisherName"`
	Date          string     `json:"date"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

type NewsInput struct {
	Title string `json:"title" form:"title"`
	Body  string `json:"body" form:"body"`
	Date  string `json:"date" form:"date"`
}

package model

type Service struct {
	ID              int64
	Name            string
	Subtitle        string
	DurationMinutes int
	PriceCents      int64
	IsActive        bool
	SortOrder       int
}

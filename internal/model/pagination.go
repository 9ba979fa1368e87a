package model

// Pagination describes one page of a larger result set.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPagination builds pagination metadata. TotalPages is ceil(total/limit),
// so an empty result has zero pages.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		Limit:       limit,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// TemplatePage is a page of templates with its pagination metadata.
type TemplatePage struct {
	Templates  []Template `json:"templates"`
	Pagination Pagination `json:"pagination"`
}

// AccountPage is a page of accounts with its pagination metadata.
type AccountPage struct {
	Users      []Account  `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// DashboardStats summarizes the store for the admin dashboard.
type DashboardStats struct {
	TotalUsers       int64      `json:"totalUsers"`
	ActiveUsers      int64      `json:"activeUsers"`
	Admins           int64      `json:"admins"`
	TotalTemplates   int64      `json:"totalTemplates"`
	PublicTemplates  int64      `json:"publicTemplates"`
	PremiumTemplates int64      `json:"premiumTemplates"`
	RecentUsers      []Account  `json:"recentUsers"`
	RecentTemplates  []Template `json:"recentTemplates"`
}

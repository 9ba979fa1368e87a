package service

import (
	"math"
	"strings"

	"mailforge/internal/repository"
)

const (
	// DefaultPageSize is used when no limit is requested.
	DefaultPageSize = 12
	// MaxPageSize caps any requested limit.
	MaxPageSize = 100
)

// PageLimits bounds the page size of every listing.
type PageLimits struct {
	Default int
	Max     int
}

func (l PageLimits) normalize(page, limit int) (int, int) {
	defaultLimit, maxLimit := l.Default, l.Max
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageSize
	}
	if maxLimit <= 0 {
		maxLimit = MaxPageSize
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	// keep (page-1)*limit within an int32 offset
	if maxPage := math.MaxInt32 / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

var sortKeys = map[string]string{
	"createdAt":     repository.SortCreatedAt,
	"updatedAt":     repository.SortUpdatedAt,
	"name":          repository.SortName,
	"rating":        repository.SortRating,
	"favoriteCount": repository.SortFavoriteCount,
}

// ListParams is a raw template listing request as received from a client.
type ListParams struct {
	Page            int
	Limit           int
	SortBy          string
	SortOrder       string
	Category        string
	Search          string
	IsPublic        *bool
	IsPremium       *bool
	IncludeInactive bool
}

// PageRequest is a normalized listing request.
type PageRequest struct {
	Page       int
	Limit      int
	Offset     int
	SortColumn string
	Descending bool
}

// NormalizeListParams clamps paging into limits and resolves the sort key
// against the whitelist. Unknown sort keys fall back to creation time and
// any order other than "asc" sorts descending.
func NormalizeListParams(params ListParams, limits PageLimits) PageRequest {
	page, limit := limits.normalize(params.Page, params.Limit)

	column, ok := sortKeys[strings.TrimSpace(params.SortBy)]
	if !ok {
		column = repository.SortCreatedAt
	}

	return PageRequest{
		Page:       page,
		Limit:      limit,
		Offset:     (page - 1) * limit,
		SortColumn: column,
		Descending: !strings.EqualFold(strings.TrimSpace(params.SortOrder), "asc"),
	}
}

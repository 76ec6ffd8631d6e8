package service

import (
	"fmt"

	"github.com/userhub/user-directory/internal/core/ports"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// clampPaging normalises the requested page and limit: limit is clamped to
// [1, maxPageLimit] (defaulting when unset), page below 1 becomes 1.
func clampPaging(page, limit int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page < 1 {
		page = 1
	}
	return page, limit
}

// totalPages derives the page count. An empty result set has zero pages.
func totalPages(totalItems int64, limit int) int {
	if totalItems <= 0 {
		return 0
	}
	return int((totalItems + int64(limit) - 1) / int64(limit))
}

func newPageMeta(page, limit, itemCount int, totalItems int64) ports.PageMeta {
	return ports.PageMeta{
		CurrentPage:  page,
		ItemCount:    itemCount,
		ItemsPerPage: limit,
		TotalItems:   totalItems,
		TotalPages:   totalPages(totalItems, limit),
	}
}

// buildPageLinks derives first/previous/next/last links from the base
// route. Previous and Next are empty at the boundaries; Last is empty when
// there are no pages at all.
func buildPageLinks(route string, page, limit, pages int) ports.PageLinks {
	links := ports.PageLinks{
		First: fmt.Sprintf("%s?page=1&limit=%d", route, limit),
	}
	if pages == 0 {
		return links
	}
	links.Last = fmt.Sprintf("%s?page=%d&limit=%d", route, pages, limit)
	if page > 1 {
		links.Previous = fmt.Sprintf("%s?page=%d&limit=%d", route, page-1, limit)
	}
	if page < pages {
		links.Next = fmt.Sprintf("%s?page=%d&limit=%d", route, page+1, limit)
	}
	return links
}

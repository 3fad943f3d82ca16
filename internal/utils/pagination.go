package utils

import "math"

type Pagination struct {
	Pages       []int
	TotalPage   int
	CurrentPage int
	Prev        int
	Next        int
}

// Offset returns the row offset for a 1-based page.
func Offset(pageSize, page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

func NewPagination(pageSize, page int, total int64) Pagination {
	totalPage := int(math.Ceil(float64(total) / float64(pageSize)))
	if totalPage == 0 {
		totalPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPage {
		page = totalPage
	}

	pages := make([]int, totalPage)
	for i := range pages {
		pages[i] = i + 1
	}

	prev := page - 1
	if prev < 1 {
		prev = 1
	}
	next := page + 1
	if next > totalPage {
		next = totalPage
	}

	return Pagination{
		Pages:       pages,
		TotalPage:   totalPage,
		CurrentPage: page,
		Prev:        prev,
		Next:        next,
	}
}

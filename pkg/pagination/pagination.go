// Package pagination implements offset slicing shared by the feed and the listings.
//
// Two result shapes use the same Page input and the same caller-defined ordering:
// Paged carries totals derived from a count query, Slice only reports whether a
// further page exists by fetching one extra row past the page boundary.
// Offset pagination may repeat or skip rows when inserts land between fetches.
package pagination

import (
	"math"

	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/pkg/apperr"
)

var (
	ErrNegativePage = apperr.New(apperr.ErrInvalidOperation, "page must be >= 0")
	ErrPageSize     = apperr.New(apperr.ErrInvalidOperation, "size out of range")
	ErrPageRange    = apperr.New(apperr.ErrInvalidOperation, "page out of range")
)

// Page 页码从 0 开始
type Page struct {
	Index int `form:"page" json:"page"`
	Size  int `form:"size" json:"size"`
}

// New 构造页参数
func New(index, size int) Page { return Page{Index: index, Size: size} }

// Validate 校验页参数，maxSize <= 0 表示不限制
func (p Page) Validate(maxSize int) error {
	if p.Index < 0 {
		return ErrNegativePage
	}
	if p.Size <= 0 || (maxSize > 0 && p.Size > maxSize) {
		return ErrPageSize
	}
	// Offset 与 SliceScope 的 size+1 都不能溢出
	if p.Index > (math.MaxInt-p.Size-1)/p.Size {
		return ErrPageRange
	}
	return nil
}

// Offset 返回起始偏移
func (p Page) Offset() int { return p.Index * p.Size }

// Scope 用于 Paged 查询：OFFSET index*size LIMIT size
func Scope(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Size)
	}
}

// SliceScope 用于 Slice 查询：多取一行判断是否还有下一页
func SliceScope(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Size + 1)
	}
}

// Slice is a page without totals.
type Slice[T any] struct {
	Items   []T  `json:"items"`
	HasNext bool `json:"hasNext"`
	Page    int  `json:"page"`
	Size    int  `json:"size"`
}

// NewSlice trims rows fetched with SliceScope down to the page size.
func NewSlice[T any](rows []T, p Page) Slice[T] {
	hasNext := len(rows) > p.Size
	if hasNext {
		rows = rows[:p.Size]
	}
	if rows == nil {
		rows = []T{}
	}
	return Slice[T]{Items: rows, HasNext: hasNext, Page: p.Index, Size: p.Size}
}

// Paged is a page with totals.
type Paged[T any] struct {
	Items         []T   `json:"items"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

// NewPaged builds a Paged result from a page of rows and the total row count.
func NewPaged[T any](items []T, total int64, p Page) Paged[T] {
	if items == nil {
		items = []T{}
	}
	return Paged[T]{
		Items:         items,
		TotalPages:    TotalPages(total, p.Size),
		TotalElements: total,
		Page:          p.Index,
		Size:          p.Size,
	}
}

// TotalPages 向上取整
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// MapSlice converts the items of a Slice.
func MapSlice[T, U any](s Slice[T], fn func(T) U) Slice[U] {
	out := make([]U, len(s.Items))
	for i, it := range s.Items {
		out[i] = fn(it)
	}
	return Slice[U]{Items: out, HasNext: s.HasNext, Page: s.Page, Size: s.Size}
}

// MapPaged converts the items of a Paged result.
func MapPaged[T, U any](p Paged[T], fn func(T) U) Paged[U] {
	out := make([]U, len(p.Items))
	for i, it := range p.Items {
		out[i] = fn(it)
	}
	return Paged[U]{Items: out, TotalPages: p.TotalPages, TotalElements: p.TotalElements, Page: p.Page, Size: p.Size}
}

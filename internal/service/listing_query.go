package service

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nhatro/internal/db"
)

// 列表排序方式
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

const (
	// DefaultPage 与 DefaultLimit 在参数缺失或非法时生效
	DefaultPage  = 1
	DefaultLimit = 10
	// MaxLimit 是服务端强制的单页上限
	MaxLimit = 100
)

// ListingQuery describes validated filters for listing rental articles.
type ListingQuery struct {
	Search     string
	CategoryID uint
	// TagIDs 采用 ANY 语义：房源标签集合与筛选集合有交集即命中。
	TagIDs   []uint
	MinPrice *int64
	MaxPrice *int64
	MinArea  *float64
	MaxArea  *float64
	// Status 为空时不过滤状态，返回全部生命周期的房源
	Status db.ArticleStatus
	Sort   string
	Page   int
	Limit  int
}

// ParseListingQuery 将松散的查询参数包转换为合法的 ListingQuery。
// 非法的数字参数直接忽略而不是报错（宽松解析）。
func ParseListingQuery(values url.Values) ListingQuery {
	q := ListingQuery{
		Search: strings.TrimSpace(values.Get("search")),
		Sort:   SortNewest,
		Page:   DefaultPage,
		Limit:  DefaultLimit,
	}

	if id, ok := parseUintValue(values.Get("categoryID")); ok {
		q.CategoryID = id
	}

	q.TagIDs = parseIDList(values["tags"])

	if v, ok := parseInt64Value(values.Get("minPrice")); ok && v >= 0 {
		q.MinPrice = &v
	}
	if v, ok := parseInt64Value(values.Get("maxPrice")); ok && v >= 0 {
		q.MaxPrice = &v
	}
	if v, ok := parseFloatValue(values.Get("minArea")); ok && v >= 0 {
		q.MinArea = &v
	}
	if v, ok := parseFloatValue(values.Get("maxArea")); ok && v >= 0 {
		q.MaxArea = &v
	}

	if status := db.ArticleStatus(strings.TrimSpace(values.Get("status"))); status.Valid() {
		q.Status = status
	}

	switch values.Get("sort") {
	case SortOldest:
		q.Sort = SortOldest
	case SortPriceAsc:
		q.Sort = SortPriceAsc
	case SortPriceDesc:
		q.Sort = SortPriceDesc
	}

	if page, ok := parseIntValue(values.Get("page")); ok && page >= 1 {
		q.Page = page
	}
	if limit, ok := parseIntValue(values.Get("limit")); ok && limit >= 1 {
		q.Limit = limit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	return q
}

// parseIDList 兼容重复键与逗号分隔两种传参方式，忽略无法解析的片段。
func parseIDList(raw []string) []uint {
	ids := make([]uint, 0, len(raw))
	seen := make(map[uint]struct{})
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			id, ok := parseUintValue(part)
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func parseUintValue(raw string) (uint, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}

func parseIntValue(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func parseInt64Value(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func parseFloatValue(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

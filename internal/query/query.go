// Package query 对已加载的目录做筛选、搜索和排序，所有函数返回新切片，不修改输入
package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/blues/crowdfund/internal/model"
)

// CategoryAll 匹配所有分类
const CategoryAll = "all"

// SortKey Sort 使用的排序方式
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortEndingSoon SortKey = "ending-soon"
	SortMostFunded SortKey = "most-funded"
	SortGoalAmount SortKey = "goal-amount"
)

// Filter 保留分类完全匹配的项目
func Filter(records []model.CampaignRecord, category string) []model.CampaignRecord {
	if category == CategoryAll || category == "" {
		return clone(records)
	}
	out := make([]model.CampaignRecord, 0, len(records))
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// Search 保留标题、描述、分类或发起人包含 term 的项目，忽略大小写，空串匹配全部
func Search(records []model.CampaignRecord, term string) []model.CampaignRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return clone(records)
	}
	out := make([]model.CampaignRecord, 0, len(records))
	for _, r := range records {
		if matches(r, term) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r model.CampaignRecord, term string) bool {
	for _, field := range []string{r.Title, r.Description, r.Category, r.Creator()} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Sort 按 key 稳定排序，未知的 key 与 SortNewest 保持插入顺序
func Sort(records []model.CampaignRecord, key SortKey) []model.CampaignRecord {
	out := clone(records)

	var less func(a, b model.CampaignRecord) bool
	switch key {
	case SortEndingSoon:
		less = func(a, b model.CampaignRecord) bool { return a.DaysLeft < b.DaysLeft }
	case SortMostFunded:
		less = func(a, b model.CampaignRecord) bool { return ParseAmount(a.Raised) > ParseAmount(b.Raised) }
	case SortGoalAmount:
		less = func(a, b model.CampaignRecord) bool { return ParseAmount(a.TargetAmount) > ParseAmount(b.TargetAmount) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// ParseAmount 只保留 s 中的数字，"$12,500" 解析为 12500
// 没有数字或数值溢出时返回 0
func ParseAmount(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Axis 用户最后操作的控件
type Axis string

const (
	AxisNone   Axis = ""
	AxisFilter Axis = "filter"
	AxisSearch Axis = "search"
	AxisSort   Axis = "sort"
)

// View 浏览控件的状态
type View struct {
	Axis     Axis    `form:"axis"`
	Category string  `form:"category"`
	Term     string  `form:"q"`
	Sort     SortKey `form:"sort"`
}

// Apply 只对完整目录执行 v.Axis 指定的操作，各操作互相重置，搜索不会叠加之前的筛选
func Apply(records []model.CampaignRecord, v View) []model.CampaignRecord {
	switch v.Axis {
	case AxisFilter:
		return Filter(records, v.Category)
	case AxisSearch:
		return Search(records, v.Term)
	case AxisSort:
		return Sort(records, v.Sort)
	default:
		return clone(records)
	}
}

func clone(records []model.CampaignRecord) []model.CampaignRecord {
	out := make([]model.CampaignRecord, len(records))
	copy(out, records)
	return out
}

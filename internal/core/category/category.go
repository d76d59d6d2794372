// Package category merges the immutable system category catalog with
// the user's custom categories and resolves category identity and
// icon glyphs.
package category

import (
	"sort"

	"github.com/jlzm/MoneyNotes/internal/core/ledger"
)

// ID prefixes. System and custom IDs are drawn from disjoint
// namespaces so lookups never collide.
const (
	systemIDPrefix = "sys_"
	customIDPrefix = "custom_"
)

// Category is a bill category. System categories ship with the app,
// keep a fixed sort order and cannot be deleted; custom categories
// are owned and editable by the user.
type Category struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Icon      string           `json:"icon"`
	Type      ledger.Direction `json:"type"`
	IsCustom  bool             `json:"isCustom"`
	SortOrder int              `json:"sortOrder"`
}

// System expense categories, in declared order.
var systemExpenseCategories = []Category{
	{ID: "sys_1", Name: "餐饮", Icon: "food", Type: ledger.DirectionExpense, SortOrder: 1},
	{ID: "sys_2", Name: "交通", Icon: "transport", Type: ledger.DirectionExpense, SortOrder: 2},
	{ID: "sys_3", Name: "购物", Icon: "shopping", Type: ledger.DirectionExpense, SortOrder: 3},
	{ID: "sys_4", Name: "娱乐", Icon: "entertainment", Type: ledger.DirectionExpense, SortOrder: 4},
	{ID: "sys_5", Name: "居住", Icon: "housing", Type: ledger.DirectionExpense, SortOrder: 5},
	{ID: "sys_6", Name: "医疗", Icon: "medical", Type: ledger.DirectionExpense, SortOrder: 6},
	{ID: "sys_7", Name: "教育", Icon: "education", Type: ledger.DirectionExpense, SortOrder: 7},
	{ID: "sys_8", Name: "通讯", Icon: "communication", Type: ledger.DirectionExpense, SortOrder: 8},
	{ID: "sys_9", Name: "其他", Icon: "other", Type: ledger.DirectionExpense, SortOrder: 99},
}

// System income categories, in declared order.
var systemIncomeCategories = []Category{
	{ID: "sys_10", Name: "工资", Icon: "salary", Type: ledger.DirectionIncome, SortOrder: 1},
	{ID: "sys_11", Name: "奖金", Icon: "bonus", Type: ledger.DirectionIncome, SortOrder: 2},
	{ID: "sys_12", Name: "投资", Icon: "investment", Type: ledger.DirectionIncome, SortOrder: 3},
	{ID: "sys_13", Name: "兼职", Icon: "parttime", Type: ledger.DirectionIncome, SortOrder: 4},
	{ID: "sys_14", Name: "红包", Icon: "redpacket", Type: ledger.DirectionIncome, SortOrder: 5},
	{ID: "sys_15", Name: "其他", Icon: "other", Type: ledger.DirectionIncome, SortOrder: 99},
}

// FallbackGlyph is used for icon keys with no mapping and for bills
// whose category no longer resolves.
const FallbackGlyph = "📋"

// iconGlyphs maps icon keys to display glyphs.
var iconGlyphs = map[string]string{
	"food":          "🍔",
	"transport":     "🚗",
	"shopping":      "🛒",
	"entertainment": "🎮",
	"housing":       "🏠",
	"medical":       "💊",
	"education":     "📚",
	"communication": "📱",
	"salary":        "💰",
	"bonus":         "🎁",
	"investment":    "📈",
	"parttime":      "💼",
	"redpacket":     "🧧",
	"other":         "📋",
	"travel":        "✈️",
	"pet":           "🐱",
	"beauty":        "💄",
	"sports":        "⚽",
	"gift":          "🎀",
	"insurance":     "🛡️",
	"tax":           "📝",
	"child":         "👶",
	"elder":         "👴",
	"social":        "🍻",
	"digital":       "💻",
	"clothing":      "👔",
	"book":          "📖",
	"movie":         "🎬",
	"music":         "🎵",
	"game":          "🎲",
	"fitness":       "💪",
	"coffee":        "☕",
	"fruit":         "🍎",
	"snack":         "🍪",
}

// IconGlyph resolves an icon key to its display glyph, falling back
// to FallbackGlyph for unknown keys.
func IconGlyph(key string) string {
	if g, ok := iconGlyphs[key]; ok {
		return g
	}
	return FallbackGlyph
}

// AvailableIcons returns the icon keys the user can pick from for
// custom categories, in stable order.
func AvailableIcons() []string {
	keys := make([]string, 0, len(iconGlyphs))
	for k := range iconGlyphs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

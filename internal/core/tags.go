package core

import "strings"

// Category is a closed set of transaction labels. Free-form input is mapped
// through NormalizeCategory; anything unrecognized falls back to CategoryOther.
// Categories carry no behavior, only presentation grouping.
type Category string

const (
	CategoryGroceries     Category = "Groceries"
	CategoryRent          Category = "Rent"
	CategorySalary        Category = "Salary"
	CategoryDeposit       Category = "Deposit"
	CategoryUtilities     Category = "Utilities"
	CategoryDining        Category = "Dining"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryHealthcare    Category = "Healthcare"
	CategoryEntertainment Category = "Entertainment"
	CategoryIncome        Category = "Income"
	CategoryExpense       Category = "Expense"
	CategoryOther         Category = "Other"
)

// Categories lists the suggested set in display order.
func Categories() []Category {
	return []Category{
		CategoryGroceries, CategoryRent, CategorySalary, CategoryDeposit,
		CategoryUtilities, CategoryDining, CategoryTransport, CategoryShopping,
		CategoryHealthcare, CategoryEntertainment, CategoryOther,
	}
}

// NormalizeCategory maps a free-form label onto the closed set.
// An empty label defaults by transaction direction: Income for deposits,
// Expense for withdrawals.
func NormalizeCategory(label string, typ TxnType) Category {
	label = strings.TrimSpace(label)
	if label == "" {
		if typ == TypeAdd {
			return CategoryIncome
		}
		return CategoryExpense
	}
	for _, c := range Categories() {
		if strings.EqualFold(label, string(c)) {
			return c
		}
	}
	switch strings.ToLower(label) {
	case "income":
		return CategoryIncome
	case "expense":
		return CategoryExpense
	}
	return CategoryOther
}

// GoalIcon selects a presentation icon for a goal. No behavioral effect.
type GoalIcon string

const (
	IconBriefcase GoalIcon = "briefcase"
	IconShield    GoalIcon = "shield"
	IconHome      GoalIcon = "home"
)

// NormalizeGoalIcon falls back to the briefcase for unknown tags, matching
// the default presentation.
func NormalizeGoalIcon(tag string) GoalIcon {
	switch GoalIcon(strings.ToLower(strings.TrimSpace(tag))) {
	case IconShield:
		return IconShield
	case IconHome:
		return IconHome
	default:
		return IconBriefcase
	}
}

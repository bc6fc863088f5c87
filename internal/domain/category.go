package domain

import (
	"regexp"
	"strings"
)

// Category is the topical label assigned to saved content.
type Category string

const (
	CategoryFitness       Category = "Fitness"
	CategoryCoding        Category = "Coding"
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryDesign        Category = "Design"
	CategoryBusiness      Category = "Business"
	CategoryEducation     Category = "Education"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryProductivity  Category = "Productivity"
	CategoryOther         Category = "Other"
)

// Categories returns the closed category set in canonical order.
func Categories() []Category {
	return []Category{
		CategoryFitness,
		CategoryCoding,
		CategoryFood,
		CategoryTravel,
		CategoryDesign,
		CategoryBusiness,
		CategoryEducation,
		CategoryEntertainment,
		CategoryHealth,
		CategoryProductivity,
		CategoryOther,
	}
}

var categoryPattern = regexp.MustCompile(
	`(fitness|coding|food|travel|design|business|education|entertainment|health|productivity|other)`,
)

// NormalizeCategory maps free-form text onto the closed category set.
// An exact case-insensitive match wins; otherwise the first category name
// found anywhere in the lower-cased input is used; otherwise Other.
func NormalizeCategory(raw string) Category {
	raw = strings.TrimSpace(raw)
	for _, c := range Categories() {
		if strings.EqualFold(raw, string(c)) {
			return c
		}
	}

	if m := categoryPattern.FindStringSubmatch(strings.ToLower(raw)); m != nil {
		for _, c := range Categories() {
			if strings.ToLower(string(c)) == m[1] {
				return c
			}
		}
	}
	return CategoryOther
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

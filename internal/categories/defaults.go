// Package categories holds the internal chart of categories, the default
// account-path mappings seeded at init, and the mapping CSV format.
package categories

import "github.com/crewledger/crewledger/internal/model"

// Fallback is the category assigned to rows whose account path is unmapped.
const Fallback = "Uncategorized"

// Category is one internal accounting category.
type Category struct {
	Name        string
	Revenue     bool
	Description string
}

// DefaultChart returns the chart of categories for a construction business.
func DefaultChart() []Category {
	return []Category{
		{Name: "Income", Revenue: true, Description: "Invoiced contract revenue"},
		{Name: "Materials", Description: "Lumber, concrete, drywall and other job materials"},
		{Name: "Tools & Equipment", Description: "Tools, equipment purchases and rentals"},
		{Name: "Subcontractors", Description: "Subcontracted labor"},
		{Name: "Dumpster & Waste", Description: "Dumpster rental and debris hauling"},
		{Name: "Fuel & Vehicle", Description: "Fuel, truck maintenance, mileage"},
		{Name: "Permits & Fees", Description: "Permits, inspections, licensing"},
		{Name: "Insurance", Description: "Liability, workers comp, vehicle insurance"},
		{Name: "Office & Admin", Description: "Office supplies, software, phones"},
		{Name: "Meals", Description: "Crew meals"},
		{Name: Fallback, Description: "Awaiting review"},
	}
}

// DefaultMappings returns the account-path mappings seeded by init.
func DefaultMappings() []model.CategoryMapping {
	pairs := [][2]string{
		{"Accounts Receivable", "Income"},
		{"Income", "Income"},
		{"Expenses:Materials", "Materials"},
		{"Cost of Goods Sold:Materials", "Materials"},
		{"Expenses:Tools", "Tools & Equipment"},
		{"Expenses:Equipment Rental", "Tools & Equipment"},
		{"Cost of Goods Sold:Subcontractors", "Subcontractors"},
		{"Expenses:Fuel", "Fuel & Vehicle"},
		{"Expenses:Vehicle", "Fuel & Vehicle"},
		{"Expenses:Permits", "Permits & Fees"},
		{"Expenses:Insurance", "Insurance"},
		{"Expenses:Office Supplies", "Office & Admin"},
		{"Expenses:Meals", "Meals"},
	}
	out := make([]model.CategoryMapping, len(pairs))
	for i, p := range pairs {
		out[i] = model.CategoryMapping{AccountPath: p[0], Category: p[1], Active: true}
	}
	return out
}

// DefaultKeywordRules returns the heuristic used to suggest a category for an
// unmapped account path. Earlier rules win.
func DefaultKeywordRules() []model.KeywordRule {
	return []model.KeywordRule{
		{Category: "Dumpster & Waste", Keywords: []string{"dumpster", "waste", "disposal", "haul"}},
		{Category: "Subcontractors", Keywords: []string{"subcontract", "labor", "framing", "electrical", "plumbing"}},
		{Category: "Materials", Keywords: []string{"material", "lumber", "concrete", "drywall", "supplies"}},
		{Category: "Tools & Equipment", Keywords: []string{"tool", "equipment", "rental"}},
		{Category: "Fuel & Vehicle", Keywords: []string{"fuel", "gas", "vehicle", "truck", "mileage"}},
		{Category: "Permits & Fees", Keywords: []string{"permit", "fee", "license", "inspection"}},
		{Category: "Insurance", Keywords: []string{"insurance"}},
		{Category: "Office & Admin", Keywords: []string{"office", "software", "phone", "internet"}},
		{Category: "Meals", Keywords: []string{"meal", "food"}},
		{Category: "Income", Keywords: []string{"income", "revenue", "receivable", "sales"}},
	}
}

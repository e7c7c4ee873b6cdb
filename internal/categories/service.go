package categories

import "strings"

// Service provides lookup over the chart of categories.
type Service struct {
	chart  []Category
	byName map[string]Category
}

// NewService creates a Service from a chart. Names are matched case-insensitively.
func NewService(chart []Category) *Service {
	byName := make(map[string]Category, len(chart))
	for _, c := range chart {
		byName[strings.ToLower(c.Name)] = c
	}
	return &Service{chart: chart, byName: byName}
}

// All returns all categories.
func (s *Service) All() []Category {
	return s.chart
}

// Get returns a category by name.
func (s *Service) Get(name string) (Category, bool) {
	c, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Exists reports whether a category name exists.
func (s *Service) Exists(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Canonical returns the chart spelling of name, or name unchanged when unknown.
func (s *Service) Canonical(name string) string {
	if c, ok := s.Get(name); ok {
		return c.Name
	}
	return strings.TrimSpace(name)
}

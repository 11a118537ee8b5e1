package models

// Capacity is a labelled record identified by an integer ID
type Capacity struct {
	ID    int    `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// DefaultCapacities returns the records a fresh store starts with
func DefaultCapacities() []Capacity {
	return []Capacity{
		{ID: 1, Label: "Strong"},
		{ID: 2, Label: "Speed"},
		{ID: 3, Label: "Sweet"},
		{ID: 4, Label: "Telepath"},
	}
}

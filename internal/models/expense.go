package models

import "time"

// ExpenseRecord is the payload accepted by the expense persistence API.
type ExpenseRecord struct {
	Name       string    `json:"name"`
	Amount     int64     `json:"amount"`
	CategoryID int       `json:"category_id"`
	PayerID    int       `json:"payer_id"`
	ReceiverID int       `json:"receiver_id"`
	SplitType  SplitType `json:"split_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// Category is one entry of the expense category catalog.
// Keywords, when present, let the keyword predictor pick the category for
// descriptions that contain one of them.
type Category struct {
	ID       int      `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// CategoryGroup groups related categories.
type CategoryGroup struct {
	Name       string     `yaml:"name" json:"name"`
	Categories []Category `yaml:"categories" json:"categories"`
}

// CategoriesConfig is the structure of the categories YAML file.
type CategoriesConfig struct {
	Groups []CategoryGroup `yaml:"groups"`
}

// Flatten returns every category in file order.
func (c CategoriesConfig) Flatten() []Category {
	var out []Category
	for _, g := range c.Groups {
		out = append(out, g.Categories...)
	}
	return out
}

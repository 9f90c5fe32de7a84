package predict

import (
	"context"
	"strings"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/textutils"
)

type keywordRule struct {
	keyword    string
	categoryID int
}

// KeywordPredictor matches catalog keywords against the description, case
// and accent insensitive, and delegates to Next when none matches. Rules are
// tried in catalog order, so earlier categories win.
type KeywordPredictor struct {
	rules  []keywordRule
	Next   Predictor
	logger logging.Logger
}

// NewKeywordPredictor builds the rules from the keywords of categories.
// Blank keywords are ignored.
func NewKeywordPredictor(categories []models.Category, next Predictor, logger logging.Logger) *KeywordPredictor {
	p := &KeywordPredictor{Next: next, logger: logging.OrDefault(logger)}
	for _, c := range categories {
		for _, k := range c.Keywords {
			keyword := textutils.NormalizeHeader(k)
			if keyword == "" {
				continue
			}
			p.rules = append(p.rules, keywordRule{keyword: keyword, categoryID: c.ID})
		}
	}
	return p
}

// Len returns the number of keyword rules.
func (p *KeywordPredictor) Len() int {
	return len(p.rules)
}

// PredictCategory implements Predictor.
func (p *KeywordPredictor) PredictCategory(ctx context.Context, name string, amountCents int64) (int, error) {
	description := textutils.NormalizeHeader(name)
	if description != "" {
		for _, rule := range p.rules {
			if strings.Contains(description, rule.keyword) {
				p.logger.Debug("Category matched by keyword",
					logging.Field{Key: "keyword", Value: rule.keyword},
					logging.Field{Key: logging.FieldCategory, Value: rule.categoryID})
				return rule.categoryID, nil
			}
		}
	}
	if p.Next == nil {
		return 0, ErrNoPrediction
	}
	return p.Next.PredictCategory(ctx, name, amountCents)
}

package promotion

import "github.com/shopspring/decimal"

// Evaluation pairs a candidate promotion with its calculated result.
type Evaluation struct {
	Promotion Promotion
	Result    Result
}

// Evaluate runs Calculate for every candidate, preserving input order. The
// add-to-list dialog uses it to show applicability and savings per candidate.
func Evaluate(candidates []Promotion, unitPrice, quantity decimal.Decimal, ctx Context) []Evaluation {
	out := make([]Evaluation, 0, len(candidates))
	for _, p := range candidates {
		out = append(out, Evaluation{Promotion: p, Result: Calculate(p, unitPrice, quantity, ctx)})
	}
	return out
}

// Best returns the applicable evaluation with the largest discount. Verified
// promotions win ties, then the earliest candidate. ok is false when nothing applies.
func Best(evals []Evaluation) (best Evaluation, ok bool) {
	for _, e := range evals {
		if !e.Result.IsApplicable {
			continue
		}
		if !ok {
			best, ok = e, true
			continue
		}
		switch e.Result.DiscountAmount.Cmp(best.Result.DiscountAmount) {
		case 1:
			best = e
		case 0:
			if e.Promotion.Status == Verified && best.Promotion.Status != Verified {
				best = e
			}
		}
	}
	return best, ok
}

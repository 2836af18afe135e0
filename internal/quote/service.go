// Package quote is the application layer over the pricing engine: it validates
// requests, resolves tax codes against the catalog, fetches stored promotions and
// shapes engine results for the client.
package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/pricecompare-api/internal/common"
	"github.com/noah-isme/pricecompare-api/internal/money"
	"github.com/noah-isme/pricecompare-api/internal/obs"
	"github.com/noah-isme/pricecompare-api/internal/pricing"
	"github.com/noah-isme/pricecompare-api/internal/promostore"
	"github.com/noah-isme/pricecompare-api/internal/promotion"
	"github.com/noah-isme/pricecompare-api/internal/tax"
)

// CustomTaxCode labels lines whose rate was given explicitly without a code.
const CustomTaxCode tax.Code = "custom"

// Source values reported by EvaluatePromotions.
const (
	SourceRequest = "request"
	SourceStore   = "store"
)

// PromotionSource returns the stored promotions for a product/store pair.
type PromotionSource interface {
	ForProduct(ctx context.Context, key promostore.Key) ([]promotion.Promotion, error)
}

// Service runs pricing requests.
type Service struct {
	table     *tax.Table
	promos    PromotionSource
	metrics   *obs.PricingMetrics
	formatter money.Formatter
	maxItems  int
	validate  *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// ServiceConfig groups Service dependencies. Table is required; Promotions and
// Metrics are optional.
type ServiceConfig struct {
	Table      *tax.Table
	Promotions PromotionSource
	Metrics    *obs.PricingMetrics
	Formatter  money.Formatter
	MaxItems   int
	Logger     zerolog.Logger
}

// NewService validates cfg and builds a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Table == nil {
		return nil, errors.New("quote: tax table is required")
	}
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = 500
	}
	return &Service{
		table:     cfg.Table,
		promos:    cfg.Promotions,
		metrics:   cfg.Metrics,
		formatter: cfg.Formatter,
		maxItems:  maxItems,
		validate:  newValidator(),
		logger:    cfg.Logger,
		tracer:    otel.Tracer("quote"),
	}, nil
}

// TaxRates lists the catalog in declaration order.
func (s *Service) TaxRates() TaxRatesResult {
	def := s.table.Default()
	rates := s.table.Rates()
	out := TaxRatesResult{
		DefaultCode: string(def.Code),
		Rates:       make([]TaxRateView, 0, len(rates)),
		Categories:  make(map[string]string),
	}
	for _, r := range rates {
		out.Rates = append(out.Rates, TaxRateView{
			Code:    string(r.Code),
			Percent: money.Float(r.Percent),
			Label:   r.Label,
			Default: r.Code == def.Code,
		})
	}
	for category, code := range s.table.Categories() {
		out.Categories[category] = string(code)
	}
	return out
}

// PreviewTax splits an entered price into base price and tax.
func (s *Service) PreviewTax(ctx context.Context, req TaxPreviewRequest) (TaxPreviewResult, error) {
	_, span := s.tracer.Start(ctx, "quote.PreviewTax")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return TaxPreviewResult{}, validationError(err)
	}
	code, rate, err := s.resolveRate(req.TaxCode, req.TaxRate, "taxCode")
	if err != nil {
		return TaxPreviewResult{}, err
	}
	span.SetAttributes(attribute.String("tax.code", string(code)), attribute.String("tax.rate", rate.String()))

	line := pricing.Resolve(pricing.LineItem{
		UnitPrice:        money.FromFloat(*req.UnitPrice),
		Quantity:         money.FromFloat(req.Quantity),
		TaxCode:          code,
		TaxRate:          rate,
		PriceIncludesTax: req.PriceIncludesTax,
	}, nil, promotion.Context{})

	return TaxPreviewResult{
		TaxCode:        string(code),
		TaxRate:        money.Float(rate),
		BasePrice:      amount(line.BasePrice),
		TaxAmount:      amount(line.TaxAmount),
		BasePriceTotal: amount(line.BasePriceTotal),
		Subtotal:       amount(line.Subtotal),
		Display: map[string]string{
			"basePrice":      s.formatter.Format(line.BasePrice),
			"taxAmount":      s.formatter.Format(line.TaxAmount),
			"basePriceTotal": s.formatter.Format(line.BasePriceTotal),
			"subtotal":       s.formatter.Format(line.Subtotal),
		},
	}, nil
}

// EvaluatePromotions runs every candidate promotion against the entered price and
// picks the best applicable one.
func (s *Service) EvaluatePromotions(ctx context.Context, req EvaluateRequest) (EvaluateResult, error) {
	ctx, span := s.tracer.Start(ctx, "quote.EvaluatePromotions")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return EvaluateResult{}, validationError(err)
	}

	source := SourceRequest
	var candidates []promotion.Promotion
	if req.Promotions != nil {
		candidates = make([]promotion.Promotion, 0, len(req.Promotions))
		for i, in := range req.Promotions {
			p, err := toPromotion(in, fmt.Sprintf("promotions[%d]", i))
			if err != nil {
				return EvaluateResult{}, err
			}
			candidates = append(candidates, p)
		}
	} else {
		source = SourceStore
		stored, err := s.storedPromotions(ctx, promostore.Key{ProductID: req.ProductID, StoreID: req.StoreID})
		if err != nil {
			return EvaluateResult{}, err
		}
		candidates = stored
	}
	span.SetAttributes(attribute.String("promotions.source", source), attribute.Int("promotions.count", len(candidates)))

	evals := promotion.Evaluate(candidates, money.FromFloat(*req.UnitPrice), money.FromFloat(req.Quantity), promotion.Context{
		CouponCode:          req.CouponCode,
		HasLoyaltyCard:      req.HasLoyaltyCard,
		HasCompanionProduct: req.HasCompanionProduct,
	})

	out := EvaluateResult{Source: source, Evaluations: make([]EvaluationView, 0, len(evals))}
	for _, e := range evals {
		s.metrics.ObservePromotion(string(e.Promotion.Type), e.Result.IsApplicable)
		out.Evaluations = append(out.Evaluations, s.evaluationView(e))
	}
	if best, ok := promotion.Best(evals); ok {
		view := s.evaluationView(best)
		out.Best = &view
	}
	return out, nil
}

func (s *Service) storedPromotions(ctx context.Context, key promostore.Key) ([]promotion.Promotion, error) {
	if !key.Valid() {
		return nil, common.ValidationError("invalid request", map[string]string{
			"productId": "required_without_promotions",
			"storeId":   "required_without_promotions",
		})
	}
	if s.promos == nil {
		return nil, common.NewAppError(common.CodeUnavailable, "promotion store not configured", http.StatusServiceUnavailable, promostore.ErrNotConfigured)
	}
	promos, err := s.promos.ForProduct(ctx, key)
	if err != nil {
		if errors.Is(err, promostore.ErrNotConfigured) {
			return nil, common.NewAppError(common.CodeUnavailable, "promotion store not configured", http.StatusServiceUnavailable, err)
		}
		s.logger.Error().Err(err).Str("product_id", key.ProductID).Str("store_id", key.StoreID).Msg("load promotions")
		return nil, common.NewAppError(common.CodeUnavailable, "promotions unavailable", http.StatusServiceUnavailable, err)
	}
	return promos, nil
}

// SummarizeSession resolves every line and aggregates the session.
func (s *Service) SummarizeSession(ctx context.Context, req SessionRequest) (SessionResult, error) {
	_, span := s.tracer.Start(ctx, "quote.SummarizeSession")
	defer span.End()

	if len(req.Items) > s.maxItems {
		return SessionResult{}, common.ValidationError("too many items", map[string]string{"items": "max=" + strconv.Itoa(s.maxItems)})
	}
	if err := s.validate.Struct(req); err != nil {
		return SessionResult{}, validationError(err)
	}

	items := make([]pricing.PricedItem, 0, len(req.Items))
	for i, in := range req.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		code, rate, err := s.resolveRate(in.TaxCode, in.TaxRate, prefix+".taxCode")
		if err != nil {
			return SessionResult{}, err
		}
		item := pricing.PricedItem{Item: pricing.LineItem{
			UnitPrice:        money.FromFloat(*in.UnitPrice),
			Quantity:         money.FromFloat(in.Quantity),
			TaxCode:          code,
			TaxRate:          rate,
			PriceIncludesTax: in.PriceIncludesTax,
		}}
		if in.Promotion != nil {
			p, err := toPromotion(*in.Promotion, prefix+".promotion")
			if err != nil {
				return SessionResult{}, err
			}
			item.Promotion = &p
		}
		if in.Context != nil {
			item.Context = promotion.Context{
				CouponCode:          in.Context.CouponCode,
				HasLoyaltyCard:      in.Context.HasLoyaltyCard,
				HasCompanionProduct: in.Context.HasCompanionProduct,
			}
		}
		items = append(items, item)
	}

	lines, summary := pricing.SummarizeItems(items)
	s.metrics.ObserveSession(len(lines))
	span.SetAttributes(attribute.Int("session.items", len(lines)), attribute.String("session.grand_total", summary.GrandTotal.String()))

	out := SessionResult{Lines: make([]LineView, 0, len(lines)), Summary: s.summaryView(summary)}
	for i, l := range lines {
		view := LineView{
			ID:             req.Items[i].ID,
			TaxCode:        string(l.TaxCode),
			TaxRate:        money.Float(l.TaxRate),
			Quantity:       money.Float(l.Quantity),
			BasePrice:      amount(l.BasePrice),
			TaxAmount:      amount(l.TaxAmount),
			Subtotal:       amount(l.Subtotal),
			BasePriceTotal: amount(l.BasePriceTotal),
			OriginalPrice:  amount(l.OriginalPrice),
			DiscountAmount: amount(l.DiscountAmount),
		}
		if l.Promotion != nil {
			s.metrics.ObservePromotion(string(items[i].Promotion.Type), l.Promotion.IsApplicable)
			pv := s.resultView(*l.Promotion)
			view.Promotion = &pv
		}
		out.Lines = append(out.Lines, view)
	}
	return out, nil
}

// resolveRate picks the line's rate: an explicit rate wins, otherwise the code is
// looked up in the catalog and an empty code means the default rate.
func (s *Service) resolveRate(code string, override *float64, field string) (tax.Code, decimal.Decimal, error) {
	if override != nil {
		c := tax.Code(code)
		if c == "" {
			c = CustomTaxCode
		}
		return c, money.FromFloat(*override), nil
	}
	if code == "" {
		def := s.table.Default()
		return def.Code, def.Percent, nil
	}
	rate, ok := s.table.Lookup(tax.Code(code))
	if !ok {
		return "", decimal.Zero, common.ValidationError("unknown tax code", map[string]string{field: "unknown"})
	}
	return rate.Code, rate.Percent, nil
}

func toPromotion(in PromotionInput, field string) (promotion.Promotion, error) {
	kind, err := promotion.ParseType(in.Type)
	if err != nil {
		return promotion.Promotion{}, common.ValidationError("unknown promotion type", map[string]string{field + ".type": "oneof"})
	}
	p := promotion.Promotion{
		ID:                       in.ID,
		Type:                     kind,
		Value:                    money.FromFloat(in.Value),
		RequiresCoupon:           in.RequiresCoupon,
		RequiresLoyaltyCard:      in.RequiresLoyaltyCard,
		RequiresCompanionProduct: in.RequiresCompanionProduct,
		Status:                   promotion.Status(in.Status),
		Description:              in.Description,
	}
	if p.Status == "" {
		p.Status = promotion.Unverified
	}
	if in.MinQuantity != nil {
		q := money.FromFloat(*in.MinQuantity)
		p.MinQuantity = &q
	}
	return p, nil
}

func (s *Service) evaluationView(e promotion.Evaluation) EvaluationView {
	return EvaluationView{
		PromotionID: e.Promotion.ID,
		Type:        string(e.Promotion.Type),
		Status:      string(e.Promotion.Status),
		Description: e.Promotion.Description,
		Result:      s.resultView(e.Result),
	}
}

func (s *Service) resultView(r promotion.Result) PromotionResultView {
	return PromotionResultView{
		IsApplicable:        r.IsApplicable,
		NotApplicableReason: r.NotApplicableReason,
		OriginalPrice:       amount(r.OriginalPrice),
		DiscountAmount:      amount(r.DiscountAmount),
		DiscountPercent:     r.DiscountPercent,
		FinalPrice:          amount(r.FinalPrice),
		Display:             s.formatter.Format(r.FinalPrice),
	}
}

func (s *Service) summaryView(sum pricing.Summary) SummaryView {
	breakdown := make(map[string]BucketView, len(sum.Breakdown))
	for key, b := range sum.Breakdown {
		breakdown[key] = BucketView{TaxAmount: amount(b.TaxAmount), ItemCount: b.ItemCount}
	}
	return SummaryView{
		Currency:          s.formatter.Code(),
		SubtotalBeforeTax: amount(sum.SubtotalBeforeTax),
		TotalTax:          amount(sum.TotalTax),
		GrandTotal:        amount(sum.GrandTotal),
		Breakdown:         breakdown,
		Display: map[string]string{
			"subtotalBeforeTax": s.formatter.Format(sum.SubtotalBeforeTax),
			"totalTax":          s.formatter.Format(sum.TotalTax),
			"grandTotal":        s.formatter.Format(sum.GrandTotal),
		},
	}
}

// amount rounds to cents for the wire; the engine keeps full precision internally.
func amount(d decimal.Decimal) float64 {
	return money.Float(money.Round2(d))
}

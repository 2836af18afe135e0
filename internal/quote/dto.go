package quote

// PromotionInput is a promotion supplied inline by the caller.
type PromotionInput struct {
	ID                       string   `json:"id" validate:"max=128"`
	Type                     string   `json:"type" validate:"required,oneof=percent_off fixed_off multi_buy bundle"`
	Value                    float64  `json:"value" validate:"gte=0"`
	MinQuantity              *float64 `json:"minQuantity" validate:"omitempty,gt=0"`
	RequiresCoupon           string   `json:"requiresCoupon" validate:"max=64"`
	RequiresLoyaltyCard      bool     `json:"requiresLoyaltyCard"`
	RequiresCompanionProduct bool     `json:"requiresCompanionProduct"`
	Status                   string   `json:"status" validate:"omitempty,oneof=verified unverified"`
	Description              string   `json:"description" validate:"max=500"`
}

// ContextInput is what the shopper supplied for promotion eligibility.
type ContextInput struct {
	CouponCode          string `json:"couponCode" validate:"max=64"`
	HasLoyaltyCard      bool   `json:"hasLoyaltyCard"`
	HasCompanionProduct bool   `json:"hasCompanionProduct"`
}

// TaxPreviewRequest is sent by the item-edit dialog whenever a field changes.
type TaxPreviewRequest struct {
	UnitPrice        *float64 `json:"unitPrice" validate:"required,gte=0"`
	Quantity         float64  `json:"quantity" validate:"gt=0"`
	TaxCode          string   `json:"taxCode" validate:"max=32"`
	TaxRate          *float64 `json:"taxRate" validate:"omitempty,gte=0,lte=100"`
	PriceIncludesTax bool     `json:"priceIncludesTax"`
}

// EvaluateRequest is sent by the add-to-list dialog. When Promotions is omitted the
// candidates are read from the promotion store for ProductID/StoreID.
type EvaluateRequest struct {
	ProductID           string           `json:"productId" validate:"max=128"`
	StoreID             string           `json:"storeId" validate:"max=128"`
	UnitPrice           *float64         `json:"unitPrice" validate:"required,gte=0"`
	Quantity            float64          `json:"quantity" validate:"gt=0"`
	CouponCode          string           `json:"couponCode" validate:"max=64"`
	HasLoyaltyCard      bool             `json:"hasLoyaltyCard"`
	HasCompanionProduct bool             `json:"hasCompanionProduct"`
	Promotions          []PromotionInput `json:"promotions" validate:"omitempty,max=50,dive"`
}

// SessionItemInput is one line of a shopping session.
type SessionItemInput struct {
	ID               string          `json:"id" validate:"max=128"`
	UnitPrice        *float64        `json:"unitPrice" validate:"required,gte=0"`
	Quantity         float64         `json:"quantity" validate:"gt=0"`
	TaxCode          string          `json:"taxCode" validate:"max=32"`
	TaxRate          *float64        `json:"taxRate" validate:"omitempty,gte=0,lte=100"`
	PriceIncludesTax bool            `json:"priceIncludesTax"`
	Promotion        *PromotionInput `json:"promotion"`
	Context          *ContextInput   `json:"context"`
}

// SessionRequest carries the full item list of a session.
type SessionRequest struct {
	Items []SessionItemInput `json:"items" validate:"dive"`
}

// TaxRateView is one catalog entry.
type TaxRateView struct {
	Code    string  `json:"code"`
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
	Default bool    `json:"default"`
}

// TaxRatesResult lists the catalog.
type TaxRatesResult struct {
	DefaultCode string            `json:"defaultCode"`
	Rates       []TaxRateView     `json:"rates"`
	Categories  map[string]string `json:"categories"`
}

// TaxPreviewResult is the item-edit dialog's live tax display.
type TaxPreviewResult struct {
	TaxCode        string            `json:"taxCode"`
	TaxRate        float64           `json:"taxRate"`
	BasePrice      float64           `json:"basePrice"`
	TaxAmount      float64           `json:"taxAmount"`
	BasePriceTotal float64           `json:"basePriceTotal"`
	Subtotal       float64           `json:"subtotal"`
	Display        map[string]string `json:"display"`
}

// PromotionResultView mirrors promotion.Result.
type PromotionResultView struct {
	IsApplicable        bool    `json:"isApplicable"`
	NotApplicableReason string  `json:"notApplicableReason,omitempty"`
	OriginalPrice       float64 `json:"originalPrice"`
	DiscountAmount      float64 `json:"discountAmount"`
	DiscountPercent     int64   `json:"discountPercent"`
	FinalPrice          float64 `json:"finalPrice"`
	Display             string  `json:"display"`
}

// EvaluationView pairs a candidate with its result.
type EvaluationView struct {
	PromotionID string              `json:"promotionId"`
	Type        string              `json:"type"`
	Status      string              `json:"status"`
	Description string              `json:"description,omitempty"`
	Result      PromotionResultView `json:"result"`
}

// EvaluateResult lists every candidate's evaluation and the best applicable one.
type EvaluateResult struct {
	Source      string           `json:"source"`
	Evaluations []EvaluationView `json:"evaluations"`
	Best        *EvaluationView  `json:"best"`
}

// LineView is one resolved session line.
type LineView struct {
	ID             string               `json:"id,omitempty"`
	TaxCode        string               `json:"taxCode"`
	TaxRate        float64              `json:"taxRate"`
	Quantity       float64              `json:"quantity"`
	BasePrice      float64              `json:"basePrice"`
	TaxAmount      float64              `json:"taxAmount"`
	Subtotal       float64              `json:"subtotal"`
	BasePriceTotal float64              `json:"basePriceTotal"`
	OriginalPrice  float64              `json:"originalPrice"`
	DiscountAmount float64              `json:"discountAmount"`
	Promotion      *PromotionResultView `json:"promotion,omitempty"`
}

// BucketView is one tax-rate bucket of the breakdown.
type BucketView struct {
	TaxAmount float64 `json:"taxAmount"`
	ItemCount int     `json:"itemCount"`
}

// SummaryView is the session footer.
type SummaryView struct {
	Currency          string                `json:"currency"`
	SubtotalBeforeTax float64               `json:"subtotalBeforeTax"`
	TotalTax          float64               `json:"totalTax"`
	GrandTotal        float64               `json:"grandTotal"`
	Breakdown         map[string]BucketView `json:"breakdown"`
	Display           map[string]string     `json:"display"`
}

// SessionResult is the response of the session summary endpoint.
type SessionResult struct {
	Lines   []LineView  `json:"lines"`
	Summary SummaryView `json:"summary"`
}

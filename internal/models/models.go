package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product categories
const (
	CategoryBikes       = "Bikes"
	CategoryParts       = "Parts"
	CategoryAccessories = "Accessories"
)

// Product condition
const (
	ConditionNew  = "New"
	ConditionUsed = "Used"
)

// Fuel types
const (
	FuelPetrol   = "Petrol"
	FuelElectric = "Electric"
)

// KnownBrands is the fixed brand enumeration shown in the dashboard forms.
// The catalog merges it with whatever brands exist on live products.
var KnownBrands = []string{
	"BMW",
	"Ducati",
	"Generic",
	"Harley-Davidson",
	"Honda",
	"KTM",
	"Kawasaki",
	"Suzuki",
	"Yamaha",
}

// Specs holds the optional technical sheet of a bike.
type Specs struct {
	Engine string `json:"engine"`
	Power  string `json:"power"`
	Weight string `json:"weight"`
}

// Product represents a sellable item in the catalog
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Specs       Specs           `json:"specs"`
	Condition   string          `json:"condition"`
	FuelType    string          `json:"fuelType"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Normalize fills defaults for optional fields so that downstream filtering
// never has to re-check optionality. Applied once when records cross the
// gateway boundary; older rows predate the condition/fuel columns.
func (p *Product) Normalize() {
	if p.Condition == "" {
		p.Condition = ConditionNew
	}
	if p.FuelType == "" {
		p.FuelType = FuelPetrol
	}
	if p.Specs.Engine == "" {
		p.Specs.Engine = "N/A"
	}
	if p.Specs.Power == "" {
		p.Specs.Power = "N/A"
	}
	if p.Specs.Weight == "" {
		p.Specs.Weight = "N/A"
	}
}

// CartItem is a product plus a selected quantity. Order line items are deep
// copies of cart items taken at confirmation time.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price multiplied by quantity.
func (ci CartItem) Subtotal() decimal.Decimal {
	return ci.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// orderTransitions lists the allowed status moves. Anything not listed is
// rejected; completed and cancelled are terminal.
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusCompleted, OrderStatusCancelled},
}

// ValidStatusTransition reports whether an order may move from one status to
// another.
func ValidStatusTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is an immutable record of a completed checkout
type Order struct {
	ID              string          `json:"id"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	CustomerAddress string          `json:"customerAddress"`
	Items           []CartItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Date            time.Time       `json:"date"`
	Status          string          `json:"status"`
}

// Session is the authenticated admin credential obtained from the auth
// service. Zero value means signed out.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Valid reports whether the session carries a live token.
func (s Session) Valid() bool {
	return s.AccessToken != "" && time.Now().Before(s.ExpiresAt)
}

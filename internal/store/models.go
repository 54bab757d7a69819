package store

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryWomen    Category = "women"
	CategoryMen      Category = "men"
	CategoryKids     Category = "kids"
	CategoryLaptops  Category = "laptops"
	CategorySkincare Category = "skincare"
	CategoryOther    Category = "other"
)

// ParseCategory maps free text onto a known category; anything else is CategoryOther.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryWomen, CategoryMen, CategoryKids, CategoryLaptops, CategorySkincare:
		return c
	default:
		return CategoryOther
	}
}

// ProductSource tells catalog products apart from custom entries and file uploads.
type ProductSource string

const (
	SourceCatalog ProductSource = "catalog"
	SourceCustom  ProductSource = "custom"
	SourceUpload  ProductSource = "upload"
)

const PlaceholderImage = "/images/placeholder.png"

type Product struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Price       float64       `json:"price" yaml:"price"`
	Image       string        `json:"image,omitempty" yaml:"image"`
	Description string        `json:"description,omitempty" yaml:"description"`
	Category    Category      `json:"category" yaml:"category"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags"`
	Brand       string        `json:"brand,omitempty" yaml:"brand"`
	Size        string        `json:"size,omitempty" yaml:"size"`
	Color       string        `json:"color,omitempty" yaml:"color"`
	Material    string        `json:"material,omitempty" yaml:"material"`
	Source      ProductSource `json:"source,omitempty" yaml:"-"`
	FileName    string        `json:"fileName,omitempty" yaml:"-"` // only for SourceUpload
}

// DisplayImage returns the image path, or the placeholder when none is set.
func (p Product) DisplayImage() string {
	if strings.TrimSpace(p.Image) == "" {
		return PlaceholderImage
	}
	return p.Image
}

// WithDisplayImage returns a copy of p whose Image is DisplayImage().
func (p Product) WithDisplayImage() Product {
	p.Image = p.DisplayImage()
	return p
}

type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// ParseOrderStatus accepts any casing of the four statuses.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range []OrderStatus{OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// OrderItem is a by-value copy of the product at the time the order was placed.
type OrderItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Image    string   `json:"image,omitempty"`
	Quantity int      `json:"quantity"`
	Category Category `json:"category"`
}

type Order struct {
	ID                string           `json:"id"`
	Date              time.Time        `json:"date"`
	Status            OrderStatus      `json:"status"`
	Items             []OrderItem      `json:"items"`
	Total             float64          `json:"total"`
	ShippingAddress   string           `json:"shippingAddress"`
	TrackingNumber    string           `json:"trackingNumber,omitempty"`
	IsRemoval         bool             `json:"isRemoval,omitempty"`
	IsAddition        bool             `json:"isAddition,omitempty"`
	IsCustom          bool             `json:"isCustom,omitempty"`
	IsFileUpload      bool             `json:"isFileUpload,omitempty"`
	FileName          string           `json:"fileName,omitempty"`
	Categories        []Category       `json:"categories,omitempty"`
	CategoryBreakdown map[Category]int `json:"categoryBreakdown,omitempty"`
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type Plan string

const (
	PlanMonthly   Plan = "monthly"
	PlanQuarterly Plan = "quarterly"
	PlanYearly    Plan = "yearly"
)

type Subscription struct {
	ID           string             `json:"id"`
	Status       SubscriptionStatus `json:"status"`
	Plan         Plan               `json:"plan"`
	NextDelivery string             `json:"nextDelivery"`
	Products     []Product          `json:"products"`
}

// ShippingDetails is the checkout form; it is also persisted as the last order details.
type ShippingDetails struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
	ZipCode  string `json:"zipCode"`
	Phone    string `json:"phone,omitempty"`
}

type LastOrderDetails struct {
	OrderID  string          `json:"orderId"`
	Shipping ShippingDetails `json:"shipping"`
	Total    float64         `json:"total"`
	Date     time.Time       `json:"date"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// SetReorderRuleRequest body para PUT /api/reorder/rules.
type SetReorderRuleRequest struct {
	ProductID       string          `json:"product_id"`
	WarehouseID     string          `json:"warehouse_id"`
	MinimumStock    decimal.Decimal `json:"minimum_stock"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
	MaximumStock    decimal.Decimal `json:"maximum_stock,omitempty"`
	IsActive        bool            `json:"is_active"`
}

// ReorderRuleResponse regla de reposición.
type ReorderRuleResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	WarehouseID     string          `json:"warehouse_id"`
	MinimumStock    decimal.Decimal `json:"minimum_stock"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
	MaximumStock    decimal.Decimal `json:"maximum_stock"`
	IsActive        bool            `json:"is_active"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// FromReorderRule mapea la entidad al DTO.
func FromReorderRule(r *entity.ReorderRule) ReorderRuleResponse {
	return ReorderRuleResponse{
		ID:              r.ID,
		ProductID:       r.ProductID,
		WarehouseID:     r.WarehouseID,
		MinimumStock:    r.MinimumStock,
		ReorderPoint:    r.ReorderPoint,
		ReorderQuantity: r.ReorderQuantity,
		MaximumStock:    r.MaximumStock,
		IsActive:        r.IsActive,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ConvertSuggestionRequest body para POST /api/reorder/suggestions/:id/convert.
type ConvertSuggestionRequest struct {
	PurchaseOrderRef string `json:"purchase_order_ref"`
}

// SuggestionResponse sugerencia de reposición.
type SuggestionResponse struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"product_id"`
	WarehouseID        string          `json:"warehouse_id"`
	SuggestedQuantity  decimal.Decimal `json:"suggested_quantity"`
	AvailableAtTrigger decimal.Decimal `json:"available_at_trigger"`
	DaysUntilStockout  int             `json:"days_until_stockout"`
	Status             string          `json:"status"`
	PurchaseOrderRef   string          `json:"purchase_order_ref,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	ResolvedAt         *time.Time      `json:"resolved_at,omitempty"`
}

// FromSuggestion mapea la entidad al DTO.
func FromSuggestion(s *entity.ReorderSuggestion) SuggestionResponse {
	return SuggestionResponse{
		ID:                 s.ID,
		ProductID:          s.ProductID,
		WarehouseID:        s.WarehouseID,
		SuggestedQuantity:  s.SuggestedQuantity,
		AvailableAtTrigger: s.AvailableAtTrigger,
		DaysUntilStockout:  s.DaysUntilStockout,
		Status:             string(s.Status),
		PurchaseOrderRef:   s.PurchaseOrderRef,
		CreatedAt:          s.CreatedAt,
		ResolvedAt:         s.ResolvedAt,
	}
}

// internal/service/inventory/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"depot/internal/service/inventory/application"
	"depot/internal/service/inventory/domain"
)

// InventoryHandler 封装了库存服务的 HTTP 处理器
type InventoryHandler struct {
	items        *application.ItemService
	reservations *application.ReservationService
}

// NewInventoryHandler 创建一个新的 HTTP 处理器实例
func NewInventoryHandler(items *application.ItemService, reservations *application.ReservationService) *InventoryHandler {
	return &InventoryHandler{items: items, reservations: reservations}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /items", h.handleCreateItem)
	mux.HandleFunc("GET /items", h.handleListItems)
	mux.HandleFunc("GET /items/available", h.handleListAvailableItems)
	mux.HandleFunc("GET /items/{id}", h.handleGetItem)
	mux.HandleFunc("GET /items/sku/{sku}", h.handleGetItemBySKU)
	mux.HandleFunc("POST /items/{id}/supply", h.handleAddSupply)
	mux.HandleFunc("POST /items/sku/{sku}/supply", h.handleAddSupplyBySKU)
	mux.HandleFunc("GET /items/{id}/availability", h.handleCheckAvailability)
	mux.HandleFunc("GET /items/sku/{sku}/availability", h.handleCheckAvailabilityBySKU)
	mux.HandleFunc("POST /items/cache/evict", h.handleEvictItemCache)

	mux.HandleFunc("POST /reservations", h.handleCreateReservation)
	mux.HandleFunc("GET /reservations/{id}", h.handleGetReservation)
	mux.HandleFunc("DELETE /reservations/{id}", h.handleCancelReservation)
	mux.HandleFunc("POST /reservations/{id}/confirm", h.handleConfirmReservation)
	mux.HandleFunc("GET /reservations/customer/{customerId}", h.handleListReservationsByCustomer)
	mux.HandleFunc("GET /reservations/item/{itemId}", h.handleListReservationsByItem)
}

// apiResponse 是统一的响应信封
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// itemResponse 是商品的对外表示
type itemResponse struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	SKU               string  `json:"sku"`
	Price             float64 `json:"price"`
	AvailableQuantity int     `json:"available_quantity"`
	ReservedQuantity  int     `json:"reserved_quantity"`
	Category          string  `json:"category,omitempty"`
	Brand             string  `json:"brand,omitempty"`
	IsActive          bool    `json:"is_active"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

// reservationResponse 是预约的对外表示
type reservationResponse struct {
	ID         int64  `json:"id"`
	Reference  string `json:"reference"`
	ItemID     int64  `json:"item_id"`
	CustomerID string `json:"customer_id"`
	Quantity   int    `json:"quantity"`
	Status     string `json:"status"`
	ExpiresAt  string `json:"expires_at"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toItemResponse(item *domain.Item) itemResponse {
	return itemResponse{
		ID:                item.ID,
		Name:              item.Name,
		Description:       item.Description,
		SKU:               item.SKU,
		Price:             item.Price,
		AvailableQuantity: item.AvailableQuantity,
		ReservedQuantity:  item.ReservedQuantity,
		Category:          item.Category,
		Brand:             item.Brand,
		IsActive:          item.IsActive,
		CreatedAt:         item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         item.UpdatedAt.Format(time.RFC3339),
	}
}

func toItemResponses(items []*domain.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	return out
}

func toReservationResponse(r *domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:         r.ID,
		Reference:  r.Reference,
		ItemID:     r.ItemID,
		CustomerID: r.CustomerID,
		Quantity:   r.Quantity,
		Status:     string(r.Status),
		ExpiresAt:  r.ExpiresAt.Format(time.RFC3339),
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  r.UpdatedAt.Format(time.RFC3339),
	}
}

func toReservationResponses(rs []*domain.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationResponse(r))
	}
	return out
}

func (h *InventoryHandler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	var req application.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.items.CreateItem(ctx, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "item created", Data: toItemResponse(item)})
}

func (h *InventoryHandler) handleListItems(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	var (
		items []*domain.Item
		err   error
	)
	switch {
	case r.URL.Query().Get("category") != "":
		items, err = h.items.ListItemsByCategory(ctx, r.URL.Query().Get("category"))
	case r.URL.Query().Get("brand") != "":
		items, err = h.items.ListItemsByBrand(ctx, r.URL.Query().Get("brand"))
	default:
		items, err = h.items.ListItems(ctx)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: toItemResponses(items)})
}

func (h *InventoryHandler) handleListAvailableItems(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	items, err := h.items.ListAvailableItems(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: toItemResponses(items)})
}

func (h *InventoryHandler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := h.items.GetItemByID(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: toItemResponse(item)})
}

func (h *InventoryHandler) handleGetItemBySKU(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	item, err := h.items.GetItemBySKU(ctx, r.PathValue("sku"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: toItemResponse(item)})
}

func (h *InventoryHandler) handleAddSupply(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	quantity, ok := queryQuantity(w, r)
	if !ok {
		return
	}
	item, err := h.items.AddSupply(ctx, id, quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "supply added", Data: toItemResponse(item)})
}

func (h *InventoryHandler) handleAddSupplyBySKU(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	quantity, ok := queryQuantity(w, r)
	if !ok {
		return
	}
	item, err := h.items.AddSupplyBySKU(ctx, r.PathValue("sku"), quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "supply added", Data: toItemResponse(item)})
}

func (h *InventoryHandler) handleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	quantity, ok := queryQuantity(w, r)
	if !ok {
		return
	}
	available, err := h.items.CheckAvailability(ctx, id, quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: available})
}

func (h *InventoryHandler) handleCheckAvailabilityBySKU(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	quantity, ok := queryQuantity(w, r)
	if !ok {
		return
	}
	available, err := h.items.CheckAvailabilityBySKU(ctx, r.PathValue("sku"), quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: available})
}

func (h *InventoryHandler) handleEvictItemCache(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	h.items.EvictAllItemCache(ctx)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "item cache evicted"})
}

func (h *InventoryHandler) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	var req application.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reservation, err := h.reservations.CreateReservation(ctx, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "reservation created", Data: toReservationResponse(reservation)})
}

func (h *InventoryHandler) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reservation, err := h.reservations.GetReservation(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: toReservationResponse(reservation)})
}

func (h *InventoryHandler) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.reservations.CancelReservation(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "reservation cancelled"})
}

func (h *InventoryHandler) handleConfirmReservation(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.reservations.ConfirmReservation(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "reservation confirmed"})
}

func (h *InventoryHandler) handleListReservationsByCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	reservations, err := h.reservations.ListReservationsByCustomer(ctx, r.PathValue("customerId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: toReservationResponses(reservations)})
}

func (h *InventoryHandler) handleListReservationsByItem(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}
	reservations, err := h.reservations.ListReservationsByItem(ctx, itemID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: toReservationResponses(reservations)})
}

// writeDomainError 根据领域错误类型返回对应的 HTTP 状态码
func writeDomainError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrReservationNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrCustomerRequired),
		errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrSKURequired),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrPolicyRejected):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrItemInactive),
		errors.Is(err, domain.ErrReservationNotActive),
		errors.Is(err, domain.ErrDuplicateSKU),
		errors.Is(err, domain.ErrDuplicateName):
		statusCode = http.StatusConflict // 请求有效，但与当前状态冲突
	case errors.Is(err, domain.ErrLockTimeout):
		statusCode = http.StatusServiceUnavailable // 瞬态争用，客户端可重试
	default:
		statusCode = http.StatusInternalServerError
	}
	writeError(w, statusCode, err.Error())
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func extractTraceContext(r *http.Request) context.Context {
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryQuantity(w http.ResponseWriter, r *http.Request) (int, bool) {
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "quantity query parameter is required")
		return 0, false
	}
	return quantity, true
}

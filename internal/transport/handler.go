package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"pickup-be/internal/cart"
	"pickup-be/internal/checkout"
	"pickup-be/internal/coupon"
	"pickup-be/internal/metrics"
	"pickup-be/internal/order"
	"pickup-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxRequestBytes = 64 << 10

type Handler struct {
	carts    cart.Service
	checkout checkout.Service
	coupons  coupon.Service
	orders   order.Service
	metrics  *metrics.Checkout
	loc      *time.Location
	now      func() time.Time
}

func NewHandler(
	carts cart.Service,
	co checkout.Service,
	coupons coupon.Service,
	orders order.Service,
	m *metrics.Checkout,
	loc *time.Location,
) *Handler {
	if m == nil {
		m = metrics.NewCheckout()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		carts:    carts,
		checkout: co,
		coupons:  coupons,
		orders:   orders,
		metrics:  m,
		loc:      loc,
		now:      time.Now,
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.WriteJSONError(w, "invalid request body", "INVALID_BODY", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) day(w http.ResponseWriter, s string) (time.Time, bool) {
	d, err := utils.ParseDay(s, h.now(), h.loc)
	if err != nil {
		utils.WriteJSONError(w, "date must be YYYY-MM-DD", "INVALID_DATE", http.StatusBadRequest)
		return time.Time{}, false
	}
	return d, true
}

// userID is only called behind RequireUser.
func userID(r *http.Request) uint {
	id, _ := utils.GetUserIDFromContext(r.Context())
	return id
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.metrics.Snapshot())
}

// -- Windows & checkout --

func (h *Handler) Windows(w http.ResponseWriter, r *http.Request) {
	date, ok := h.day(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}
	q, err := h.checkout.Quote(r.Context(), userID(r), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"date":        q.Date.Format(time.DateOnly),
		"load":        q.Load,
		"windows":     q.Windows,
		"earliest":    q.Earliest,
		"large_order": q.LargeOrder,
	})
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	date, ok := h.day(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}
	q, err := h.checkout.Quote(r.Context(), userID(r), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, q)
}

type evaluateRequest struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Label == "" {
		utils.WriteJSONError(w, "label is required", "INVALID_BODY", http.StatusBadRequest)
		return
	}
	date, ok := h.day(w, req.Date)
	if !ok {
		return
	}

	d, err := h.checkout.Evaluate(r.Context(), userID(r), date, req.Label)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

type beginRequest struct {
	Date   string `json:"date"`
	SlotID int64  `json:"slot_id"`
}

func (h *Handler) Begin(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SlotID <= 0 {
		utils.WriteJSONError(w, "slot_id is required", "INVALID_BODY", http.StatusBadRequest)
		return
	}
	date, ok := h.day(w, req.Date)
	if !ok {
		return
	}

	res, err := h.checkout.Begin(r.Context(), userID(r), date, req.SlotID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, res)
}

// -- Cart --

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req cart.AddItemParams
	if !decode(w, r, &req) {
		return
	}
	c, err := h.carts.AddItem(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		utils.WriteJSONError(w, "quantity is required", "INVALID_BODY", http.StatusBadRequest)
		return
	}
	c, err := h.carts.UpdateQuantity(r.Context(), userID(r), chi.URLParam(r, "lineID"), *req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(), userID(r), chi.URLParam(r, "lineID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

// -- Coupons --

type redeemRequest struct {
	Code string `json:"code"`
}

func (h *Handler) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.coupons.Redeem(r.Context(), userID(r), req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.AlreadyRedeemed {
		status = http.StatusOK
	}
	utils.WriteJSON(w, status, res)
}

func (h *Handler) ActivateCoupon(w http.ResponseWriter, r *http.Request) {
	usageID, err := uuid.Parse(chi.URLParam(r, "usageID"))
	if err != nil {
		utils.WriteJSONError(w, "invalid usage id", "INVALID_USAGE_ID", http.StatusBadRequest)
		return
	}
	if err := h.coupons.Activate(r.Context(), userID(r), usageID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeactivateCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Deactivate(r.Context(), userID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Orders --

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, chi.URLParam(r, "day"))
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(r.Context(), userID(r), day, chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

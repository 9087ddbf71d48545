package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Facugl/microservices-ecommerce/internal/payment/application"
	"github.com/Facugl/microservices-ecommerce/internal/payment/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

type createPaymentReq struct {
	Amount         decimal.Decimal         `json:"amount"`
	PaymentMethod  string                  `json:"paymentMethod"`
	OrderID        int64                   `json:"orderId"`
	OrderReference string                  `json:"orderReference"`
	Customer       domain.CustomerSnapshot `json:"customer"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/payments", h.create)
	r.Get("/api/v1/payments", h.list)
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	id, err := h.service.Record(r.Context(), domain.Payment{
		OrderID:        req.OrderID,
		OrderReference: req.OrderReference,
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		Customer:       req.Customer,
	})
	if err != nil {
		h.log.Error("payment record failed", "order_reference", req.OrderReference, "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.FindAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

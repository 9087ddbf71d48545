package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Facugl/microservices-ecommerce/internal/order/application"
	"github.com/Facugl/microservices-ecommerce/internal/order/domain"
)

type Handler struct {
	log         *slog.Logger
	coordinator *application.Coordinator
	tracer      trace.Tracer
}

func NewHandler(log *slog.Logger, coordinator *application.Coordinator) *Handler {
	return &Handler{
		log:         log,
		coordinator: coordinator,
		tracer:      otel.Tracer("order-http"),
	}
}

type createOrderReq struct {
	Reference     string                `json:"reference"`
	CustomerID    string                `json:"customerId"`
	Amount        decimal.Decimal       `json:"amount"`
	PaymentMethod string                `json:"paymentMethod"`
	Lines         []domain.PurchaseLine `json:"lines"`
}

// sagaErrorBody is the structured failure shape: which step failed, why,
// and whether compensation completed before the response was written.
type sagaErrorBody struct {
	Step        string            `json:"step,omitempty"`
	Reason      string            `json:"reason"`
	Compensated *bool             `json:"compensated,omitempty"`
	Shortages   []domain.Shortage `json:"shortages,omitempty"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/orders", h.create)
	r.Get("/api/v1/orders", h.list)
	r.Get("/api/v1/orders/{id}", h.get)
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, sagaErrorBody{Reason: "invalid body"})
		return
	}

	orderID, err := h.coordinator.CreateOrder(ctx, application.CreateOrderRequest{
		Reference:     req.Reference,
		CustomerID:    req.CustomerID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Lines:         req.Lines,
	})
	if err != nil {
		h.writeSagaError(w, req.Reference, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"orderId": orderID})
}

func (h *Handler) writeSagaError(w http.ResponseWriter, reference string, err error) {
	var insufficient *application.InsufficientStockError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusConflict, sagaErrorBody{
			Step:      string(application.StepReserveInventory),
			Reason:    "insufficient stock",
			Shortages: insufficient.Shortages,
		})
		return
	}
	if errors.Is(err, application.ErrCustomerNotFound) {
		writeJSON(w, http.StatusNotFound, sagaErrorBody{
			Step:   string(application.StepVerifyCustomer),
			Reason: err.Error(),
		})
		return
	}
	if errors.Is(err, application.ErrOrderCancelled) {
		writeJSON(w, http.StatusConflict, sagaErrorBody{Reason: err.Error()})
		return
	}

	var step *application.StepError
	if errors.As(err, &step) {
		h.log.Error("order saga failed", "reference", reference, "step", step.Step, "compensated", step.Compensated, "err", step.Err)
		writeJSON(w, http.StatusInternalServerError, sagaErrorBody{
			Step:        string(step.Step),
			Reason:      step.Err.Error(),
			Compensated: &step.Compensated,
		})
		return
	}

	writeJSON(w, http.StatusBadRequest, sagaErrorBody{Reason: err.Error()})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orders, err := h.coordinator.FindAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, sagaErrorBody{Reason: err.Error()})
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, sagaErrorBody{Reason: "invalid id"})
		return
	}
	o, err := h.coordinator.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, sagaErrorBody{Reason: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, sagaErrorBody{Reason: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, o)
}

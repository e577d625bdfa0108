package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	orderdom "github.com/yelmuratov/NewEra-Cash-Carry/internal/order/domain"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/payment/application"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/payment/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("payment-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/payments/charge", h.charge)
	r.Post("/payments/refund", h.refund)
	return r
}

type settleReq struct {
	OrderID string `json:"order_id"`
}

func (h *Handler) charge(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ProcessPayment")
	defer span.End()

	var req settleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	ref, msg, err := h.service.ProcessPayment(ctx, req.OrderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg, "charge_ref": ref})
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RefundPayment")
	defer span.End()

	var req settleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	ref, msg, err := h.service.RefundPayment(ctx, req.OrderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg, "refund_ref": ref})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var gwErr *domain.GatewayError
	switch {
	case errors.Is(err, orderdom.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyPaid), errors.Is(err, domain.ErrNotPaid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &gwErr):
		// The gateway's message is surfaced, never swallowed.
		writeError(w, http.StatusBadGateway, gwErr.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, application.ErrSettlementInFlight):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("payment request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

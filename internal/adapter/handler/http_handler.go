package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/domain"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/service"
)

// HTTPHandler exposes the ledger over a JSON API. All ledger routes sit
// behind the JWT middleware; the caller identity from the token is the buyer
// or operator identity passed to the service.
type HTTPHandler struct {
	ledger *service.LedgerService
	logger *slog.Logger
}

func NewHTTPHandler(ledger *service.LedgerService, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{ledger: ledger, logger: logger}
}

// Routes returns the full handler with auth and logging middleware applied.
func (h *HTTPHandler) Routes(jwtSecret string) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/items", h.addItem)
	api.HandleFunc("GET /api/items", h.listItems)
	api.HandleFunc("GET /api/items/{id}", h.getItem)
	api.HandleFunc("PUT /api/items/{id}/quantity", h.updateQuantity)
	api.HandleFunc("PUT /api/items/{id}/status", h.setAvailability)
	api.HandleFunc("POST /api/items/{id}/purchase", h.purchase)
	api.HandleFunc("GET /api/items/{id}/purchases/{buyer}", h.getPurchase)
	api.HandleFunc("PUT /api/items/{id}/purchases/{buyer}", h.updatePurchaseStatus)
	api.HandleFunc("GET /api/items/{id}/buyers", h.getBuyers)
	api.HandleFunc("GET /api/balance", h.balance)
	api.HandleFunc("POST /api/withdraw", h.withdraw)
	api.HandleFunc("POST /api/transfer-ownership", h.transferOwnership)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.healthCheck)
	mux.Handle("/api/", AuthMiddleware(jwtSecret)(api))

	return LoggingMiddleware(h.logger)(mux)
}

type itemResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ImageRef    string `json:"image_ref"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Quantity    int64  `json:"quantity"`
	Status      string `json:"status"`
}

func toItemResponse(item *domain.Item) itemResponse {
	return itemResponse{
		ID:          item.ID,
		Name:        item.Name,
		ImageRef:    item.ImageRef,
		Description: item.Description,
		Price:       item.Price,
		Quantity:    item.Quantity,
		Status:      string(item.Status),
	}
}

func (h *HTTPHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		ImageRef    string `json:"image_ref"`
		Quantity    int64  `json:"quantity"`
		Price       int64  `json:"price"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.ledger.AddItem(r.Context(), Caller(r.Context()), req.Name, req.ImageRef, req.Quantity, req.Price, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *HTTPHandler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.ledger.ListItems(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.ledger.GetItem(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *HTTPHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledger.UpdateQuantity(r.Context(), Caller(r.Context()), id, req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) setAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledger.SetAvailability(r.Context(), Caller(r.Context()), id, domain.ItemStatus(req.Status)); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) purchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity      int64 `json:"quantity"`
		PaymentAmount int64 `json:"payment_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	total, err := h.ledger.Purchase(r.Context(), Caller(r.Context()), id, req.Quantity, req.PaymentAmount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total_charged": total})
}

func (h *HTTPHandler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	buyer := r.PathValue("buyer")

	quantity, status, err := h.ledger.GetPurchase(r.Context(), buyer, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quantity": quantity,
		"status":   string(status),
	})
}

func (h *HTTPHandler) updatePurchaseStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	buyer := r.PathValue("buyer")
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledger.UpdatePurchaseStatus(r.Context(), Caller(r.Context()), id, buyer, domain.OrderStatus(req.Status)); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) getBuyers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	buyers, err := h.ledger.GetBuyers(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if buyers == nil {
		buyers = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"buyers": buyers})
}

func (h *HTTPHandler) balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledger.Balance(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (h *HTTPHandler) withdraw(w http.ResponseWriter, r *http.Request) {
	amount, err := h.ledger.Withdraw(r.Context(), Caller(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

func (h *HTTPHandler) transferOwnership(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewOperator string `json:"new_operator"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledger.TransferOwnership(r.Context(), Caller(r.Context()), req.NewOperator); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotOperator):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrItemNotFound), errors.Is(err, service.ErrPurchaseNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrItemUnavailable), errors.Is(err, service.ErrNoBalance):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInsufficientPayment):
		status = http.StatusPaymentRequired
	case errors.Is(err, service.ErrTransferFailed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("internal error", "error", err)
		jsonError(w, status, "internal error")
		return
	}
	jsonError(w, status, err.Error())
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/service/auth"
	ordersvc "github.com/vladislavdragonenkov/ecom/internal/service/order"
)

const idempotencyKeyHeader = "Idempotency-Key"

// maxOrderBodyBytes ограничивает размер тела запроса оформления заказа.
const maxOrderBodyBytes = 1 << 20

type placeOrderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

type placeOrderRequest struct {
	// UserID опционален: по умолчанию берётся из токена.
	// Указать чужого пользователя может только администратор.
	UserID int64                   `json:"userId,omitempty"`
	Items  []placeOrderItemRequest `json:"items"`
}

// handlePlaceOrder оформляет заказ. Заголовок Idempotency-Key делает запрос
// повторяемым: повтор с тем же ключом и телом возвращает сохранённый ответ,
// повтор с тем же ключом и другим телом отклоняется.
func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxOrderBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	idemKey := r.Header.Get(idempotencyKeyHeader)
	tracking := idemKey != "" && s.idempotency != nil
	if tracking {
		if replayed := s.beginIdempotent(w, idemKey, body); replayed {
			return
		}
	}

	status, payload := s.placeOrder(r.Context(), claims, body)

	if tracking {
		stored, marshalErr := json.Marshal(payload)
		if marshalErr == nil {
			if status < http.StatusBadRequest {
				if err := s.idempotency.MarkDone(idemKey, stored, status); err != nil {
					s.logger.WithError(err).WithField("key", idemKey).Warn("failed to mark idempotency key done")
				}
			} else {
				if err := s.idempotency.MarkFailed(idemKey, stored, status); err != nil {
					s.logger.WithError(err).WithField("key", idemKey).Warn("failed to mark idempotency key failed")
				}
			}
		}
	}

	writeJSON(w, status, payload)
}

// beginIdempotent регистрирует ключ идемпотентности. Возвращает true, если
// ответ уже отправлен (replay сохранённого ответа или конфликт ключа).
func (s *Server) beginIdempotent(w http.ResponseWriter, key string, body []byte) bool {
	sum := sha256.Sum256(body)
	hash := hex.EncodeToString(sum[:])

	_, err := s.idempotency.CreateProcessing(key, hash, time.Now().UTC().Add(s.idempotencyTTL))
	if err == nil {
		return false
	}

	if errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		writeError(w, http.StatusUnprocessableEntity, "Idempotency key reused with different request")
		return true
	}
	if errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		record, getErr := s.idempotency.Get(key)
		if getErr != nil {
			respondError(w, getErr)
			return true
		}
		if record.Status == domain.IdempotencyStatusProcessing {
			writeError(w, http.StatusConflict, "Request with this idempotency key is still being processed")
			return true
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Idempotent-Replay", "true")
		w.WriteHeader(record.HTTPStatus)
		_, _ = w.Write(record.ResponseBody)
		return true
	}

	respondError(w, err)
	return true
}

func (s *Server) placeOrder(ctx context.Context, claims *auth.Claims, body []byte) (int, any) {
	var req placeOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorPayloadMessage(http.StatusBadRequest, "Malformed request body")
	}

	userID := req.UserID
	if userID == 0 {
		userID = claims.UserID
	}
	if userID != claims.UserID && claims.Role != string(domain.RoleAdmin) {
		return errorPayloadMessage(http.StatusForbidden, "Cannot place an order for another user")
	}

	items := make([]ordersvc.PlaceOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ordersvc.PlaceOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	placed, err := s.orders.PlaceOrder(ctx, ordersvc.PlaceOrderRequest{UserID: userID, Items: items})
	if err != nil {
		return errorPayload(err)
	}
	return http.StatusCreated, toOrderView(placed)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	order, err := s.orders.GetOrder(id)
	if err != nil {
		respondError(w, err)
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	if claims == nil || (order.UserID != claims.UserID && claims.Role != string(domain.RoleAdmin)) {
		writeError(w, http.StatusForbidden, "Order belongs to another user")
		return
	}

	writeJSON(w, http.StatusOK, toOrderView(order))
}

func (s *Server) handleListOrders(w http.ResponseWriter, _ *http.Request) {
	orders, err := s.orders.ListOrders()
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderViews(orders))
}

func (s *Server) handleListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	if claims == nil || (userID != claims.UserID && claims.Role != string(domain.RoleAdmin)) {
		writeError(w, http.StatusForbidden, "Orders belong to another user")
		return
	}

	orders, err := s.orders.ListOrdersByUser(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderViews(orders))
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	claims, _ := ClaimsFromContext(r.Context())
	if claims != nil && claims.Role != string(domain.RoleAdmin) {
		order, err := s.orders.GetOrder(id)
		if err != nil {
			respondError(w, err)
			return
		}
		if order.UserID != claims.UserID {
			writeError(w, http.StatusForbidden, "Order belongs to another user")
			return
		}
	}

	if err := s.orders.CancelOrder(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeliverOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	if err := s.orders.MarkDelivered(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOrderTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	if _, err := s.orders.GetOrder(id); err != nil {
		respondError(w, err)
		return
	}

	events, err := s.orders.Timeline(id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineViews(events))
}

package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/TemirB/storefront-api/internal/application/order"
	"github.com/TemirB/storefront-api/internal/domain"
)

type orderItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type placeOrderRequest struct {
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	CustomerEmail string             `json:"customerEmail" validate:"required,email"`
	CustomerName  string             `json:"customerName" validate:"omitempty,max=100"`
	CustomerPhone string             `json:"customerPhone" validate:"omitempty,max=20"`
}

type callbackRequest struct {
	Data      string `json:"data" validate:"required"`
	Signature string `json:"signature"`
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	pr := order.PlaceRequest{
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Items:         make([]domain.OrderLine, 0, len(req.Items)),
	}
	if id, ok := userID(r); ok {
		pr.UserID = &id
	}
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid product id")
			return
		}
		pr.Items = append(pr.Items, domain.OrderLine{ProductID: pid, Quantity: it.Quantity})
	}

	v, err := s.svc.Orders.Place(r.Context(), pr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	orders, err := s.svc.Orders.List(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(s, w, r, http.StatusOK, orders)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// a malformed id cannot name an order
		s.writeError(w, r, fmt.Errorf("order: %w", domain.ErrNotFound))
		return
	}
	v, err := s.svc.Orders.Get(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// paymentCallback accepts the gateway's form post as well as a JSON body.
func (s *Server) paymentCallback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeMessage(w, http.StatusBadRequest, "bad form")
			return
		}
		req.Data = r.PostForm.Get("data")
		req.Signature = r.PostForm.Get("signature")
		if err := s.validate.Struct(req); err != nil {
			writeMessage(w, http.StatusBadRequest, validationMessage(err))
			return
		}
	} else if !s.decodeJSON(w, r, &req) {
		return
	}

	res, err := s.svc.Payments.HandleCallback(r.Context(), req.Data, req.Signature)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

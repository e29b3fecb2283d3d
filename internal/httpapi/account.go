package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/TemirB/storefront-api/internal/application/auth"
	"github.com/TemirB/storefront-api/internal/application/contact"
	"github.com/TemirB/storefront-api/internal/domain"
)

const refreshCookie = "refreshToken"

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"required,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type updateProfileRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=50"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Address *string `json:"address" validate:"omitempty,max=100"`
}

type wishlistRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,e164"`
	Message string `json:"message" validate:"required,min=10,max=2000"`
	Hidden  string `json:"hidden"`
}

type tokenResponse struct {
	AccessToken string        `json:"accessToken"`
	User        *auth.Profile `json:"user,omitempty"`
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    value,
		Path:     "/",
		Domain:   s.cookie.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	p, t, err := s.svc.Auth.Register(r.Context(), req.Email, req.Password, &name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setRefreshCookie(w, t.Refresh, t.RefreshExpiresAt)
	writeJSON(w, http.StatusCreated, tokenResponse{AccessToken: t.Access, User: &p})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	p, t, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setRefreshCookie(w, t.Refresh, t.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: t.Access, User: &p})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(refreshCookie)
	if err != nil || c.Value == "" {
		writeMessage(w, http.StatusUnauthorized, "refresh token missing")
		return
	}
	t, err := s.svc.Auth.Refresh(r.Context(), c.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setRefreshCookie(w, t.Refresh, t.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: t.Access})
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	s.setRefreshCookie(w, "", time.Unix(0, 0))
	writeJSON(w, http.StatusOK, true)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	p, err := s.svc.Auth.Profile(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	uid, _ := userID(r)
	p, err := s.svc.Auth.UpdateProfile(r.Context(), uid, domain.ProfileUpdate{
		Name:    blankToNil(req.Name),
		Phone:   blankToNil(req.Phone),
		Address: blankToNil(req.Address),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func (s *Server) listWishlist(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	ps, err := s.svc.Wishlist.List(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(s, w, r, http.StatusOK, ps)
}

func (s *Server) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid product id")
		return
	}
	uid, _ := userID(r)
	p, err := s.svc.Wishlist.Add(r.Context(), uid, pid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	uid, _ := userID(r)
	pid, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := s.svc.Wishlist.Remove(r.Context(), uid, pid); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Contact.Submit(r.Context(), contact.Request{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
		Hidden:  req.Hidden,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/example/pos-register/internal/api/middleware"
	"github.com/example/pos-register/internal/checkout"
	"github.com/example/pos-register/internal/domain/cart"
	"github.com/example/pos-register/internal/domain/plan"
	"github.com/example/pos-register/internal/domain/staff"
	"github.com/example/pos-register/internal/session"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	checkout *checkout.Service
	profiles *session.Provider
	plans    *plan.Service
	staff    *staff.Service
}

func NewHandlers(checkoutSvc *checkout.Service, profiles *session.Provider, plans *plan.Service, staffSvc *staff.Service) *Handlers {
	return &Handlers{
		checkout: checkoutSvc,
		profiles: profiles,
		plans:    plans,
		staff:    staffSvc,
	}
}

// Cart Handlers

type addItemRequest struct {
	Product   cart.Product   `json:"product"`
	Modifiers cart.Modifiers `json:"modifiers"`
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.checkout.Cart())
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	view, err := h.checkout.AddItem(req.Product, req.Modifiers)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.checkout.RemoveItem(chi.URLParam(r, "productID")))
}

func (h *Handlers) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.checkout.IncreaseQuantity(chi.URLParam(r, "productID")))
}

func (h *Handlers) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.checkout.DecreaseQuantity(chi.URLParam(r, "productID")))
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.checkout.ClearCart())
}

// Order Handlers

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// Checkout answers 201 when the order reached the backend and 202 when it was
// queued for later sync. An empty cart is 204.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	receipt, err := h.checkout.Checkout(r.Context(), checkout.Request{PaymentMethod: req.PaymentMethod})
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	if receipt == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	status := http.StatusCreated
	if receipt.Queued {
		status = http.StatusAccepted
	}
	respondJSON(w, status, receipt)
}

func (h *Handlers) GetPendingOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.checkout.Pending())
}

func (h *Handlers) RetryOrder(w http.ResponseWriter, r *http.Request) {
	localID := chi.URLParam(r, "localID")

	receipt, err := h.checkout.Retry(r.Context(), localID)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	if receipt == nil {
		respondError(w, "order not queued", http.StatusNotFound)
		return
	}

	status := http.StatusCreated
	if receipt.Queued {
		status = http.StatusAccepted
	}
	respondJSON(w, status, receipt)
}

func (h *Handlers) SyncOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.checkout.SyncPendingOrders(r.Context())
	if err != nil {
		log.Printf("[API] Sync failed: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error":  err.Error(),
			"result": result,
		})
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func respondCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoUser):
		respondError(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, session.ErrIdentityUnresolved):
		respondError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.Printf("[API] Checkout failed: %v", err)
		respondError(w, "checkout failed", http.StatusInternalServerError)
	}
}

// Session Handlers

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Profile(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNoUser) {
			respondError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		log.Printf("[API] Failed to resolve profile: %v", err)
		respondError(w, "profile unavailable", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if userID := middleware.GetUserID(r.Context()); userID != "" {
		h.profiles.Forget(userID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Admin Handlers

func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.organization(w, r)
	if !ok {
		return
	}

	status, err := h.plans.Status(r.Context(), orgID)
	if err != nil {
		log.Printf("[API] Failed to load plan for %s: %v", orgID, err)
		respondError(w, "failed to load plan", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

type featureCheckResponse struct {
	Feature string `json:"feature"`
	Known   bool   `json:"known"`
	Allowed bool   `json:"allowed"`
}

// CheckFeature reports whether the organization's plan permits a feature.
// Unknown features are allowed.
func (h *Handlers) CheckFeature(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "feature")
	feature, err := plan.ParseFeature(raw)
	if err != nil {
		respondJSON(w, http.StatusOK, featureCheckResponse{Feature: raw, Known: false, Allowed: true})
		return
	}

	orgID, ok := h.organization(w, r)
	if !ok {
		return
	}

	status, err := h.plans.Status(r.Context(), orgID)
	if err != nil {
		log.Printf("[API] Failed to load plan for %s: %v", orgID, err)
		respondError(w, "failed to load plan", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, featureCheckResponse{Feature: raw, Known: true, Allowed: status.Check(feature)})
}

func (h *Handlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.organization(w, r)
	if !ok {
		return
	}

	sub, err := h.plans.Subscription(r.Context(), orgID)
	if err != nil {
		log.Printf("[API] Failed to load subscription for %s: %v", orgID, err)
		respondError(w, "failed to load subscription", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

func (h *Handlers) ListStaff(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.organization(w, r)
	if !ok {
		return
	}

	members, err := h.staff.List(r.Context(), orgID)
	if err != nil {
		log.Printf("[API] Failed to list staff for %s: %v", orgID, err)
		respondError(w, "failed to list staff", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// organization resolves the caller's organization, writing the error response
// itself when it cannot.
func (h *Handlers) organization(w http.ResponseWriter, r *http.Request) (string, bool) {
	profile, err := h.profiles.Profile(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNoUser) {
			respondError(w, "unauthorized", http.StatusUnauthorized)
			return "", false
		}
		respondError(w, "profile unavailable", http.StatusServiceUnavailable)
		return "", false
	}
	if profile.OrganizationID == "" {
		respondError(w, "no organization assigned", http.StatusUnprocessableEntity)
		return "", false
	}
	return profile.OrganizationID, true
}

// Health

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"online":  h.checkout.IsOnline(),
		"pending": h.checkout.PendingCount(),
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Package api exposes the storefront HTTP endpoints: the product
// passthrough, rating aggregation, contact intake, and the chat proxy.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tania063/katalog-challenge/internal/catalog"
	"github.com/tania063/katalog-challenge/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

const contactListLimit = 100

// ProductFetcher abstracts the upstream catalog gateway for the API layer.
type ProductFetcher interface {
	Fetch(ctx context.Context) ([]catalog.Product, error)
}

// ChatReplier abstracts the Gemini gateway for the API layer.
type ChatReplier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Deps holds the injected collaborators for the handler set. Every
// handler receives its persistence and gateway handles through here;
// nothing is reached through package-level state.
type Deps struct {
	Store   *storage.Store
	Catalog ProductFetcher
	Chat    ChatReplier
}

// NewHandler returns the storefront HTTP handler.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Get("/products", handleProducts(deps))
	r.Get("/ratings", handleGetRatings(deps))
	r.Post("/ratings", handlePostRating(deps))
	r.Post("/contact", handlePostContact(deps))
	r.Get("/contact-messages", handleListContactMessages(deps))
	r.Post("/chat", handleChat(deps))
	r.Get("/about", handleAbout(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleProducts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := deps.Catalog.Fetch(r.Context())
		if err != nil {
			slog.Error("product catalog fetch failed", "error", err)
			httpError(w, http.StatusInternalServerError, "failed to fetch product catalog")
			return
		}
		writeJSON(w, products)
	}
}

func handleGetRatings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := deps.Store.RatingSummaryView()
		if err != nil {
			slog.Error("rating aggregation failed", "error", err)
			httpError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		writeJSON(w, summary)
	}
}

func handlePostRating(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Value *float64 `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
			httpError(w, http.StatusBadRequest, "Invalid rating value")
			return
		}

		v := *req.Value
		if v != math.Trunc(v) || v < 1 || v > 5 {
			httpError(w, http.StatusBadRequest, "Invalid rating value")
			return
		}

		rating := storage.Rating{
			ID:        uuid.New().String(),
			Value:     int(v),
			CreatedAt: time.Now().UTC(),
		}
		if err := deps.Store.SaveRating(rating); err != nil {
			slog.Error("saving rating failed", "error", err)
			httpError(w, http.StatusInternalServerError, "Failed to submit rating")
			return
		}

		writeJSON(w, map[string]bool{"success": true})
	}
}

func handlePostContact(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Name    string `json:"name"`
			Email   string `json:"email"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		// Deliberately no field validation: empty or malformed values are
		// stored exactly as submitted.
		msg := storage.ContactMessage{
			ID:        uuid.New().String(),
			Name:      req.Name,
			Email:     req.Email,
			Message:   req.Message,
			CreatedAt: time.Now().UTC(),
		}
		if err := deps.Store.SaveContactMessage(msg); err != nil {
			slog.Error("saving contact message failed", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{
				"message": "Internal server error",
				"error":   "failed to store contact message",
			})
			return
		}

		writeJSON(w, map[string]any{
			"message": "Success",
			"data": map[string]string{
				"id":        msg.ID,
				"createdAt": msg.CreatedAt.Format(time.RFC3339),
			},
		})
	}
}

func handleListContactMessages(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := deps.Store.ListContactMessages(contactListLimit)
		if err != nil {
			slog.Error("listing contact messages failed", "error", err)
			httpError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if msgs == nil {
			msgs = []storage.ContactMessage{}
		}
		writeJSON(w, msgs)
	}
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		reply, err := deps.Chat.Reply(r.Context(), req.Message)
		if err != nil {
			// Upstream and decode failures collapse into one uniform
			// answer for the visitor; the distinction lives in the log.
			slog.Error("chat reply failed", "error", err)
			httpError(w, http.StatusInternalServerError, "failed to get an answer from Gemini")
			return
		}

		writeJSON(w, map[string]string{"reply": reply})
	}
}

func handleAbout(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := deps.Store.ListAboutEntries()
		if err != nil {
			slog.Error("listing about entries failed", "error", err)
			httpError(w, http.StatusInternalServerError, "Failed to fetch data")
			return
		}
		if entries == nil {
			entries = []storage.AboutEntry{}
		}
		writeJSON(w, entries)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": fmt.Sprintf(format, args...),
	})
}

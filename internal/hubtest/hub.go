// Package hubtest provides an in-memory stand-in for the trade hub API. It
// serves the same REST contract the production hub does, including search,
// offset pagination, and the conditional stock decrement on imports, so
// package tests can exercise real request/response cycles without a network.
package hubtest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradehubhq/tradehub-go/internal/catalog"
	"github.com/tradehubhq/tradehub-go/internal/ledger"
	"github.com/tradehubhq/tradehub-go/internal/session"
)

const defaultLimit = 12

// Hub is the in-memory fake. All handlers work under one mutex, which makes
// the import decrement check-and-set atomic the same way the production hub's
// transaction does.
type Hub struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	imports  map[string]ledger.Record
	exports  map[string]ledger.Record
	users    map[string]session.RoleBinding
	order    []string // product insertion order, for stable listings

	requireToken string
	router       chi.Router
	now          func() time.Time
}

// Option configures the fake hub.
type Option func(*Hub)

// WithRequiredToken makes every route demand the given bearer token,
// answering 401 otherwise.
func WithRequiredToken(token string) Option {
	return func(h *Hub) { h.requireToken = token }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// New builds an empty fake hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		products: make(map[string]catalog.Product),
		imports:  make(map[string]ledger.Record),
		exports:  make(map[string]ledger.Record),
		users:    make(map[string]session.RoleBinding),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(h.authenticate)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/imports", func(r chi.Router) {
		r.Get("/", h.listRecords(h.imports))
		r.Post("/", h.createImport)
		r.Delete("/{id}", h.deleteRecord(h.imports))
	})
	r.Route("/exports", func(r chi.Router) {
		r.Get("/", h.listRecords(h.exports))
		r.Post("/", h.createExport)
		r.Delete("/{id}", h.deleteRecord(h.exports))
	})
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.upsertUser)
		r.Get("/{id}", h.getUser)
	})

	h.router = r
	return h
}

// Handler exposes the hub as an http.Handler for httptest.NewServer.
func (h *Hub) Handler() http.Handler { return h.router }

// SeedProduct inserts a product directly into the store, assigning an id and
// timestamps when missing, and returns the stored copy.
func (h *Hub) SeedProduct(p catalog.Product) catalog.Product {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = h.now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
	h.products[p.ID] = p
	h.order = append(h.order, p.ID)
	return p
}

// SeedRole inserts a role binding directly into the store.
func (h *Hub) SeedRole(binding session.RoleBinding) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.users[binding.UserID] = binding
}

// ProductQuantity reads the current stock of a product, for assertions.
func (h *Hub) ProductQuantity(id string) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.products[id]
	return p.AvailableQuantity, ok
}

func (h *Hub) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.requireToken != "" {
			if r.Header.Get("Authorization") != "Bearer "+h.requireToken {
				respondError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Hub) listProducts(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	matched := make([]catalog.Product, 0, len(h.order))
	for _, id := range h.order {
		p, ok := h.products[id]
		if !ok {
			continue
		}
		if search == "" ||
			strings.Contains(strings.ToLower(p.Name), search) ||
			strings.Contains(strings.ToLower(p.OriginCountry), search) {
			matched = append(matched, p)
		}
	}

	sortProducts(matched, r.URL.Query().Get("sort"))

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items": matched[start:end],
		"total": total,
	})
}

func (h *Hub) createProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "malformed product payload")
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = h.now().UTC()
	p.UpdatedAt = p.CreatedAt
	h.products[p.ID] = p
	h.order = append(h.order, p.ID)

	respondJSON(w, http.StatusCreated, p)
}

func (h *Hub) getProduct(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.products[chi.URLParam(r, "id")]
	if !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Hub) updateProduct(w http.ResponseWriter, r *http.Request) {
	var incoming catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		respondError(w, http.StatusBadRequest, "malformed product payload")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := chi.URLParam(r, "id")
	existing, ok := h.products[id]
	if !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}

	existing.Name = incoming.Name
	existing.Image = incoming.Image
	existing.Price = incoming.Price
	existing.OriginCountry = incoming.OriginCountry
	existing.Rating = incoming.Rating
	existing.AvailableQuantity = incoming.AvailableQuantity
	existing.Description = incoming.Description
	existing.UpdatedAt = h.now().UTC()
	h.products[id] = existing

	respondJSON(w, http.StatusOK, existing)
}

func (h *Hub) deleteProduct(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := chi.URLParam(r, "id")
	if _, ok := h.products[id]; !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	delete(h.products, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Hub) createImport(w http.ResponseWriter, r *http.Request) {
	var input ledger.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "malformed transaction payload")
		return
	}
	if err := validateTransaction(input); err != "" {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	product, ok := h.products[input.ProductID]
	if !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	// Conditional decrement under the store lock: the stock check and the
	// write are one step, so concurrent imports cannot oversell.
	if input.Quantity > product.AvailableQuantity {
		respondError(w, http.StatusUnprocessableEntity, "insufficient stock")
		return
	}
	product.AvailableQuantity -= input.Quantity
	product.UpdatedAt = h.now().UTC()
	h.products[product.ID] = product

	record := h.newRecord(input, product)
	h.imports[record.ID] = record
	respondJSON(w, http.StatusCreated, record)
}

func (h *Hub) createExport(w http.ResponseWriter, r *http.Request) {
	var input ledger.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "malformed transaction payload")
		return
	}
	if err := validateTransaction(input); err != "" {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	product, ok := h.products[input.ProductID]
	if !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	product.AvailableQuantity += input.Quantity
	product.UpdatedAt = h.now().UTC()
	h.products[product.ID] = product

	record := h.newRecord(input, product)
	h.exports[record.ID] = record
	respondJSON(w, http.StatusCreated, record)
}

func (h *Hub) newRecord(input ledger.TransactionInput, product catalog.Product) ledger.Record {
	return ledger.Record{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Snapshot: ledger.ProductSnapshot{
			Name:          product.Name,
			Image:         product.Image,
			Price:         product.Price,
			OriginCountry: product.OriginCountry,
			Rating:        product.Rating,
		},
		CreatedAt: h.now().UTC(),
	}
}

func (h *Hub) listRecords(store map[string]ledger.Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()

		userID := r.URL.Query().Get("userId")
		records := make([]ledger.Record, 0, len(store))
		for _, record := range store {
			if userID != "" && record.UserID != userID {
				continue
			}
			records = append(records, record)
		}
		sort.Slice(records, func(i, j int) bool {
			if records[i].CreatedAt.Equal(records[j].CreatedAt) {
				return records[i].ID < records[j].ID
			}
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		})
		respondJSON(w, http.StatusOK, records)
	}
}

func (h *Hub) deleteRecord(store map[string]ledger.Record) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()

		id := chi.URLParam(r, "id")
		if _, ok := store[id]; !ok {
			respondError(w, http.StatusNotFound, "record not found")
			return
		}
		// Deleting a record is bookkeeping only; stock is not restored.
		delete(store, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Hub) upsertUser(w http.ResponseWriter, r *http.Request) {
	var binding session.RoleBinding
	if err := json.NewDecoder(r.Body).Decode(&binding); err != nil {
		respondError(w, http.StatusBadRequest, "malformed user payload")
		return
	}
	if binding.UserID == "" {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if !binding.Role.IsValid() {
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.users[binding.UserID] = binding
	respondJSON(w, http.StatusCreated, binding)
}

func (h *Hub) getUser(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	binding, ok := h.users[chi.URLParam(r, "id")]
	if !ok {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, binding)
}

func validateTransaction(input ledger.TransactionInput) string {
	if strings.TrimSpace(input.UserID) == "" {
		return "userId is required"
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return "productId is required"
	}
	if input.Quantity < 1 {
		return "quantity must be at least one"
	}
	return ""
}

func sortProducts(items []catalog.Product, key string) {
	desc := strings.HasPrefix(key, "-")
	field := strings.TrimPrefix(key, "-")

	var less func(a, b catalog.Product) bool
	switch field {
	case "name":
		less = func(a, b catalog.Product) bool { return a.Name < b.Name }
	case "price":
		less = func(a, b catalog.Product) bool { return a.Price.LessThan(b.Price) }
	case "rating":
		less = func(a, b catalog.Product) bool { return a.Rating < b.Rating }
	default:
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

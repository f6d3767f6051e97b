package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/tradehubhq/tradehub-go/internal/session"
	"github.com/tradehubhq/tradehub-go/internal/transport"
	"github.com/tradehubhq/tradehub-go/pkg/enums"
	pkgerrors "github.com/tradehubhq/tradehub-go/pkg/errors"
	"github.com/tradehubhq/tradehub-go/pkg/pagination"
)

// Repository exposes the product catalog operations. It owns no state: every
// call is a fresh query against the hub, which stays the source of truth for
// search matching and totals.
type Repository struct {
	client   *transport.Client
	validate *validator.Validate
}

// NewRepository wires a catalog repository over the hub client.
func NewRepository(client *transport.Client) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("hub client required")
	}
	return &Repository{
		client:   client,
		validate: validator.New(),
	}, nil
}

// ListParams are the catalog browse inputs. Search matches case-insensitive
// substrings of product name or origin country; empty search matches all.
type ListParams struct {
	Page   int
	Limit  int
	Search string
	Sort   string
}

// ListResult is one catalog page plus the totals needed for pagination.
type ListResult struct {
	Items      []Product `json:"items"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

// CreateProductInput holds the payload to create a listing. ExporterUserID
// is stamped from the acting user, never taken from the caller.
type CreateProductInput struct {
	Name              string          `json:"name" validate:"required"`
	Image             string          `json:"image" validate:"required,url"`
	Price             decimal.Decimal `json:"price"`
	OriginCountry     string          `json:"originCountry" validate:"required"`
	Rating            float64         `json:"rating" validate:"gte=0,lte=5"`
	AvailableQuantity int             `json:"availableQuantity" validate:"gte=0"`
	Description       string          `json:"description,omitempty"`
	ExporterUserID    string          `json:"exporterUserId,omitempty"`
}

// UpdateProductInput fully replaces the mutable fields of a listing.
type UpdateProductInput struct {
	Name              string          `json:"name" validate:"required"`
	Image             string          `json:"image" validate:"required,url"`
	Price             decimal.Decimal `json:"price"`
	OriginCountry     string          `json:"originCountry" validate:"required"`
	Rating            float64         `json:"rating" validate:"gte=0,lte=5"`
	AvailableQuantity int             `json:"availableQuantity" validate:"gte=0"`
	Description       string          `json:"description,omitempty"`
}

// List fetches one catalog page. The hub may answer with an {items, total}
// envelope or a bare array; both are normalized.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	norm := pagination.Normalize(pagination.Params{Page: params.Page, Limit: params.Limit})

	query := url.Values{}
	query.Set("page", strconv.Itoa(norm.Page))
	query.Set("limit", strconv.Itoa(norm.Limit))
	if search := strings.TrimSpace(params.Search); search != "" {
		query.Set("search", search)
	}
	if sort := strings.TrimSpace(params.Sort); sort != "" {
		query.Set("sort", sort)
	}

	var raw json.RawMessage
	if err := r.client.Do(ctx, http.MethodGet, "/products", query, nil, &raw); err != nil {
		return nil, err
	}

	items, total, err := normalizeListPayload(raw)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       norm.Page,
		Limit:      norm.Limit,
		TotalPages: pagination.TotalPages(total, norm.Limit),
	}, nil
}

// GetByID fetches a single product; a missing id surfaces as NOT_FOUND.
func (r *Repository) GetByID(ctx context.Context, id string) (*Product, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var product Product
	if err := r.client.Do(ctx, http.MethodGet, "/products/"+url.PathEscape(trimmed), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Create publishes a new listing owned by the acting exporter.
func (r *Repository) Create(ctx context.Context, actor *session.Actor, input CreateProductInput) (*Product, error) {
	if err := r.requireExporter(actor); err != nil {
		return nil, err
	}
	if input.ExporterUserID != "" && input.ExporterUserID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeRoleNotPermitted, "cannot create a listing for another exporter")
	}
	input.ExporterUserID = actor.ID

	if err := r.validateInput(input); err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	var product Product
	if err := r.client.Do(ctx, http.MethodPost, "/products", nil, input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update replaces the mutable fields of a listing. Ownership is enforced
// authoritatively by the hub; the client only gates on role.
func (r *Repository) Update(ctx context.Context, actor *session.Actor, id string, input UpdateProductInput) (*Product, error) {
	if err := r.requireExporter(actor); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := r.validateInput(input); err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	var product Product
	if err := r.client.Do(ctx, http.MethodPut, "/products/"+url.PathEscape(trimmed), nil, input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete removes a listing. There is no soft delete: a subsequent GetByID
// fails with NOT_FOUND.
func (r *Repository) Delete(ctx context.Context, actor *session.Actor, id string) error {
	if err := r.requireExporter(actor); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return r.client.Do(ctx, http.MethodDelete, "/products/"+url.PathEscape(trimmed), nil, nil, nil)
}

func (r *Repository) requireExporter(actor *session.Actor) error {
	if actor == nil || actor.ID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no user signed in")
	}
	if actor.Role != "" && actor.Role != enums.RoleExporter {
		return pkgerrors.New(pkgerrors.CodeRoleNotPermitted, "only exporters may manage listings")
	}
	return nil
}

func (r *Repository) validateInput(input any) error {
	err := r.validate.Struct(input)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product payload")
	}

	var combined error
	for _, field := range invalid {
		combined = multierr.Append(combined, fmt.Errorf("field %s failed %q", field.Field(), field.Tag()))
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, combined, "invalid product payload")
}

// normalizeListPayload accepts either the {items, total} envelope or a bare
// product array, returning items plus the authoritative total.
func normalizeListPayload(raw json.RawMessage) ([]Product, int, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []Product{}, 0, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []Product
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeRequestFailed, err, "decode product list")
		}
		return items, len(items), nil
	}

	var envelope struct {
		Items []Product `json:"items"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeRequestFailed, err, "decode product list")
	}
	if envelope.Items == nil {
		envelope.Items = []Product{}
	}
	if envelope.Total < len(envelope.Items) {
		envelope.Total = len(envelope.Items)
	}
	return envelope.Items, envelope.Total, nil
}

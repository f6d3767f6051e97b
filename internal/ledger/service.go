package ledger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tradehubhq/tradehub-go/internal/transport"
	"github.com/tradehubhq/tradehub-go/pkg/enums"
	pkgerrors "github.com/tradehubhq/tradehub-go/pkg/errors"
)

// Service records and queries import/export transactions. On a successful
// import the hub has already decremented the product's available quantity;
// on an export it has incremented it. Deleting a record removes only the
// record, never the stock effect.
type Service interface {
	CreateImport(ctx context.Context, input TransactionInput) (*Record, error)
	CreateExport(ctx context.Context, input TransactionInput) (*Record, error)
	ListImportsByUser(ctx context.Context, userID string) ([]Record, error)
	ListExportsByUser(ctx context.Context, userID string) ([]Record, error)
	DeleteImport(ctx context.Context, id string) error
	DeleteExport(ctx context.Context, id string) error
}

// TransactionInput is the request payload for both transaction kinds.
type TransactionInput struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type service struct {
	client *transport.Client
}

// NewService wires a trade ledger over the hub client.
func NewService(client *transport.Client) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("hub client required")
	}
	return &service{client: client}, nil
}

func (s *service) CreateImport(ctx context.Context, input TransactionInput) (*Record, error) {
	return s.create(ctx, enums.TransactionKindImport, input)
}

func (s *service) CreateExport(ctx context.Context, input TransactionInput) (*Record, error) {
	return s.create(ctx, enums.TransactionKindExport, input)
}

func (s *service) create(ctx context.Context, kind enums.TransactionKind, input TransactionInput) (*Record, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, fmt.Sprintf("quantity %d is below one", input.Quantity))
	}

	var record Record
	if err := s.client.Do(ctx, http.MethodPost, collectionPath(kind), nil, input, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *service) ListImportsByUser(ctx context.Context, userID string) ([]Record, error) {
	return s.listByUser(ctx, enums.TransactionKindImport, userID)
}

func (s *service) ListExportsByUser(ctx context.Context, userID string) ([]Record, error) {
	return s.listByUser(ctx, enums.TransactionKindExport, userID)
}

func (s *service) listByUser(ctx context.Context, kind enums.TransactionKind, userID string) ([]Record, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}

	query := url.Values{}
	query.Set("userId", trimmed)

	var records []Record
	if err := s.client.Do(ctx, http.MethodGet, collectionPath(kind), query, nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (s *service) DeleteImport(ctx context.Context, id string) error {
	return s.delete(ctx, enums.TransactionKindImport, id)
}

func (s *service) DeleteExport(ctx context.Context, id string) error {
	return s.delete(ctx, enums.TransactionKindExport, id)
}

func (s *service) delete(ctx context.Context, kind enums.TransactionKind, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	return s.client.Do(ctx, http.MethodDelete, collectionPath(kind)+"/"+url.PathEscape(trimmed), nil, nil, nil)
}

func collectionPath(kind enums.TransactionKind) string {
	if kind == enums.TransactionKindExport {
		return "/exports"
	}
	return "/imports"
}

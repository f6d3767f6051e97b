package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/tradehubhq/tradehub-go/internal/transport"
	pkgerrors "github.com/tradehubhq/tradehub-go/pkg/errors"
)

func newTestService(t *testing.T, rt roundTripFunc) (Service, *int) {
	t.Helper()
	calls := 0
	counting := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return rt(req)
	})
	client, err := transport.NewClient("http://hub.test", transport.WithHTTPClient(&http.Client{Transport: counting}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	svc, err := NewService(client)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, &calls
}

func TestCreateImportPostsPayload(t *testing.T) {
	var capturedPath string
	var capturedBody map[string]any
	svc, _ := newTestService(t, func(req *http.Request) (*http.Response, error) {
		capturedPath = req.URL.Path
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &capturedBody); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		body := `{"_id":"imp1","userId":"uid-1","productId":"p1","quantity":30,"productSnapshot":{"name":"Organic Mango Pulp","price":12.5,"originCountry":"India","rating":4.8}}`
		return jsonResponse(http.StatusCreated, body), nil
	})

	record, err := svc.CreateImport(context.Background(), TransactionInput{UserID: "uid-1", ProductID: "p1", Quantity: 30})
	if err != nil {
		t.Fatalf("create import: %v", err)
	}

	if capturedPath != "/imports" {
		t.Fatalf("unexpected path %q", capturedPath)
	}
	if capturedBody["userId"] != "uid-1" || capturedBody["productId"] != "p1" || capturedBody["quantity"] != float64(30) {
		t.Fatalf("unexpected payload %+v", capturedBody)
	}
	if record.ID != "imp1" {
		t.Fatalf("legacy _id not honored: %+v", record)
	}
	if record.Quantity != 30 {
		t.Fatalf("unexpected quantity %d", record.Quantity)
	}
	if record.Snapshot.Name != "Organic Mango Pulp" || record.Snapshot.Rating != 4.8 {
		t.Fatalf("snapshot not decoded: %+v", record.Snapshot)
	}
}

func TestCreateExportPostsToExports(t *testing.T) {
	var capturedPath string
	svc, _ := newTestService(t, func(req *http.Request) (*http.Response, error) {
		capturedPath = req.URL.Path
		return jsonResponse(http.StatusCreated, `{"id":"exp1","userId":"uid-1","productId":"p2","quantity":50}`), nil
	})

	record, err := svc.CreateExport(context.Background(), TransactionInput{UserID: "uid-1", ProductID: "p2", Quantity: 50})
	if err != nil {
		t.Fatalf("create export: %v", err)
	}
	if capturedPath != "/exports" {
		t.Fatalf("unexpected path %q", capturedPath)
	}
	if record.ID != "exp1" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestCreateValidationShortCircuits(t *testing.T) {
	svc, calls := newTestService(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	if _, err := svc.CreateImport(context.Background(), TransactionInput{ProductID: "p1", Quantity: 1}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("missing user: expected unauthorized, got %v", err)
	}
	if _, err := svc.CreateImport(context.Background(), TransactionInput{UserID: "uid-1", Quantity: 1}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("missing product: expected validation, got %v", err)
	}
	if _, err := svc.CreateImport(context.Background(), TransactionInput{UserID: "uid-1", ProductID: "p1", Quantity: 0}); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("zero quantity: expected invalid quantity, got %v", err)
	}
	if _, err := svc.CreateExport(context.Background(), TransactionInput{UserID: "uid-1", ProductID: "p1", Quantity: -3}); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("negative quantity: expected invalid quantity, got %v", err)
	}
	if *calls != 0 {
		t.Fatalf("expected zero transport calls, got %d", *calls)
	}
}

func TestListByUserSendsQueryAndNormalizesNil(t *testing.T) {
	var capturedQuery string
	svc, _ := newTestService(t, func(req *http.Request) (*http.Response, error) {
		capturedQuery = req.URL.RawQuery
		return jsonResponse(http.StatusOK, `null`), nil
	})

	records, err := svc.ListImportsByUser(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("list imports: %v", err)
	}
	if capturedQuery != "userId=uid-1" {
		t.Fatalf("unexpected query %q", capturedQuery)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("nil payload should normalize to empty slice, got %#v", records)
	}
}

func TestListByUserRequiresUser(t *testing.T) {
	svc, calls := newTestService(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := svc.ListExportsByUser(context.Background(), "  "); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if *calls != 0 {
		t.Fatalf("expected zero transport calls, got %d", *calls)
	}
}

func TestDeleteTargetsRecord(t *testing.T) {
	var capturedMethod, capturedPath string
	svc, _ := newTestService(t, func(req *http.Request) (*http.Response, error) {
		capturedMethod = req.Method
		capturedPath = req.URL.Path
		return jsonResponse(http.StatusNoContent, ""), nil
	})

	if err := svc.DeleteImport(context.Background(), "imp1"); err != nil {
		t.Fatalf("delete import: %v", err)
	}
	if capturedMethod != http.MethodDelete || capturedPath != "/imports/imp1" {
		t.Fatalf("unexpected request %s %s", capturedMethod, capturedPath)
	}

	if err := svc.DeleteExport(context.Background(), "exp1"); err != nil {
		t.Fatalf("delete export: %v", err)
	}
	if capturedPath != "/exports/exp1" {
		t.Fatalf("unexpected path %q", capturedPath)
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

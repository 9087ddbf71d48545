package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Facugl/microservices-ecommerce/internal/product/application"
	"github.com/Facugl/microservices-ecommerce/internal/product/domain"
	"github.com/Facugl/microservices-ecommerce/pkg/logging"
)

type stubRepo struct {
	reserveErr error
	shortages  []domain.Shortage
	released   []string
}

func (s *stubRepo) Create(context.Context, domain.Product) (int64, error) { return 1, nil }

func (s *stubRepo) FindByID(context.Context, int64) (domain.Product, error) {
	return domain.Product{}, application.ErrProductNotFound
}

func (s *stubRepo) FindAll(context.Context) ([]domain.Product, error) { return nil, nil }
func (s *stubRepo) Delete(context.Context, int64) error               { return nil }

func (s *stubRepo) Reserve(_ context.Context, reservationID, reference string, items []domain.PurchaseItem) (domain.Reservation, []domain.Shortage, error) {
	if s.reserveErr != nil {
		return domain.Reservation{}, nil, s.reserveErr
	}
	if len(s.shortages) > 0 {
		return domain.Reservation{}, s.shortages, nil
	}
	res := domain.Reservation{ID: reservationID, Reference: reference, Status: domain.ReservationReserved}
	for _, it := range items {
		res.Products = append(res.Products, domain.PurchasedProduct{
			ProductID: it.ProductID,
			Name:      "widget",
			Price:     decimal.NewFromInt(10),
			Quantity:  it.Quantity,
		})
	}
	return res, nil, nil
}

func (s *stubRepo) FindReservationByReference(context.Context, string) (domain.Reservation, bool, error) {
	return domain.Reservation{}, false, nil
}

func (s *stubRepo) Release(_ context.Context, reservationID string) error {
	s.released = append(s.released, reservationID)
	return nil
}

func newTestHandler(repo *stubRepo) http.Handler {
	return NewHandler(logging.New("product-http-test"), application.NewService(repo)).Routes()
}

func postPurchase(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/purchase", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const purchaseBody = `{"reference": "ord-1", "items": [{"productId": 1, "quantity": 3}]}`

func TestPurchase_ReturnsReservation(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	rec := postPurchase(t, h, purchaseBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.ID)
	require.Len(t, res.Products, 1)
	assert.Equal(t, 3, res.Products[0].Quantity)
}

func TestPurchase_ShortageConflicts(t *testing.T) {
	h := newTestHandler(&stubRepo{shortages: []domain.Shortage{{ProductID: 1, Requested: 3, Available: 1}}})

	rec := postPurchase(t, h, purchaseBody)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Shortages []domain.Shortage `json:"shortages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Shortages, 1)
	assert.Equal(t, 1, body.Shortages[0].Available)
}

func TestPurchase_InvalidRequestIsBadRequest(t *testing.T) {
	h := newTestHandler(&stubRepo{})

	rec := postPurchase(t, h, `{"reference": "", "items": [{"productId": 1, "quantity": 3}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchase_RepositoryFailureIsServerError(t *testing.T) {
	h := newTestHandler(&stubRepo{reserveErr: errors.New("connection reset by peer")})

	rec := postPurchase(t, h, purchaseBody)
	require.Equal(t, http.StatusInternalServerError, rec.Code,
		"a transient store failure must not read as a rejection to the caller")
}

func TestRelease_NoContent(t *testing.T) {
	repo := &stubRepo{}
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/reservations/res-1/release", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"res-1"}, repo.released)
}

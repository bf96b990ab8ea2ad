package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/dto"
	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

type balanceServiceStub struct {
	nativeFn    func(ctx context.Context, accountID string) (decimal.Decimal, error)
	valuationFn func(ctx context.Context) (*usecase.Valuation, error)
}

func (s *balanceServiceStub) NativeBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return s.nativeFn(ctx, accountID)
}

func (s *balanceServiceStub) Valuation(ctx context.Context) (*usecase.Valuation, error) {
	return s.valuationFn(ctx)
}

func testChart(t *testing.T) *domain.Chart {
	t.Helper()
	chart, err := domain.NewChart("USD", []domain.Account{
		{ID: "cash-ARS", Currency: "ARS"},
		{ID: "cash-USD", Currency: "USD"},
		{ID: "exchA-BTC", Currency: "BTC"},
	}, []string{"food", "rent"})
	if err != nil {
		t.Fatalf("NewChart: %v", err)
	}
	return chart
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAccountHandler_List(t *testing.T) {
	handler := NewAccountHandler(testChart(t), &balanceServiceStub{})

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/accounts", nil))

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Accounts) != 3 || resp.Accounts[2].Currency != "BTC" || resp.BaseCurrency != "USD" {
		t.Fatalf("unexpected accounts %+v", resp)
	}
}

func TestAccountHandler_Categories(t *testing.T) {
	handler := NewAccountHandler(testChart(t), &balanceServiceStub{})

	rec := httptest.NewRecorder()
	handler.Categories(rec, httptest.NewRequest(http.MethodGet, "/categories", nil))

	var resp dto.ListCategoriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 2 || resp.Categories[0] != "food" {
		t.Fatalf("unexpected categories %+v", resp)
	}
}

func TestAccountHandler_Balance(t *testing.T) {
	var asked string
	handler := NewAccountHandler(testChart(t), &balanceServiceStub{
		nativeFn: func(ctx context.Context, accountID string) (decimal.Decimal, error) {
			asked = accountID
			return decimal.RequireFromString("-0.12"), nil
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/cash-ARS/balance", nil), "id", "cash-ARS")
	rec := httptest.NewRecorder()
	handler.Balance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if asked != "cash-ARS" || resp.Balance != "-0.12" || resp.Currency != "ARS" {
		t.Fatalf("unexpected balance %+v", resp)
	}
}

func TestAccountHandler_Balance_UnknownAccount(t *testing.T) {
	handler := NewAccountHandler(testChart(t), &balanceServiceStub{
		nativeFn: func(context.Context, string) (decimal.Decimal, error) {
			t.Fatalf("service must not be called")
			return decimal.Zero, nil
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/nope/balance", nil), "id", "nope")
	rec := httptest.NewRecorder()
	handler.Balance(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccountHandler_Valuation(t *testing.T) {
	handler := NewAccountHandler(testChart(t), &balanceServiceStub{
		valuationFn: func(context.Context) (*usecase.Valuation, error) {
			return &usecase.Valuation{
				ValuedAt:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				BaseCurrency: "USD",
				Accounts: []usecase.AccountValuation{{
					Account: domain.Account{ID: "cash-ARS", Currency: "ARS"},
					Native:  decimal.NewFromInt(1000),
					Rate:    decimal.RequireFromString("0.001"),
					Base:    decimal.NewFromInt(1),
				}},
				Total: decimal.NewFromInt(1),
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Valuation(rec, httptest.NewRequest(http.MethodGet, "/balances", nil))

	var resp dto.ValuationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != "1" || resp.Accounts[0].Rate != "0.001" {
		t.Fatalf("unexpected valuation %+v", resp)
	}
}

func TestAccountHandler_Valuation_MissingRate(t *testing.T) {
	handler := NewAccountHandler(testChart(t), &balanceServiceStub{
		valuationFn: func(context.Context) (*usecase.Valuation, error) {
			return nil, domain.NewRateNotFound("BTC")
		},
	})

	rec := httptest.NewRecorder()
	handler.Valuation(rec, httptest.NewRequest(http.MethodGet, "/balances", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Currency != "BTC" {
		t.Fatalf("expected missing currency in response, got %+v", resp)
	}
}

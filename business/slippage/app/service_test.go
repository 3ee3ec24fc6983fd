package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/DeganAI/slippage-sentinel/business/slippage/domain"
	"github.com/DeganAI/slippage-sentinel/internal/apperror"
	"github.com/DeganAI/slippage-sentinel/internal/logger"
)

func TestSlippageService_Estimate(t *testing.T) {
	svc, err := NewSlippageService(logger.Nop())
	if err != nil {
		t.Fatalf("NewSlippageService: %v", err)
	}

	est, err := svc.Estimate(context.Background(), domain.Request{
		TokenIn:   "WETH",
		TokenOut:  "USDC",
		AmountUSD: decimal.NewFromInt(1000),
		ChainID:   1,
	})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	if !est.RecommendedSlippage.Equal(decimal.RequireFromString("0.81")) {
		t.Errorf("recommended = %s", est.RecommendedSlippage)
	}
	if !est.SuccessProbability.Equal(decimal.RequireFromString("0.95")) {
		t.Errorf("success = %s", est.SuccessProbability)
	}
}

func TestSlippageService_AcceptsUnlistedChain(t *testing.T) {
	svc, _ := NewSlippageService(logger.Nop())

	_, err := svc.Estimate(context.Background(), domain.Request{
		TokenIn:   "DAI",
		TokenOut:  "USDT",
		AmountUSD: decimal.NewFromInt(50_000),
		ChainID:   324,
	})
	if err != nil {
		t.Errorf("chains outside the catalogue should still be estimated: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := domain.Request{TokenIn: "WETH", TokenOut: "USDC", AmountUSD: decimal.NewFromInt(1), ChainID: 1}

	tests := []struct {
		name     string
		mutate   func(*domain.Request)
		wantCode apperror.Code
	}{
		{name: "valid", mutate: func(*domain.Request) {}},
		{name: "empty_token_in", mutate: func(r *domain.Request) { r.TokenIn = "" }, wantCode: apperror.CodeInvalidToken},
		{name: "blank_token_out", mutate: func(r *domain.Request) { r.TokenOut = "   " }, wantCode: apperror.CodeInvalidToken},
		{name: "zero_amount", mutate: func(r *domain.Request) { r.AmountUSD = decimal.Zero }, wantCode: apperror.CodeInvalidAmount},
		{name: "negative_amount", mutate: func(r *domain.Request) { r.AmountUSD = decimal.NewFromInt(-5) }, wantCode: apperror.CodeInvalidAmount},
		{name: "zero_chain", mutate: func(r *domain.Request) { r.ChainID = 0 }, wantCode: apperror.CodeInvalidChainID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := Validate(req)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if apperror.GetCode(err) != tt.wantCode {
				t.Fatalf("code = %s, want %s", apperror.GetCode(err), tt.wantCode)
			}
			if apperror.StatusCode(err) != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", apperror.StatusCode(err))
			}
		})
	}
}

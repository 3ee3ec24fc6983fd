package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/DeganAI/slippage-sentinel/business/slippage/domain"
	"github.com/DeganAI/slippage-sentinel/internal/apperror"
	"github.com/DeganAI/slippage-sentinel/internal/health"
)

// estimateRequest is the wire form of a slippage request. amount_usd accepts a
// JSON number or a numeric string.
type estimateRequest struct {
	TokenIn   string           `json:"token_in"`
	TokenOut  string           `json:"token_out"`
	AmountUSD *decimal.Decimal `json:"amount_usd"`
	ChainID   *int64           `json:"chain_id"`
}

// estimateResponse carries exactly the four public fields.
type estimateResponse struct {
	RecommendedSlippage float64  `json:"recommended_slippage"`
	PoolDepthUSD        float64  `json:"pool_depth_usd"`
	SuccessProbability  float64  `json:"success_probability"`
	AlternativeRoutes   []string `json:"alternative_routes"`
}

func newEstimateResponse(est domain.Estimate) estimateResponse {
	return estimateResponse{
		RecommendedSlippage: est.RecommendedSlippage.InexactFloat64(),
		PoolDepthUSD:        est.PoolDepthUSD.InexactFloat64(),
		SuccessProbability:  est.SuccessProbability.InexactFloat64(),
		AlternativeRoutes:   est.AlternativeRoutes,
	}
}

// readBody reads at most limit bytes. Whitespace-only bodies count as empty.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.Validation(apperror.CodeInvalidRequestBody,
				fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
		}
		return nil, apperror.Validation(apperror.CodeInvalidRequestBody, err.Error())
	}
	return bytes.TrimSpace(body), nil
}

// decodeEstimateRequest accepts the bare object or an {"input": {...}} envelope.
func decodeEstimateRequest(body []byte) (domain.Request, error) {
	if len(body) == 0 {
		return domain.Request{}, apperror.Validation(apperror.CodeInvalidRequestBody, "empty body")
	}

	var envelope struct {
		Input json.RawMessage `json:"input"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Input) > 0 && envelope.Input[0] == '{' {
		body = envelope.Input
	}

	var in estimateRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return domain.Request{}, apperror.New(apperror.CodeInvalidRequestBody,
			apperror.WithContext(err.Error()),
			apperror.WithCause(err))
	}

	switch {
	case in.TokenIn == "":
		return domain.Request{}, apperror.Validation(apperror.CodeRequiredField, "token_in")
	case in.TokenOut == "":
		return domain.Request{}, apperror.Validation(apperror.CodeRequiredField, "token_out")
	case in.AmountUSD == nil:
		return domain.Request{}, apperror.Validation(apperror.CodeRequiredField, "amount_usd")
	case in.ChainID == nil:
		return domain.Request{}, apperror.Validation(apperror.CodeRequiredField, "chain_id")
	}

	return domain.Request{
		TokenIn:   in.TokenIn,
		TokenOut:  in.TokenOut,
		AmountUSD: *in.AmountUSD,
		ChainID:   *in.ChainID,
	}, nil
}

type chainDTO struct {
	ChainID int64  `json:"chain_id"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type chainsResponse struct {
	Chains []chainDTO `json:"chains"`
	Total  int        `json:"total"`
}

type healthResponse struct {
	Status          string                  `json:"status"`
	SupportedChains int                     `json:"supported_chains"`
	ChainIDs        []int64                 `json:"chain_ids"`
	FreeMode        bool                    `json:"free_mode"`
	Version         string                  `json:"version"`
	Checks          map[string]health.Check `json:"checks,omitempty"`
}

package agent

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	paymentDomain "github.com/DeganAI/slippage-sentinel/business/payment/domain"
	slippageApp "github.com/DeganAI/slippage-sentinel/business/slippage/app"
	"github.com/DeganAI/slippage-sentinel/internal/apperror"
	"github.com/DeganAI/slippage-sentinel/internal/health"
)

const (
	defaultMaxBody = 64 << 10

	verificationFailed = "Payment verification failed"
)

func (s *Server) emit(r *http.Request, e Event) {
	e.Time = time.Now()
	e.RequestID = RequestIDFromContext(r.Context())
	e.Path = r.URL.Path
	s.observer.Observe(e)
}

// resourceURL is the public URL of the requested path, as advertised in 402 responses.
func (s *Server) resourceURL(path string) string {
	return s.cfg.Server.PublicURL() + path
}

func (s *Server) challenge(w http.ResponseWriter, path, description, errText, message string) {
	req := s.gate.Requirements(s.resourceURL(path), description)
	writeJSON(w, http.StatusPaymentRequired, paymentDomain.NewChallenge(req, errText, message))
}

// handleChallenge answers discovery requests with the entrypoint's payment terms.
func (s *Server) handleChallenge(description string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.challenge(w, entrypointPath, description, "", "")
	}
}

// handleEstimate serves an estimate. When paid is set the request must carry a
// verified X-PAYMENT header unless the gate is in free mode. A body-less
// request to the entrypoint gets the payment terms instead of a 400.
func (s *Server) handleEstimate(paid, entrypoint bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit := s.cfg.Server.MaxBodyBytes
		if limit <= 0 {
			limit = defaultMaxBody
		}
		body, err := readBody(w, r, limit)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		if entrypoint && len(body) == 0 {
			s.challenge(w, r.URL.Path, entrypointDescription, "", "")
			return
		}

		req, err := decodeEstimateRequest(body)
		if err == nil {
			err = slippageApp.Validate(req)
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}

		// A payment is only consumed for a request that can be answered.
		if paid && !s.gate.FreeMode() {
			if !s.verifyPayment(w, r) {
				return
			}
		}

		est, err := s.estimator.Estimate(ctx, req)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, newEstimateResponse(est))
		s.emit(r, Event{Kind: EventEstimate, Status: http.StatusOK, Request: req, Estimate: est})
	}
}

// verifyPayment writes a 402 and returns false unless the request is paid for.
func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request) bool {
	req := s.gate.Requirements(s.resourceURL(r.URL.Path), paymentDescription)

	receipt, err := s.gate.Verify(r.Context(), r.Header.Get(paymentDomain.HeaderPayment), req)
	if err != nil {
		var appErr *apperror.AppError
		errText, message := verificationFailed, err.Error()
		if errors.As(err, &appErr) {
			message = appErr.Message
			if appErr.Code == apperror.CodePaymentRequired {
				errText, message = "", ""
			}
		}

		writeJSON(w, http.StatusPaymentRequired, paymentDomain.NewChallenge(req, errText, message))
		s.emit(r, Event{Kind: EventPaymentRejected, Status: http.StatusPaymentRequired, Err: err})
		return false
	}

	w.Header().Set(paymentDomain.HeaderPaymentResponse, receipt.Encode())
	s.emit(r, Event{Kind: EventPaymentVerified, Status: http.StatusOK, Facilitator: receipt.Facilitator, Payer: receipt.Payer})
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, err)
	s.emit(r, Event{Kind: EventError, Status: apperror.StatusCode(err), Err: err})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	s.writeError(w, r, apperror.TooManyRequests(r.URL.Path))
	s.emit(r, Event{Kind: EventRateLimited, Status: http.StatusTooManyRequests})
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	page, err := s.renderLanding()
	if err != nil {
		s.writeError(w, r, apperror.Internal(apperror.CodeInternalError, "render landing page", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(page)
	}
}

func (s *Server) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.agentCard())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.health.Run(r.Context())

	resp := healthResponse{
		Status:          status.Status,
		SupportedChains: len(s.chains.IDs()),
		ChainIDs:        s.chains.IDs(),
		FreeMode:        s.gate.FreeMode(),
		Version:         s.cfg.App.Version,
	}
	if len(status.Checks) > 0 {
		resp.Checks = status.Checks
	}
	if resp.Status == "" {
		resp.Status = health.StatusHealthy
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChains(w http.ResponseWriter, _ *http.Request) {
	list := s.chains.List()
	out := chainsResponse{Chains: make([]chainDTO, 0, len(list)), Total: len(list)}
	for _, c := range list {
		out.Chains = append(out.Chains, chainDTO{ChainID: c.ID, Name: c.Name, Symbol: c.Symbol})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, apperror.Validation(apperror.CodeInvalidChainID, raw))
		return
	}

	c, err := s.chains.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chainDTO{ChainID: c.ID, Name: c.Name, Symbol: c.Symbol})
}

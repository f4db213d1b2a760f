package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmcardoso/fundpool-backend/internal/domain"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/dashboard"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/ledger"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/registry"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/summary"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// dateLayout is the wire format for day-granular dates
const dateLayout = "2006-01-02"

// defaultSummaryOperations is how many recent operations a summary carries
// when the caller does not say otherwise
const defaultSummaryOperations = 10

// Server exposes the ledger usecases over HTTP.
// Decimals travel as strings on the wire to keep full precision.
type Server struct {
	RegistryService  *registry.Service
	LedgerService    *ledger.Service
	SummaryService   *summary.Service
	DashboardService *dashboard.Service
}

// NewServer creates a new HTTP server instance
func NewServer(
	registryService *registry.Service,
	ledgerService *ledger.Service,
	summaryService *summary.Service,
	dashboardService *dashboard.Service,
) *Server {
	return &Server{
		RegistryService:  registryService,
		LedgerService:    ledgerService,
		SummaryService:   summaryService,
		DashboardService: dashboardService,
	}
}

// Routes builds the router: a public health probe plus the token-guarded,
// rate-limited API.
func (s *Server) Routes(apiToken string, limiter *rate.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RateLimitMiddleware(limiter))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(apiToken))

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", s.handleListClients)
			r.Post("/", s.handleCreateClient)
			r.Get("/{id}", s.handleGetClient)
			r.Get("/{id}/summary", s.handleClientSummary)
			r.Patch("/{id}/investment", s.handleUpdateInvestment)
			r.Delete("/{id}", s.handleDisableClient)
		})

		r.Route("/operations", func(r chi.Router) {
			r.Get("/", s.handleListOperations)
			r.Post("/", s.handleUpsertOperation)
			r.Delete("/{id}", s.handleDeleteOperation)
		})

		r.Get("/dashboard", s.handleDashboard)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Clients ---

type createClientRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	InitialInvestment string `json:"initialInvestment"`
	StartDate         string `json:"startDate,omitempty"`
}

type clientResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	InitialInvestment string `json:"initialInvestment"`
	StartDate         string `json:"startDate"`
	CurrentBalance    string `json:"currentBalance"`
	Active            bool   `json:"active"`
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	clients, err := s.RegistryService.List(r.Context(), activeOnly)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	out := make([]clientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, toClientResponse(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	investment, err := decimal.NewFromString(req.InitialInvestment)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid initialInvestment format")
		return
	}

	input := registry.CreateClientInput{
		Name:              req.Name,
		Email:             req.Email,
		InitialInvestment: investment,
	}
	if req.StartDate != "" {
		startDate, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid startDate format, expected YYYY-MM-DD")
			return
		}
		input.StartDate = &startDate
	}

	client, err := s.RegistryService.Create(r.Context(), input)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	slog.Info("client created", "clientID", client.ID, "startDate", client.StartDate.Format(dateLayout))
	respondJSON(w, http.StatusCreated, toClientResponse(client))
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	client, err := s.RegistryService.Get(r.Context(), id)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toClientResponse(client))
}

type summaryResponse struct {
	Client clientResponse `json:"client"`
	Totals struct {
		Profit        string `json:"profit"`
		Profitability string `json:"profitability"`
	} `json:"totals"`
	RecentOperations []recentOperationResponse `json:"recentOperations"`
}

type recentOperationResponse struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	ResultPct   string `json:"resultPct"`
	Impact      string `json:"impact"`
}

func (s *Server) handleClientSummary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	lastN := defaultSummaryOperations
	if lastStr := r.URL.Query().Get("last"); lastStr != "" {
		lastN, err = strconv.Atoi(lastStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid last parameter")
			return
		}
	}

	result, err := s.SummaryService.Summarize(r.Context(), id, lastN)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	resp := summaryResponse{
		Client:           toClientResponse(result.Client),
		RecentOperations: make([]recentOperationResponse, 0, len(result.RecentImpacts)),
	}
	resp.Totals.Profit = result.Profit.String()
	resp.Totals.Profitability = result.Profitability.String()
	for _, impact := range result.RecentImpacts {
		resp.RecentOperations = append(resp.RecentOperations, recentOperationResponse{
			Date:        impact.Date.Format(dateLayout),
			Description: impact.Description,
			ResultPct:   impact.ResultPct.String(),
			Impact:      impact.Impact.String(),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

type updateInvestmentRequest struct {
	InitialInvestment string `json:"initialInvestment"`
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	var req updateInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.InitialInvestment)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid initialInvestment format")
		return
	}

	client, err := s.RegistryService.UpdateInitialInvestment(r.Context(), id, amount)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	slog.Info("initial investment updated", "clientID", id, "amount", amount.String())
	respondJSON(w, http.StatusOK, toClientResponse(client))
}

func (s *Server) handleDisableClient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	if err := s.RegistryService.Disable(r.Context(), id); err != nil {
		respondMappedError(w, err)
		return
	}

	slog.Info("client disabled", "clientID", id)
	w.WriteHeader(http.StatusNoContent)
}

// --- Operations ---

type upsertOperationRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	ResultPct   string `json:"resultPct"`
}

type operationResponse struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	ResultPct    string `json:"resultPct"`
	TotalCapital string `json:"totalCapital"`
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		parsed, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			return
		}
		from = &parsed
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		parsed, err := time.Parse(dateLayout, toStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			return
		}
		to = &parsed
	}

	operations, err := s.LedgerService.List(r.Context(), from, to)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	out := make([]operationResponse, 0, len(operations))
	for _, op := range operations {
		out = append(out, toOperationResponse(op))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertOperation(w http.ResponseWriter, r *http.Request) {
	var req upsertOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	pct, err := decimal.NewFromString(req.ResultPct)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid resultPct format")
		return
	}

	op, err := s.LedgerService.Upsert(r.Context(), ledger.UpsertOperationInput{
		Date:        date,
		Description: req.Description,
		ResultPct:   pct,
	})
	if err != nil {
		respondMappedError(w, err)
		return
	}

	slog.Info("operation upserted", "operationID", op.ID, "date", req.Date, "resultPct", req.ResultPct)
	respondJSON(w, http.StatusCreated, toOperationResponse(op))
}

func (s *Server) handleDeleteOperation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid operation id")
		return
	}

	if err := s.LedgerService.Delete(r.Context(), id); err != nil {
		respondMappedError(w, err)
		return
	}

	slog.Info("operation deleted, balances recomputed", "operationID", id)
	w.WriteHeader(http.StatusNoContent)
}

// --- Dashboard ---

type dashboardResponse struct {
	TotalInvested  string `json:"totalInvested"`
	TotalBalance   string `json:"totalBalance"`
	TotalProfit    string `json:"totalProfit"`
	ClientCount    int    `json:"clientCount"`
	OperationCount int    `json:"operationCount"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	overview, err := s.DashboardService.GetOverview(r.Context())
	if err != nil {
		respondMappedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboardResponse{
		TotalInvested:  overview.TotalInvested.String(),
		TotalBalance:   overview.TotalBalance.String(),
		TotalProfit:    overview.TotalProfit.String(),
		ClientCount:    overview.ClientCount,
		OperationCount: overview.OperationCount,
	})
}

// --- Helpers ---

func toClientResponse(c *domain.Client) clientResponse {
	return clientResponse{
		ID:                c.ID.String(),
		Name:              c.Name,
		Email:             c.Email,
		InitialInvestment: c.InitialInvestment.String(),
		StartDate:         c.StartDate.Format(dateLayout),
		CurrentBalance:    c.CurrentBalance.String(),
		Active:            c.Active,
	}
}

func toOperationResponse(op *domain.Operation) operationResponse {
	return operationResponse{
		ID:           op.ID.String(),
		Date:         op.Date.Format(dateLayout),
		Description:  op.Description,
		ResultPct:    op.ResultPct.String(),
		TotalCapital: op.TotalCapital.String(),
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondMappedError converts usecase errors to HTTP status codes
func respondMappedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrClientNotFound), errors.Is(err, domain.ErrOperationNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())
	case isValidationError(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// isValidationError matches the messages produced at the ingestion boundary
func isValidationError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "must be") ||
		strings.Contains(msg, "cannot be") ||
		strings.Contains(msg, "below minimum") ||
		strings.Contains(msg, "above maximum")
}

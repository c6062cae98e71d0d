package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"circulation-backend/internal/domains/identifier/model"
	"circulation-backend/internal/domains/identifier/repository"
	"circulation-backend/internal/domains/identifier/service"
	"circulation-backend/internal/shared/datasource"
	"circulation-backend/internal/shared/response"
)

// Handler exposes the identifier graph over HTTP.
type Handler struct {
	repo        repository.Repository
	equivalence *service.EquivalenceService
}

func NewHandler(repo repository.Repository, equivalence *service.EquivalenceService) *Handler {
	return &Handler{repo: repo, equivalence: equivalence}
}

// LookupIdentifier - POST /v1/identifiers
// Resolves an identifier by (type, value), creating it if unseen.
func (h *Handler) LookupIdentifier(c *gin.Context) {
	var req model.LookupIdentifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	identifier, created, err := h.repo.GetOrCreate(c.Request.Context(), req.Type, req.Value)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve identifier")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, identifier)
}

// GetEquivalents - GET /v1/identifiers/:id/equivalents
// Query params: levels, threshold
func (h *Handler) GetEquivalents(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Identifier id must be numeric")
		return
	}

	levels := service.DefaultLevels
	if s := c.Query("levels"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 10 {
			levels = v
		}
	}
	threshold := service.DefaultThreshold
	if s := c.Query("threshold"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 0 && v < 1 {
			threshold = v
		}
	}

	ctx := c.Request.Context()
	if _, err := h.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, model.ErrIdentifierNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "Identifier not found")
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load identifier")
		return
	}

	closure, err := h.equivalence.RecursivelyEquivalentIDs(ctx, []int64{id}, levels, threshold)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute equivalents")
		return
	}

	equivalents := make([]model.EquivalentResponse, 0, len(closure[id]))
	for otherID, eq := range closure[id] {
		other, err := h.repo.GetByID(ctx, otherID)
		if err != nil {
			continue
		}
		equivalents = append(equivalents, model.EquivalentResponse{
			IdentifierID: otherID,
			Type:         other.Type,
			Value:        other.Value,
			Confidence:   eq.Confidence,
			Votes:        eq.Votes,
		})
	}
	sort.Slice(equivalents, func(i, j int) bool {
		if equivalents[i].Confidence != equivalents[j].Confidence {
			return equivalents[i].Confidence > equivalents[j].Confidence
		}
		return equivalents[i].IdentifierID < equivalents[j].IdentifierID
	})

	response.Success(c, http.StatusOK, equivalents)
}

// AssertEquivalency - POST /v1/identifiers/:id/equivalencies (admin)
func (h *Handler) AssertEquivalency(c *gin.Context) {
	inputID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Identifier id must be numeric")
		return
	}

	var req model.AssertEquivalencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if _, ok := datasource.Lookup(req.DataSource); !ok {
		response.ErrorResponse(c, http.StatusBadRequest, "UNKNOWN_SOURCE", "Unknown data source")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.GetByID(ctx, inputID); err != nil {
		if errors.Is(err, model.ErrIdentifierNotFound) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "Identifier not found")
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load identifier")
		return
	}

	output, _, err := h.repo.GetOrCreate(ctx, req.OutputType, req.OutputValue)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve output identifier")
		return
	}

	eq, err := h.equivalence.AssertEquivalence(ctx, req.DataSource, inputID, output.ID, req.Strength)
	if err != nil {
		if errors.Is(err, model.ErrInvalidStrength) {
			response.ErrorResponse(c, http.StatusBadRequest, "INVALID_STRENGTH", err.Error())
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record equivalency")
		return
	}

	response.Success(c, http.StatusCreated, eq)
}

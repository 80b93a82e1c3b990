package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	vehicledomain "github.com/cazfleet/accounts/internal/vehicle/domain"
)

const defaultPageSize = 10

func (s *Server) ListVehicles(c *gin.Context) {
	accountID, err := parseAccountID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pageNumber, err := parseOptionalInt(c.Query("page_number"), 0)
	if err != nil || pageNumber < 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	pageSize, err := parseOptionalInt(c.Query("page_size"), defaultPageSize)
	if err != nil || pageSize <= 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.vehicleSvc.List(c.Request.Context(), vehicledomain.ListRequest{
		AccountID:      accountID,
		Query:          strings.TrimSpace(c.Query("query")),
		PageNumber:     pageNumber,
		PageSize:       pageSize,
		OnlyChargeable: c.Query("only_chargeable") == "true",
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListVehiclesWithCursor(c *gin.Context) {
	accountID, err := parseAccountID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pageSize, err := parseOptionalInt(c.Query("page_size"), defaultPageSize)
	if err != nil || pageSize <= 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	anchorVRN := strings.TrimSpace(c.Query("vrn"))

	// Direction defaults to NEXT; paging backwards needs an anchor to page
	// backwards from.
	direction := vehicledomain.DirectionNext
	if raw := c.Query("direction"); raw != "" {
		direction, err = vehicledomain.ParseTravelDirection(strings.ToUpper(raw))
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}
	if direction == vehicledomain.DirectionPrevious && anchorVRN == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var zoneID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("clean_air_zone_id")); raw != "" {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		zoneID = &id
	}

	vehicles, err := s.vehicleSvc.ListWithCursor(c.Request.Context(), vehicledomain.CursorListRequest{
		AccountID: accountID,
		PageSize:  pageSize,
		AnchorVRN: anchorVRN,
		Direction: direction,
		ZoneID:    zoneID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"vehicles": vehicles}})
}

type createVehicleRequest struct {
	VRN string `json:"vrn"`
}

func (s *Server) CreateVehicle(c *gin.Context) {
	accountID, err := parseAccountID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.vehicleSvc.Create(c.Request.Context(), accountID, req.VRN)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetVehicle(c *gin.Context) {
	accountID, err := parseAccountID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.vehicleSvc.Get(c.Request.Context(), accountID, c.Param("vrn"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteVehicle(c *gin.Context) {
	accountID, err := parseAccountID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.vehicleSvc.Delete(c.Request.Context(), accountID, c.Param("vrn")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseAccountID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("account_id")))
	if err != nil {
		return uuid.Nil, ErrInvalidRequest
	}
	return id, nil
}

func parseOptionalInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

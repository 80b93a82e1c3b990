package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	chargeabilitydomain "github.com/cazfleet/accounts/internal/chargeability/domain"
)

type chargeCalculationRequest struct {
	MaxVehicles int `json:"max_vehicles"`
}

type chargeCalculationResponse struct {
	Result chargeabilitydomain.PopulationResult `json:"result"`
}

// TriggerChargeCalculation populates the chargeability cache for one account.
// The request body is optional; max_vehicles caps the work of this invocation
// and callers re-POST while the result reports the run is not finished.
func (s *Server) TriggerChargeCalculation(c *gin.Context) {
	accountID, err := parseAccountID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req chargeCalculationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}
	if req.MaxVehicles == 0 {
		req.MaxVehicles = s.charging.Get().MaxVehiclesPerRun
	}

	result, err := s.chargeabilitySvc.PopulateForAccount(c.Request.Context(), accountID, req.MaxVehicles)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.writeChargeCalculationResult(c, result)
}

// TriggerRefresh recomputes stale and incomplete cache entries across all
// accounts, independent of the periodic scheduler.
func (s *Server) TriggerRefresh(c *gin.Context) {
	var req chargeCalculationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}
	cfg := s.charging.Get()
	if req.MaxVehicles == 0 {
		req.MaxVehicles = cfg.MaxVehiclesPerRun
	}

	result, err := s.chargeabilitySvc.Refresh(c.Request.Context(), req.MaxVehicles, cfg.CacheRefreshDays)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.writeChargeCalculationResult(c, result)
}

func (s *Server) writeChargeCalculationResult(c *gin.Context, result chargeabilitydomain.PopulationResult) {
	if result == chargeabilitydomain.ExternalServiceCallError {
		s.log.Warn("charge calculation aborted on external service failure")
		c.JSON(http.StatusServiceUnavailable, gin.H{"data": chargeCalculationResponse{Result: result}})
		return
	}
	s.log.Info("charge calculation finished", zap.String("result", string(result)))
	c.JSON(http.StatusOK, gin.H{"data": chargeCalculationResponse{Result: result}})
}

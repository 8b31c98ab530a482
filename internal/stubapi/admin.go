package stubapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type LeadQuery struct {
	Tier     string `form:"tier"`
	ZoneKey  string `form:"zone_key"`
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type statusRequest struct {
	Status models.LeadStatus `json:"status"`
}

func (s *Server) ListLeads(c *gin.Context) {
	var query LeadQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		s.abort(c, invalidBody(err))
		return
	}

	list := s.store.ListLeads(models.LeadFilter{
		Tier:     query.Tier,
		ZoneKey:  query.ZoneKey,
		Status:   models.LeadStatus(query.Status),
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	c.JSON(http.StatusOK, list)
}

func (s *Server) GetLead(c *gin.Context) {
	detail, err := s.store.Lead(c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) PatchLeadStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, invalidBody(err))
		return
	}

	update, err := s.store.SetStatus(c.Param("id"), req.Status)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, update)
}

func (s *Server) ReserveLead(c *gin.Context) {
	var req models.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, invalidBody(err))
		return
	}

	reservation, err := s.store.Reserve(c.Param("id"), req)
	if err != nil {
		s.abort(c, err)
		return
	}
	s.logger.WithFields(logrus.Fields{
		"lead_id":   reservation.LeadID,
		"agency_id": reservation.AgencyID,
		"until":     reservation.ReservedUntil,
	}).Info("Lead reserved")
	c.JSON(http.StatusOK, reservation)
}

func (s *Server) ReleaseReservation(c *gin.Context) {
	var req models.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, invalidBody(err))
		return
	}

	release, err := s.store.Release(c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	s.logger.WithFields(logrus.Fields{"lead_id": release.LeadID, "reason": req.Reason}).Info("Reservation released")
	c.JSON(http.StatusOK, release)
}

func (s *Server) SellLead(c *gin.Context) {
	var req models.SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, invalidBody(err))
		return
	}

	sale, err := s.store.Sell(c.Param("id"), req)
	if err != nil {
		s.abort(c, err)
		return
	}
	s.logger.WithFields(logrus.Fields{"lead_id": sale.LeadID, "agency_id": sale.AgencyID, "price_eur": sale.PriceEUR}).Info("Lead sold")
	c.JSON(http.StatusOK, sale)
}

func (s *Server) ListAgencies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.store.Agencies()})
}

func (s *Server) ListZones(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.store.Zones()})
}

func (s *Server) PatchZone(c *gin.Context) {
	var patch models.ZonePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.abort(c, invalidBody(err))
		return
	}

	result, err := s.store.PatchZone(c.Param("id"), patch)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportSales writes sold leads as CSV
func (s *Server) ExportSales(c *gin.Context) {
	sales := s.store.Sales(c.Query("tier"), c.Query("zone_key"))

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="sales.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"lead_id", "sold_at", "zone_key", "tier", "agency_id", "price_eur"})
	for _, sale := range sales {
		agency := ""
		if sale.SoldToAgencyID != nil {
			agency = *sale.SoldToAgencyID
		}
		price := ""
		if sale.SalePriceEUR != nil {
			price = strconv.Itoa(*sale.SalePriceEUR)
		}
		_ = w.Write([]string{sale.LeadID, sale.SoldAt.Format("2006-01-02T15:04:05Z07:00"), sale.ZoneKey, sale.Tier, agency, price})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.WithError(fmt.Errorf("failed to write sales export: %w", err)).Error("Export failed")
	}
}

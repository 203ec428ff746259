package ui

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"assessr/app"
	"assessr/domain/assessment"
	"assessr/domain/core"
	"assessr/internal/errors"
	"assessr/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

type parcelListResponse struct {
	Parcels []assessment.Parcel `json:"parcels"`
	Query   string              `json:"query"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

type appealsResponse struct {
	ParcelID string              `json:"parcel_id"`
	Appeals  []assessment.Appeal `json:"appeals"`
}

type noticePage struct {
	TaxYear   int
	Body      template.HTML
	Generated time.Time
}

func (s *Server) handleParcelSearch(c *gin.Context) {
	limit, err := intParam(c, "limit")
	if err != nil {
		s.respondError(c, err)
		return
	}
	offset, err := intParam(c, "offset")
	if err != nil {
		s.respondError(c, err)
		return
	}
	q := assessment.ParcelQuery{Text: strings.TrimSpace(c.Query("q")), Limit: limit, Offset: offset}

	parcels, err := s.services.Parcels.Search(c.Request.Context(), q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if parcels == nil {
		parcels = []assessment.Parcel{}
	}
	s.respond(c, fragments.ParcelList, parcelListResponse{Parcels: parcels, Query: q.Text, Limit: limit, Offset: offset})
}

func (s *Server) handleParcelDetail(c *gin.Context) {
	detail, err := s.services.Parcels.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleComparables(c *gin.Context) {
	req := app.ComparablesRequest{ParcelID: c.Param("id"), Preset: c.Query("preset")}

	var err error
	if req.Limit, err = intParam(c, "limit"); err != nil {
		s.respondError(c, err)
		return
	}
	if req.SoldWithinMonths, err = intParam(c, "months"); err != nil {
		s.respondError(c, err)
		return
	}
	if req.SameClass, err = boolParam(c, "same_class"); err != nil {
		s.respondError(c, err)
		return
	}
	if req.SameNeighborhood, err = boolParam(c, "same_neighborhood"); err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.services.Comparables.Rank(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, fragments.ComparablesTable, result)
}

func (s *Server) handleComparablePresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": s.services.Comparables.Presets()})
}

// handleNotice serves the notice as a printable page, or as JSON with
// format=json
func (s *Server) handleNotice(c *gin.Context) {
	year, err := intParam(c, "year")
	if err != nil {
		s.respondError(c, err)
		return
	}

	notice, err := s.services.Notices.Render(c.Request.Context(), c.Param("id"), year)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, notice)
		return
	}
	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(notice.Markdown))
		return
	}

	// The notice HTML is produced by the markdown renderer with raw HTML skipped
	s.renderTemplate(c, http.StatusOK, fragments.NoticePage, noticePage{
		TaxYear:   notice.TaxYear,
		Body:      template.HTML(notice.HTML),
		Generated: notice.Generated,
	})
}

func (s *Server) handleListAppeals(c *gin.Context) {
	parcelID := c.Param("id")
	appeals, err := s.services.Appeals.List(c.Request.Context(), parcelID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if appeals == nil {
		appeals = []assessment.Appeal{}
	}
	s.respond(c, fragments.AppealsList, appealsResponse{ParcelID: parcelID, Appeals: appeals})
}

func (s *Server) handleFileAppeal(c *gin.Context) {
	var req app.FileAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInputf("invalid request body: %v", err))
		return
	}

	appeal, err := s.services.Appeals.File(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Location", "/api/appeals/"+appeal.ID.String())
	c.JSON(http.StatusCreated, appeal)
}

func (s *Server) handleUpdateAppeal(c *gin.Context) {
	id, err := appealID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req app.UpdateAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInputf("invalid request body: %v", err))
		return
	}

	appeal, err := s.services.Appeals.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appeal)
}

func (s *Server) handleDeleteAppeal(c *gin.Context) {
	id, err := appealID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.services.Appeals.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func appealID(c *gin.Context) (core.ID, error) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		return "", errors.InvalidInputf("invalid appeal id %q", c.Param("id"))
	}
	return id, nil
}

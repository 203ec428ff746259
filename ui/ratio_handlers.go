package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"assessr/app"
	"assessr/domain/analytics"
	"assessr/domain/assessment"
	"assessr/ui/templates/fragments"

	"github.com/gin-gonic/gin"
)

type statisticsResponse struct {
	Groups     []analytics.GroupedStatistic[assessment.RatioRow] `json:"groups"`
	GroupBy    []string                                          `json:"group_by"`
	TrimFactor *float64                                          `json:"trim_factor"`
}

type histogramResponse struct {
	BinWidth float64                  `json:"bin_width"`
	Bins     []analytics.HistogramBin `json:"bins"`
	Peak     int                      `json:"-"`
}

type trendResponse struct {
	TrimFactor *float64         `json:"trim_factor"`
	Points     []app.TrendPoint `json:"points"`
}

func (s *Server) handleRatioStatistics(c *gin.Context) {
	filter, err := ratioFilterFromQuery(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	opts, err := statisticsOptionsFromQuery(c, s.services.Ratios.Defaults())
	if err != nil {
		s.respondError(c, err)
		return
	}

	groups, err := s.services.Ratios.Statistics(c.Request.Context(), filter, opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if opts.GroupBy == nil {
		opts.GroupBy = []string{}
	}
	s.respond(c, fragments.StatisticsTable, statisticsResponse{
		Groups:     groups,
		GroupBy:    opts.GroupBy,
		TrimFactor: opts.TrimFactor,
	})
}

func (s *Server) handleRatioHistogram(c *gin.Context) {
	filter, err := ratioFilterFromQuery(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	width, err := binWidthParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if width == 0 {
		width = s.services.Ratios.Defaults().DefaultBinWidth
	}

	bins, err := s.services.Ratios.Histogram(c.Request.Context(), filter, width)
	if err != nil {
		s.respondError(c, err)
		return
	}
	resp := histogramResponse{BinWidth: width, Bins: bins}
	for _, b := range bins {
		resp.Peak = max(resp.Peak, b.Count)
	}
	s.respond(c, fragments.Histogram, resp)
}

func (s *Server) handleRatioStudy(c *gin.Context) {
	filter, err := ratioFilterFromQuery(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	trim, err := trimParam(c, s.services.Ratios.Defaults())
	if err != nil {
		s.respondError(c, err)
		return
	}

	study, err := s.services.Ratios.Study(c.Request.Context(), filter, trim)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respond(c, fragments.RatioStudy, study)
}

func (s *Server) handleRatioTrend(c *gin.Context) {
	filter, err := ratioFilterFromQuery(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	years, err := yearsParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	trim, err := trimParam(c, s.services.Ratios.Defaults())
	if err != nil {
		s.respondError(c, err)
		return
	}

	points, err := s.services.Ratios.Trend(c.Request.Context(), filter, years, trim)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trendResponse{TrimFactor: trim, Points: points})
}

func (s *Server) exportRequest(c *gin.Context) (app.ExportRequest, error) {
	var req app.ExportRequest
	var err error
	if req.Filter, err = ratioFilterFromQuery(c); err != nil {
		return req, err
	}
	if req.Options, err = statisticsOptionsFromQuery(c, s.services.Ratios.Defaults()); err != nil {
		return req, err
	}
	if req.BinWidth, err = binWidthParam(c); err != nil {
		return req, err
	}
	req.Kind = app.ExportKind(c.DefaultQuery("kind", string(app.ExportStatistics)))
	return req, nil
}

func (s *Server) handleRatioExportCSV(c *gin.Context) {
	req, err := s.exportRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	// Buffer so a failed export still gets a JSON error instead of a truncated file
	var buf bytes.Buffer
	if err := s.services.Ratios.ExportCSV(c.Request.Context(), &buf, req); err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(string(req.Kind), "csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleRatioExportXLSX(c *gin.Context) {
	req, err := s.exportRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.services.Ratios.ExportXLSX(c.Request.Context(), &buf, req); err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment("ratio-study", "xlsx"))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func attachment(name, ext string) string {
	return fmt.Sprintf(`attachment; filename="%s-%s.%s"`, name, time.Now().UTC().Format("20060102"), ext)
}

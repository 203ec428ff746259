package ui

import (
	"strconv"
	"strings"
	"time"

	"assessr/domain/analytics"
	"assessr/domain/assessment"
	"assessr/internal/config"
	"assessr/internal/errors"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// ratioFilterFromQuery reads year, from, to, neighborhood, class and
// include_invalid
func ratioFilterFromQuery(c *gin.Context) (assessment.RatioFilter, error) {
	var filter assessment.RatioFilter

	if s := c.Query("year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil || year <= 0 {
			return filter, errors.InvalidInputf("year must be a positive integer, got %q", s)
		}
		filter.TaxYear = year
	}

	var err error
	if filter.SaleDateFrom, err = dateParam(c, "from"); err != nil {
		return filter, err
	}
	if filter.SaleDateTo, err = dateParam(c, "to"); err != nil {
		return filter, err
	}
	if filter.SaleDateFrom != nil && filter.SaleDateTo != nil && filter.SaleDateTo.Before(*filter.SaleDateFrom) {
		return filter, errors.InvalidInput("to must not be before from")
	}

	filter.Neighborhoods = listParam(c, "neighborhood")
	filter.PropertyClass = strings.TrimSpace(c.Query("class"))

	if s := c.Query("include_invalid"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return filter, errors.InvalidInputf("include_invalid must be a boolean, got %q", s)
		}
		filter.IncludeInvalid = b
	}
	return filter, nil
}

// statisticsOptionsFromQuery reads group_by, trim and raw. An absent trim
// parameter means the configured default.
func statisticsOptionsFromQuery(c *gin.Context, defaults config.AnalyticsConfig) (analytics.StatisticsOptions, error) {
	opts := analytics.StatisticsOptions{GroupBy: listParam(c, "group_by")}

	trim, err := trimParam(c, defaults)
	if err != nil {
		return opts, err
	}
	opts.TrimFactor = trim

	if s := c.Query("raw"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return opts, errors.InvalidInputf("raw must be a boolean, got %q", s)
		}
		opts.IncludeRaw = b
	}
	return opts, nil
}

func trimParam(c *gin.Context, defaults config.AnalyticsConfig) (*float64, error) {
	s, ok := c.GetQuery("trim")
	if !ok {
		return defaults.DefaultTrimFactor, nil
	}
	return config.ParseTrimFactor(s)
}

func binWidthParam(c *gin.Context) (float64, error) {
	s := c.Query("bin_width")
	if s == "" {
		return 0, nil
	}
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || w <= 0 {
		return 0, errors.InvalidInputf("bin_width must be a positive number, got %q", s)
	}
	return w, nil
}

func yearsParam(c *gin.Context) ([]int, error) {
	var years []int
	for _, s := range listParam(c, "years") {
		if from, to, ok := strings.Cut(s, "-"); ok {
			lo, err1 := strconv.Atoi(from)
			hi, err2 := strconv.Atoi(to)
			if err1 != nil || err2 != nil || hi < lo {
				return nil, errors.InvalidInputf("invalid year range %q", s)
			}
			if hi-lo > 100 {
				return nil, errors.InvalidInputf("year range %q is too wide", s)
			}
			for y := lo; y <= hi; y++ {
				years = append(years, y)
			}
			continue
		}
		y, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.InvalidInputf("invalid year %q", s)
		}
		years = append(years, y)
	}
	return years, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	s := c.Query(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.InvalidInputf("%s must be a non-negative integer, got %q", name, s)
	}
	return n, nil
}

func boolParam(c *gin.Context, name string) (bool, error) {
	s := c.Query(name)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.InvalidInputf("%s must be a boolean, got %q", name, s)
	}
	return b, nil
}

func dateParam(c *gin.Context, name string) (*time.Time, error) {
	s := c.Query(name)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, errors.InvalidInputf("%s must be a date like 2024-01-31, got %q", name, s)
	}
	return &t, nil
}

// listParam accepts repeated parameters and comma separated values
func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

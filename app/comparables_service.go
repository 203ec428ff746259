package app

import (
	"context"
	"time"

	"assessr/domain/analytics"
	"assessr/domain/assessment"
	"assessr/internal"
	ianalytics "assessr/internal/analytics"
	"assessr/internal/config"
	"assessr/internal/errors"
	"assessr/internal/metrics"
	"assessr/ports"
)

const (
	defaultSoldWithinMonths = 36
	maxComparables          = 100
)

// ComparablesRequest selects the subject parcel and the candidate pool
type ComparablesRequest struct {
	ParcelID         string
	Preset           string
	Limit            int
	SoldWithinMonths int
	SameClass        bool
	SameNeighborhood bool
}

// ComparablesResult is a ranked list of comparable sales for a subject
type ComparablesResult struct {
	Subject     assessment.ParcelFeatures                             `json:"subject"`
	Preset      string                                                `json:"preset"`
	Fields      []analytics.FieldSpec                                 `json:"fields"`
	Considered  int                                                   `json:"candidates_considered"`
	Comparables []analytics.DistanceResult[assessment.ParcelFeatures] `json:"comparables"`
}

// ComparablesService ranks recently sold parcels by Gower distance to a
// subject parcel
type ComparablesService struct {
	features ports.FeatureRepository
	presets  config.Presets
	cfg      config.AnalyticsConfig
	metrics  metrics.Recorder
	logger   *internal.Logger
	now      func() time.Time
}

// NewComparablesService creates a comparables service
func NewComparablesService(features ports.FeatureRepository, presets config.Presets, cfg config.AnalyticsConfig, recorder metrics.Recorder, logger *internal.Logger) *ComparablesService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &ComparablesService{
		features: features,
		presets:  presets,
		cfg:      cfg,
		metrics:  recorder,
		logger:   logger.With("ComparablesService"),
		now:      time.Now,
	}
}

// Presets lists the configured preset names
func (s *ComparablesService) Presets() []string {
	return s.presets.Names()
}

// Rank scores the candidate pool against the subject and returns the closest
// Limit parcels, most similar first
func (s *ComparablesService) Rank(ctx context.Context, req ComparablesRequest) (result *ComparablesResult, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveAnalytics("comparables", time.Since(start), err) }()

	fields, err := s.presets.Lookup(req.Preset)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.ComparablesLimit
	}
	if limit > maxComparables {
		return nil, errors.InvalidInputf("limit must be at most %d", maxComparables)
	}
	months := req.SoldWithinMonths
	if months <= 0 {
		months = defaultSoldWithinMonths
	}

	subject, err := s.features.GetFeatures(ctx, req.ParcelID)
	if err != nil {
		return nil, err
	}

	filter := assessment.CandidateFilter{
		ExcludeParcelID: subject.ParcelID,
		SoldAfter:       s.now().AddDate(0, -months, 0),
		Limit:           s.cfg.CandidatePoolSize,
	}
	if req.SameClass {
		filter.PropertyClass = subject.PropertyClass.V
	}
	if req.SameNeighborhood {
		filter.Neighborhood = subject.Neighborhood.V
	}

	candidates, err := s.features.ListCandidates(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load comparable candidates")
	}

	ranked := ianalytics.GowerDistances(*subject, candidates, fields)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	preset := req.Preset
	if preset == "" {
		preset = config.DefaultPreset
	}
	s.logger.Debug("ranked %d candidates for %s with preset %s", len(candidates), subject.ParcelID, preset)

	return &ComparablesResult{
		Subject:     *subject,
		Preset:      preset,
		Fields:      fields,
		Considered:  len(candidates),
		Comparables: ranked,
	}, nil
}

package analytics

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// FIELD VALUES
// ============================================================================

// ValueKind tags the dynamic type carried by a Value
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindNumber
	KindText
	KindBool
	KindDate
)

// Value is a nullable, mixed-type field value read from a database row.
// The zero Value is null.
type Value struct {
	kind ValueKind
	num  float64
	str  string
	flag bool
	date time.Time
}

// Null returns the null value
func Null() Value { return Value{} }

// Number wraps a numeric value. NaN and ±Inf are stored as null.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Text wraps a string value
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Bool wraps a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Date wraps a timestamp. The zero time is stored as null.
func Date(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindDate, date: t}
}

// NumberPtr wraps an optional numeric value
func NumberPtr(f *float64) Value {
	if f == nil {
		return Value{}
	}
	return Number(*f)
}

// TextPtr wraps an optional string value
func TextPtr(s *string) Value {
	if s == nil {
		return Value{}
	}
	return Text(*s)
}

// Kind returns the dynamic type of v
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v carries no value
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float coerces v to a number. Dates become epoch milliseconds, booleans 0/1,
// and text is parsed as a decimal literal.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindDate:
		return float64(v.date.UnixMilli()), true
	case KindBool:
		if v.flag {
			return 1, true
		}
		return 0, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// EpochMillis coerces v to epoch milliseconds. Text is parsed as RFC 3339 or
// as a calendar date (2006-01-02); numbers are taken as epoch milliseconds.
func (v Value) EpochMillis() (float64, bool) {
	switch v.kind {
	case KindDate:
		return float64(v.date.UnixMilli()), true
	case KindNumber:
		return v.num, true
	case KindText:
		s := strings.TrimSpace(v.str)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return float64(t.UnixMilli()), true
			}
		}
	}
	return 0, false
}

// String renders v the way categorical comparison and grouping see it
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindDate:
		return v.date.Format(time.RFC3339)
	}
	return ""
}

// Truthy reports the boolean interpretation of v: false for null, zero,
// empty text, "false", "0", "no" and "n".
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.flag
	case KindNumber:
		return v.num != 0
	case KindText:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "", "false", "0", "no", "n", "f":
			return false
		}
		return true
	case KindDate:
		return true
	}
	return false
}

// MarshalJSON renders null values as JSON null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.flag)
	case KindDate:
		return json.Marshal(v.date)
	}
	return []byte("null"), nil
}

// Record is a loosely shaped row keyed by field name
type Record map[string]Value

// Field returns the value stored under key; missing keys read as null
func (r Record) Field(key string) Value { return r[key] }

// Fielder is implemented by any row that exposes named fields for grouping
// and distance scoring
type Fielder interface {
	Field(key string) Value
}

// ============================================================================
// DESCRIPTIVE STATISTICS
// ============================================================================

// RatioSource is a row that carries an assessment/sale ratio. Rows whose
// ratio is absent or non-finite are ignored by the statistics engine.
type RatioSource interface {
	Fielder
	RatioValue() (float64, bool)
}

// NullGroupMarker replaces a missing grouping field in a group key
const NullGroupMarker = "(null)"

// GroupKeySeparator joins grouping field values into a group key
const GroupKeySeparator = " | "

// StatisticsOptions configures ComputeStatistics
type StatisticsOptions struct {
	GroupBy    []string `json:"group_by,omitempty"`
	TrimFactor *float64 `json:"trim_factor,omitempty"` // nil disables IQR trimming
	IncludeRaw bool     `json:"include_raw,omitempty"`
}

// Supported IQR multipliers for outlier trimming
const (
	TrimStandard = 1.5
	TrimExtreme  = 3.0
)

// TrimFactor returns a pointer suitable for StatisticsOptions.TrimFactor
func TrimFactor(f float64) *float64 { return &f }

// GroupedStatistic is one group's aggregate.
// INVARIANTS:
// - N counts finite ratios that survived trimming
// - Median/Min/Max/Avg are nil exactly when N == 0
type GroupedStatistic[T any] struct {
	GroupKey *string  `json:"group_key"` // nil only for the ungrouped case
	Median   *float64 `json:"median"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Avg      *float64 `json:"avg"`
	N        int      `json:"n"`
	RawRows  []T      `json:"raw_rows,omitempty"`
}

// HistogramBin is one fixed-width bucket of a histogram
type HistogramBin struct {
	BinStart float64 `json:"bin_start"`
	Count    int     `json:"count"`
}

// ============================================================================
// DISTANCE SCORING
// ============================================================================

// FieldType selects how a field is compared in Gower scoring
type FieldType string

const (
	FieldNumeric     FieldType = "numeric"
	FieldCategorical FieldType = "categorical"
	FieldBoolean     FieldType = "boolean"
	FieldDate        FieldType = "date"
)

// Valid reports whether t is a known field type
func (t FieldType) Valid() bool {
	switch t {
	case FieldNumeric, FieldCategorical, FieldBoolean, FieldDate:
		return true
	}
	return false
}

// FieldSpec describes one comparison field
type FieldSpec struct {
	Key    string    `json:"key" yaml:"key"`
	Type   FieldType `json:"type" yaml:"type"`
	Weight *float64  `json:"weight,omitempty" yaml:"weight,omitempty"` // nil means 1
}

// Weight returns a pointer to w for FieldSpec literals
func Weight(w float64) *float64 { return &w }

// EffectiveWeight returns the field weight. An unset weight is 1 and an
// explicit 0 switches the field off.
func (f FieldSpec) EffectiveWeight() float64 {
	if f.Weight == nil {
		return 1
	}
	w := *f.Weight
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return 1
	}
	return w
}

// DistanceResult pairs a candidate with its Gower distance to the subject.
// Distance lies in [0,1]; lower is more similar.
type DistanceResult[T any] struct {
	Item     T       `json:"item"`
	Distance float64 `json:"distance"`
}

// ============================================================================
// RATIO STUDY
// ============================================================================

// SaleRatioSource is a RatioSource that also exposes the sale price and
// assessed value the ratio was derived from
type SaleRatioSource interface {
	RatioSource
	SaleAmounts() (price float64, assessed float64, ok bool)
}

// RatioStudy summarizes assessment uniformity and vertical equity for a sample
// of arm's-length sales. Undefined measures are nil.
type RatioStudy struct {
	N            int         `json:"n"`
	Trimmed      int         `json:"trimmed"` // rows removed by IQR trimming
	Median       *float64    `json:"median"`
	Mean         *float64    `json:"mean"`
	WeightedMean *float64    `json:"weighted_mean"`
	COD          *float64    `json:"cod"`
	PRD          *float64    `json:"prd"`
	PRB          *float64    `json:"prb"`
	MeanCI95     *[2]float64 `json:"mean_ci_95"`
}

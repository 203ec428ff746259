package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"assessr/domain/assessment"
	"assessr/domain/core"
	"assessr/internal"
	"assessr/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/shopspring/decimal"
)

// valuationHistory is how many prior years are searched for the comparison
// value on a notice
const valuationHistory = 10

// Notice is a rendered assessment-change notice
type Notice struct {
	ParcelID  string                `json:"parcel_id"`
	TaxYear   int                   `json:"tax_year"`
	Current   assessment.Valuation  `json:"current"`
	Prior     *assessment.Valuation `json:"prior,omitempty"`
	Markdown  string                `json:"markdown"`
	HTML      string                `json:"html"`
	Generated time.Time             `json:"generated_at"`
}

// NoticeService renders valuation change notices for parcel owners
type NoticeService struct {
	parcels ports.ParcelRepository
	logger  *internal.Logger
	now     func() time.Time
}

// NewNoticeService creates a notice service
func NewNoticeService(parcels ports.ParcelRepository, logger *internal.Logger) *NoticeService {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &NoticeService{parcels: parcels, logger: logger.With("NoticeService"), now: time.Now}
}

// Render builds the notice for taxYear, or for the latest certified year when
// taxYear is zero
func (s *NoticeService) Render(ctx context.Context, parcelID string, taxYear int) (*Notice, error) {
	parcel, err := s.parcels.GetByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	vals, err := s.parcels.Valuations(ctx, parcelID, valuationHistory)
	if err != nil {
		return nil, err
	}

	current, prior := pickValuations(vals, taxYear)
	if current == nil {
		year := "any year"
		if taxYear > 0 {
			year = fmt.Sprint(taxYear)
		}
		return nil, fmt.Errorf("%w: parcel %s, %s", core.ErrValuationNotFound, parcelID, year)
	}

	md := noticeMarkdown(parcel, current, prior)
	notice := &Notice{
		ParcelID:  parcel.ID,
		TaxYear:   current.TaxYear,
		Current:   *current,
		Prior:     prior,
		Markdown:  md,
		HTML:      renderMarkdown(md),
		Generated: s.now().UTC(),
	}
	s.logger.Debug("rendered %d notice for %s", current.TaxYear, parcel.ParcelNumber)
	return notice, nil
}

// pickValuations finds the requested year and the most recent year before it.
// vals is newest first.
func pickValuations(vals []assessment.Valuation, taxYear int) (current, prior *assessment.Valuation) {
	for i := range vals {
		v := &vals[i]
		if current == nil {
			if taxYear == 0 || v.TaxYear == taxYear {
				current = v
			}
			continue
		}
		if v.TaxYear < current.TaxYear {
			return current, v
		}
	}
	return current, nil
}

func noticeMarkdown(p *assessment.Parcel, current, prior *assessment.Valuation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Notice of Assessed Value, Tax Year %d\n\n", current.TaxYear)
	fmt.Fprintf(&b, "**Parcel:** %s  \n", escapeMarkdown(p.ParcelNumber))
	fmt.Fprintf(&b, "**Situs address:** %s  \n", escapeMarkdown(p.SitusAddress))
	fmt.Fprintf(&b, "**Owner:** %s\n\n", escapeMarkdown(p.OwnerName))
	if p.MailingAddress.Valid {
		fmt.Fprintf(&b, "Mailing address: %s\n\n", escapeMarkdown(p.MailingAddress.V))
	}

	priorYear := "Prior"
	if prior != nil {
		priorYear = fmt.Sprint(prior.TaxYear)
	}
	fmt.Fprintf(&b, "| Component | %s | %d | Change |\n", priorYear, current.TaxYear)
	b.WriteString("|---|---:|---:|---:|\n")
	writeValueRow(&b, "Land", current.LandValue, priorValue(prior, func(v *assessment.Valuation) decimal.Decimal { return v.LandValue }))
	writeValueRow(&b, "Improvements", current.ImprovementValue, priorValue(prior, func(v *assessment.Valuation) decimal.Decimal { return v.ImprovementValue }))
	writeValueRow(&b, "**Total**", current.TotalValue, priorValue(prior, func(v *assessment.Valuation) decimal.Decimal { return v.TotalValue }))
	b.WriteString("\n")

	if prior != nil && prior.TotalValue.IsPositive() {
		pct := current.TotalValue.Sub(prior.TotalValue).Div(prior.TotalValue).Mul(decimal.NewFromInt(100))
		fmt.Fprintf(&b, "Your total assessed value changed by **%s%%** from %d.\n\n", signed(pct.Round(1).StringFixed(1)), prior.TaxYear)
	}

	b.WriteString("If you believe this value does not reflect market value as of the assessment date, ")
	b.WriteString("you may file an appeal with the assessor's office for this tax year.\n")
	return b.String()
}

func writeValueRow(b *strings.Builder, label string, current decimal.Decimal, prior *decimal.Decimal) {
	if prior == nil {
		fmt.Fprintf(b, "| %s | | %s | |\n", label, formatMoney(current))
		return
	}
	fmt.Fprintf(b, "| %s | %s | %s | %s |\n", label, formatMoney(*prior), formatMoney(current), signed(formatMoney(current.Sub(*prior))))
}

func priorValue(prior *assessment.Valuation, get func(*assessment.Valuation) decimal.Decimal) *decimal.Decimal {
	if prior == nil {
		return nil
	}
	v := get(prior)
	return &v
}

// formatMoney renders whole dollars with thousands separators
func formatMoney(d decimal.Decimal) string {
	s := d.Round(0).Abs().StringFixed(0)
	var out strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	if d.Round(0).IsNegative() {
		return "-$" + out.String()
	}
	return "$" + out.String()
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") || strings.Trim(s, "$0.,") == "" {
		return s
	}
	return "+" + s
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "|", `\|`,
	"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// renderMarkdown converts notice markdown to HTML with raw HTML suppressed
func renderMarkdown(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}

package validate

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrecon/internal/domain"
)

// capPE bounds earnings multiples; beyond it the number is noise.
const capPE = 1000.0

// CapOutliers nulls fields with structurally impossible magnitudes and
// appends one audit note per capped field. This is the only mutation in the
// validation layer and it is invoked explicitly, never as part of Run. The
// input is untouched; a new profile comes back.
func CapOutliers(p *domain.MergedProfile) *domain.MergedProfile {
	out := p.Clone()

	capField := func(f domain.FieldName, reason string) {
		v, ok := out.Float(f)
		if !ok {
			return
		}
		out.Fields[f] = nil
		out.Meta.DataQualityNotes = append(out.Meta.DataQualityNotes, fmt.Sprintf(
			"%s capped: original value %.4f %s", f, v, reason))
		log.Warn().Str("symbol", out.Meta.Symbol).Str("field", string(f)).
			Float64("original", v).Msg("Outlier capped")
	}

	for _, f := range []domain.FieldName{
		domain.FieldGrossMargin, domain.FieldOpMargin, domain.FieldNetMargin,
	} {
		if v, ok := out.Float(f); ok && (v > 1 || v < -1) {
			capField(f, "exceeds 100% margin")
		}
	}
	for _, f := range []domain.FieldName{domain.FieldTrailingPE, domain.FieldForwardPE} {
		if v, ok := out.Float(f); ok && v > capPE {
			capField(f, fmt.Sprintf("exceeds %.0fx multiple", capPE))
		}
	}

	out.Meta.CoveragePct = out.Coverage()
	return out
}

package transform

import (
	"github.com/shopspring/decimal"

	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/pkg/logger"
)

// ValidatorConfig holds the business-rule thresholds
type ValidatorConfig struct {
	// MaxPlausibleRate is the exclusive upper bound of the rate band.
	// The lower bound is always "greater than zero".
	MaxPlausibleRate decimal.Decimal
}

// Validator applies schema and business-rule checks to cleaned records
// and computes batch quality metrics. Pure computation, no I/O.
type Validator struct {
	config ValidatorConfig
	logger *logger.Logger
}

// NewValidator creates a new Validator
func NewValidator(cfg ValidatorConfig, log *logger.Logger) *Validator {
	return &Validator{
		config: cfg,
		logger: log.WithField("module", "validator"),
	}
}

// Validate classifies every record of the batch. Rules are evaluated
// independently and violations accumulate; a record joins the invalid
// partition with its full violation list. |valid| + |invalid| equals
// the input length for every batch.
func (v *Validator) Validate(clean []contracts.CleanRate) ([]contracts.CleanRate, []contracts.ValidationOutcome, contracts.QualityMetrics) {
	valid := make([]contracts.CleanRate, 0, len(clean))
	invalid := make([]contracts.ValidationOutcome, 0)

	complete := 0
	for _, rec := range clean {
		violations := v.check(rec)

		if passesSchema(rec) {
			complete++
		}

		if len(violations) == 0 {
			valid = append(valid, rec)
		} else {
			invalid = append(invalid, contracts.ValidationOutcome{
				Record:     rec,
				Violations: violations,
			})
			v.logger.WithFields(map[string]interface{}{
				"pair":       rec.Pair(),
				"violations": violations,
			}).Warn("Record failed validation")
		}
	}

	metrics := contracts.QualityMetrics{
		RecordCount:  len(clean),
		ValidCount:   len(valid),
		InvalidCount: len(invalid),
	}
	if len(clean) > 0 {
		metrics.Completeness = float64(complete) / float64(len(clean))
		metrics.ValidityRate = float64(len(valid)) / float64(len(clean))
	}

	v.logger.WithFields(map[string]interface{}{
		"records":       metrics.RecordCount,
		"valid":         metrics.ValidCount,
		"invalid":       metrics.InvalidCount,
		"completeness":  metrics.Completeness,
		"validity_rate": metrics.ValidityRate,
	}).Info("Validated batch")

	return valid, invalid, metrics
}

// check evaluates every rule without short-circuiting
func (v *Validator) check(rec contracts.CleanRate) []contracts.Rule {
	var violations []contracts.Rule

	if !passesSchema(rec) {
		violations = append(violations, contracts.RuleSchema)
	}

	if rec.Rate.Sign() <= 0 || rec.Rate.GreaterThanOrEqual(v.config.MaxPlausibleRate) {
		violations = append(violations, contracts.RuleRange)
	}

	if !rec.FetchedAt.IsZero() && rec.ObservedAt.After(rec.FetchedAt) {
		violations = append(violations, contracts.RuleFreshness)
	}

	if rec.BaseCurrency == rec.TargetCurrency {
		violations = append(violations, contracts.RulePair)
	}

	return violations
}

// passesSchema reports whether every required field carries a usable value
func passesSchema(rec contracts.CleanRate) bool {
	return isCurrencyCode(rec.BaseCurrency) &&
		isCurrencyCode(rec.TargetCurrency) &&
		!rec.Rate.IsZero() &&
		!rec.ObservedAt.IsZero() &&
		!rec.FetchedAt.IsZero()
}

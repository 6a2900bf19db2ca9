package features

import (
	"credit-default-risk/internal/models"
)

// Feature names produced by Transform. Categorical indicators are "<field>_<value>".
const (
	Income            = "INCOME"
	Savings           = "SAVINGS"
	Debt              = "DEBT"
	RatioDebtIncome   = "R_DEBT_INCOME"
	RatioDebtSavings  = "R_DEBT_SAVINGS"
	CatDebt           = "CAT_DEBT"
	CatSavingsAccount = "CAT_SAVINGS_ACCOUNT"
)

// FeatureVector holds exactly one value per schema column, in schema order.
type FeatureVector struct {
	schema Schema
	values []float64
}

// Values returns a copy of the values in schema order.
func (v FeatureVector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Get returns the value of a named feature.
func (v FeatureVector) Get(name string) (float64, bool) {
	i := v.schema.Index(name)
	if i < 0 {
		return 0, false
	}
	return v.values[i], true
}

// At returns the value at schema position i.
func (v FeatureVector) At(i int) float64 {
	return v.values[i]
}

func (v FeatureVector) Len() int {
	return len(v.values)
}

func (v FeatureVector) Schema() Schema {
	return v.schema
}

// Map returns the vector keyed by feature name.
func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	for i, name := range v.schema.names {
		out[name] = v.values[i]
	}
	return out
}

// OneHotKey builds the indicator name for a categorical field value.
func OneHotKey(field, value string) string {
	return field + "_" + value
}

// DeriveRatios computes the debt ratios, guarding zero denominators with 0.
func DeriveRatios(in models.BorrowerInput) models.Ratios {
	var r models.Ratios
	if in.Income > 0 {
		r.DebtToIncome = in.Debt / in.Income
	}
	if in.Savings > 0 {
		r.DebtToSavings = in.Debt / in.Savings
	}
	return r
}

func indicator(cond bool) float64 {
	if cond {
		return 1
	}
	return 0
}

// populated is every feature Transform knows how to set for in.
func populated(in models.BorrowerInput) map[string]float64 {
	r := DeriveRatios(in)
	out := map[string]float64{
		Income:            in.Income,
		Savings:           in.Savings,
		Debt:              in.Debt,
		RatioDebtIncome:   r.DebtToIncome,
		RatioDebtSavings:  r.DebtToSavings,
		CatDebt:           indicator(in.Debt > 0),
		CatSavingsAccount: indicator(in.Savings > 0),
	}
	for _, kv := range in.Categorical() {
		out[OneHotKey(kv[0], kv[1])] = 1
	}
	return out
}

// Transform aligns in to schema. Columns Transform does not populate are 0,
// and populated names missing from the schema are dropped.
func Transform(schema Schema, in models.BorrowerInput) FeatureVector {
	src := populated(in)
	values := make([]float64, schema.Len())
	for i, name := range schema.names {
		values[i] = src[name]
	}
	return FeatureVector{schema: schema, values: values}
}

// Unmatched lists the populated features that the schema has no column for,
// e.g. a categorical value the model never saw during training.
func Unmatched(schema Schema, in models.BorrowerInput) []string {
	var out []string
	for _, kv := range in.Categorical() {
		key := OneHotKey(kv[0], kv[1])
		if !schema.Has(key) {
			out = append(out, key)
		}
	}
	for _, name := range []string{Income, Savings, Debt, RatioDebtIncome, RatioDebtSavings, CatDebt, CatSavingsAccount} {
		if !schema.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// KnownFeatures lists every name Transform can populate: the numeric columns
// followed by one indicator per accepted categorical value.
func KnownFeatures() []string {
	names := []string{Income, Savings, Debt, RatioDebtIncome, RatioDebtSavings, CatDebt, CatSavingsAccount}
	for _, v := range models.EducationLevels {
		names = append(names, OneHotKey(models.FieldEducation, v))
	}
	for _, v := range models.Occupations {
		names = append(names, OneHotKey(models.FieldOccupation, v))
	}
	for _, v := range models.Relationships {
		names = append(names, OneHotKey(models.FieldRelationship, v))
	}
	return names
}

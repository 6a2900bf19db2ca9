// Package sample draws synthetic borrower profiles for smoke runs and load
// tests. Draws are reproducible for a given seed.
package sample

import (
	"math"

	"credit-default-risk/internal/models"

	"github.com/brianvoe/gofakeit/v7"
)

// Generator produces borrowers from a seeded faker.
type Generator struct {
	faker *gofakeit.Faker
	// ZeroRate is the chance that a single monetary field is drawn as 0.
	ZeroRate float64
}

func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed), ZeroRate: 0.05}
}

// Borrower draws one valid profile. Income, savings and debt are never all zero.
func (g *Generator) Borrower() models.BorrowerInput {
	b := models.BorrowerInput{
		Income:       g.amount(5_000, 250_000),
		Savings:      g.amount(0, 150_000),
		Debt:         g.amount(0, 200_000),
		Education:    g.faker.RandomString(models.EducationLevels),
		Occupation:   g.faker.RandomString(models.Occupations),
		Relationship: g.faker.RandomString(models.Relationships),
	}
	if b.AllFinancialsZero() {
		b.Income = g.amount(5_000, 250_000)
		if b.Income == 0 {
			b.Income = 5_000
		}
	}
	return b
}

// Borrowers draws n profiles.
func (g *Generator) Borrowers(n int) []models.BorrowerInput {
	out := make([]models.BorrowerInput, n)
	for i := range out {
		out[i] = g.Borrower()
	}
	return out
}

func (g *Generator) amount(min, max float64) float64 {
	if g.faker.Float64Range(0, 1) < g.ZeroRate {
		return 0
	}
	return math.Round(g.faker.Float64Range(min, max))
}

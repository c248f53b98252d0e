package openfoodfacts

import (
	"strings"

	"github.com/nutriscan/backend/internal/domain"
)

// ProviderName identifies Open Food Facts in logs, metrics and ProductInfo.Source
const ProviderName = "openfoodfacts"

// MapToProductInfo converts an Open Food Facts product to our domain ProductInfo
func MapToProductInfo(p *Product) *domain.ProductInfo {
	additives := 0
	if p.AdditivesTags != nil {
		additives = len(p.AdditivesTags)
	}

	raw := 0
	if p.NutriscoreScore != nil {
		raw = *p.NutriscoreScore
	}

	return &domain.ProductInfo{
		Name:            withDefault(p.ProductName, domain.DefaultProductName),
		Brand:           withDefault(p.Brands, domain.DefaultBrandName),
		ImageURL:        p.ImageURL,
		ProcessingLevel: ProcessingLevel(p.NovaGroup),
		AdditivesCount:  additives,
		Nutrition:       extractNutrition(p),
		NutritionScore:  domain.NewNutritionScore(raw, GradeFor(p.NutriscoreGrade)),
		Source:          ProviderName,
	}
}

// extractNutrition maps nutriments, converting sodium from grams to milligrams
func extractNutrition(p *Product) domain.NutritionFacts {
	n := p.Nutriments

	calories := 0.0
	switch {
	case n.EnergyKcal100g != nil:
		calories = *n.EnergyKcal100g
	case n.EnergyKcal != nil:
		calories = *n.EnergyKcal
	}

	addedSugar := domain.EstimateAddedSugar(n.Sugars100g)
	switch {
	case n.AddedSugars100g != nil:
		addedSugar = *n.AddedSugars100g
	case n.LegacyAddedSugars100g != nil:
		addedSugar = *n.LegacyAddedSugars100g
	}

	return domain.NutritionFacts{
		ServingSize:  withDefault(p.ServingSize, domain.DefaultServingSize),
		Calories:     calories,
		Fat:          n.Fat100g,
		SaturatedFat: n.SaturatedFat100g,
		TransFat:     n.TransFat100g,
		Sodium:       n.Sodium100g * 1000,
		Carbs:        n.Carbohydrates100g,
		Fiber:        n.Fiber100g,
		Sugar:        n.Sugars100g,
		AddedSugar:   addedSugar,
		Protein:      n.Proteins100g,
	}
}

// ProcessingLevel maps the NOVA group (1–4) to a processing level
func ProcessingLevel(novaGroup *int) string {
	if novaGroup == nil {
		return domain.ProcessingUnknown
	}
	switch *novaGroup {
	case 1:
		return domain.ProcessingUnprocessed
	case 2:
		return domain.ProcessingCulinary
	case 3:
		return domain.ProcessingProcessed
	case 4:
		return domain.ProcessingUltra
	default:
		return domain.ProcessingUnknown
	}
}

// GradeFor maps nutriscore_grade to a grade. A missing grade displays as C;
// values outside A–E ("unknown", "not-applicable") fall back to D (2.0, Poor).
func GradeFor(nutriscoreGrade *string) domain.Grade {
	if nutriscoreGrade == nil || strings.TrimSpace(*nutriscoreGrade) == "" {
		return domain.GradeC
	}
	if grade, ok := domain.ParseGrade(*nutriscoreGrade); ok {
		return grade
	}
	return domain.GradeD
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

package nutritionix

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nutriscan/backend/internal/domain"
)

// ProviderName identifies Nutritionix in logs, metrics and ProductInfo.Source
const ProviderName = "nutritionix"

// defaultTransFat is assumed when the item reports no trans fat
const defaultTransFat = 0.1

// additiveKeywords are matched as substrings of the ingredient statement
var additiveKeywords = []string{
	"acid", "agent", "artificial", "color", "dye", "e-", "emulsifier",
	"flavor", "gum", "preservative", "stabilizer", "sweetener",
}

// Rubric thresholds, in the units the item reports
const (
	rubricMaxSugar        = 5.0
	rubricMaxSaturatedFat = 2.0
	rubricMaxSodium       = 400.0
	rubricMinFiber        = 3.0
	rubricMinProtein      = 5.0
)

// MapToProductInfo converts a Nutritionix food item to our domain ProductInfo.
// Nutritionix has no processing classification, additive list or grade, so all
// three are estimated locally.
func MapToProductInfo(food *Food) *domain.ProductInfo {
	transFat := defaultTransFat
	if food.TransFattyAcid != nil {
		transFat = *food.TransFattyAcid
	}

	return &domain.ProductInfo{
		Name:            withDefault(food.FoodName, domain.DefaultProductName),
		Brand:           withDefault(food.BrandName, domain.DefaultBrandName),
		ImageURL:        food.Photo.HighRes,
		ProcessingLevel: EstimateProcessingLevel(food.IngredientStatement),
		AdditivesCount:  EstimateAdditives(food.IngredientStatement),
		Nutrition: domain.NutritionFacts{
			ServingSize:  servingSize(food),
			Calories:     food.Calories,
			Fat:          food.TotalFat,
			SaturatedFat: food.SaturatedFat,
			TransFat:     transFat,
			Sodium:       food.Sodium,
			Carbs:        food.TotalCarbohydrate,
			Fiber:        food.DietaryFiber,
			Sugar:        food.Sugars,
			AddedSugar:   domain.EstimateAddedSugar(food.Sugars),
			Protein:      food.Protein,
		},
		NutritionScore: domain.NewNutritionScore(0, domain.GradeFromRubric(RubricPoints(food))),
		Source:         ProviderName,
	}
}

// EstimateProcessingLevel buckets the number of comma-separated ingredients.
// An empty statement counts as zero ingredients and lands in the first bucket.
func EstimateProcessingLevel(ingredients string) string {
	count := 0
	if ingredients != "" {
		count = len(strings.Split(ingredients, ","))
	}

	switch {
	case count <= 3:
		return domain.ProcessingUnprocessed
	case count <= 5:
		return domain.ProcessingProcessed
	default:
		return domain.ProcessingUltra
	}
}

// EstimateAdditives counts how many distinct additive keywords occur in the
// ingredient statement, ignoring case.
func EstimateAdditives(ingredients string) int {
	folded := cases.Fold().String(ingredients)

	count := 0
	for _, keyword := range additiveKeywords {
		if strings.Contains(folded, keyword) {
			count++
		}
	}
	return count
}

// RubricPoints awards one point per healthy criterion (0–5)
func RubricPoints(food *Food) int {
	points := 0
	if food.Sugars < rubricMaxSugar {
		points++
	}
	if food.SaturatedFat < rubricMaxSaturatedFat {
		points++
	}
	if food.Sodium < rubricMaxSodium {
		points++
	}
	if food.DietaryFiber > rubricMinFiber {
		points++
	}
	if food.Protein > rubricMinProtein {
		points++
	}
	return points
}

func servingSize(food *Food) string {
	qty := ""
	if food.ServingQty != nil {
		qty = strconv.FormatFloat(*food.ServingQty, 'f', -1, 64)
	}
	size := strings.TrimSpace(qty + " " + food.ServingUnit)
	if size == "" {
		return domain.DefaultServingSize
	}
	return size
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

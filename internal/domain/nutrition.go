package domain

// Processing levels reported on ProductInfo
const (
	ProcessingUnprocessed = "Unprocessed"
	ProcessingCulinary    = "Processed Culinary Ingredients"
	ProcessingProcessed   = "Processed"
	ProcessingUltra       = "Ultra-Processed"
	ProcessingUnknown     = "Unknown"
)

// Defaults used when a provider omits identity fields
const (
	DefaultProductName = "Unknown Product"
	DefaultBrandName   = "Unknown Brand"
	DefaultServingSize = "N/A"
)

// Daily value references used for the display percentages
const (
	AddedSugarDailyValue = 25.0 // grams
	TransFatDailyValue   = 2.0  // grams
)

// AddedSugarEstimateRatio is applied to total sugar when a provider reports no added sugar
const AddedSugarEstimateRatio = 0.5

// NutritionFacts holds per-serving (or per-100g, as the provider reports) values
type NutritionFacts struct {
	ServingSize  string  `json:"serving_size"`
	Calories     float64 `json:"calories"`
	Fat          float64 `json:"fat"`           // grams
	SaturatedFat float64 `json:"saturated_fat"` // grams
	TransFat     float64 `json:"trans_fat"`     // grams
	Sodium       float64 `json:"sodium"`        // milligrams
	Carbs        float64 `json:"carbs"`         // grams
	Fiber        float64 `json:"fiber"`         // grams
	Sugar        float64 `json:"sugar"`         // grams
	AddedSugar   float64 `json:"added_sugar"`   // grams
	Protein      float64 `json:"protein"`       // grams
}

// EstimateAddedSugar returns the added sugar estimate for a total sugar amount
func EstimateAddedSugar(sugar float64) float64 {
	return sugar * AddedSugarEstimateRatio
}

// ProductInfo is the unified product record produced by a provider
type ProductInfo struct {
	Name            string         `json:"name"`
	Brand           string         `json:"brand"`
	ImageURL        string         `json:"image_url"`
	ProcessingLevel string         `json:"processing_level"`
	AdditivesCount  int            `json:"additives_count"`
	Nutrition       NutritionFacts `json:"nutrition"`
	NutritionScore  NutritionScore `json:"nutrition_score"`
	Source          string         `json:"source"` // provider name
}

// ResolvedProduct is a ProductInfo plus the caller-facing display percentages
type ResolvedProduct struct {
	Barcode string `json:"barcode"`
	ProductInfo
	SugarPercentage    float64 `json:"sugar_percentage"`
	TransFatPercentage float64 `json:"trans_fat_percentage"`
}

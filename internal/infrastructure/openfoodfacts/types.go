package openfoodfacts

// ProductResponse is the body of GET /api/v0/product/{barcode}.json
type ProductResponse struct {
	Code          string   `json:"code"`
	Status        int      `json:"status"` // 1 when the product exists
	StatusVerbose string   `json:"status_verbose"`
	Product       *Product `json:"product"`
}

// Product holds the subset of Open Food Facts product fields we map
type Product struct {
	ProductName     string     `json:"product_name"`
	Brands          string     `json:"brands"`
	ImageURL        string     `json:"image_url"`
	ServingSize     string     `json:"serving_size"`
	NovaGroup       *int       `json:"nova_group"`
	AdditivesTags   []string   `json:"additives_tags"`
	NutriscoreScore *int       `json:"nutriscore_score"`
	NutriscoreGrade *string    `json:"nutriscore_grade"`
	Nutriments      Nutriments `json:"nutriments"`
}

// Nutriments are reported per 100g. Pointer fields distinguish "absent" from 0.
type Nutriments struct {
	EnergyKcal100g        *float64 `json:"energy-kcal_100g"`
	EnergyKcal            *float64 `json:"energy-kcal"`
	Fat100g               float64  `json:"fat_100g"`
	SaturatedFat100g      float64  `json:"saturated-fat_100g"`
	TransFat100g          float64  `json:"trans-fat_100g"`
	Sodium100g            float64  `json:"sodium_100g"` // grams
	Carbohydrates100g     float64  `json:"carbohydrates_100g"`
	Fiber100g             float64  `json:"fiber_100g"`
	Sugars100g            float64  `json:"sugars_100g"`
	AddedSugars100g       *float64 `json:"added-sugars_100g"`
	LegacyAddedSugars100g *float64 `json:"added_sugars_100g"`
	Proteins100g          float64  `json:"proteins_100g"`
}

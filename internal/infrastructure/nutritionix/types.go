package nutritionix

// SearchItemRequest is the body of POST /v2/search/item
type SearchItemRequest struct {
	UPC string `json:"upc"`
}

// SearchItemResponse is the response of POST /v2/search/item
type SearchItemResponse struct {
	Foods []Food `json:"foods"`
}

// Food is a branded food item. Pointer fields distinguish "absent" from 0.
type Food struct {
	FoodName            string   `json:"food_name"`
	BrandName           string   `json:"brand_name"`
	ServingQty          *float64 `json:"serving_qty"`
	ServingUnit         string   `json:"serving_unit"`
	Calories            float64  `json:"nf_calories"`
	TotalFat            float64  `json:"nf_total_fat"`
	SaturatedFat        float64  `json:"nf_saturated_fat"`
	TransFattyAcid      *float64 `json:"nf_trans_fatty_acid"`
	Sodium              float64  `json:"nf_sodium"` // milligrams
	TotalCarbohydrate   float64  `json:"nf_total_carbohydrate"`
	DietaryFiber        float64  `json:"nf_dietary_fiber"`
	Sugars              float64  `json:"nf_sugars"`
	Protein             float64  `json:"nf_protein"`
	IngredientStatement string   `json:"nf_ingredient_statement"`
	Photo               Photo    `json:"photo"`
}

// Photo holds product image URLs
type Photo struct {
	Thumb   string `json:"thumb"`
	HighRes string `json:"highres"`
}

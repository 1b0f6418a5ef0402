package mensaapi

// Food is the dish payload embedded in each food plan entry.
type Food struct {
	ID          int      `json:"id"`
	Name        *string  `json:"name"`
	Name2       *string  `json:"name_2"`
	Ingredients []string `json:"ingredients"`
	Price1      float64  `json:"price_1"`
	Price2      float64  `json:"price_2"`
	Price3      float64  `json:"price_3"`
	Extra1      *string  `json:"extra_1"`
	Extra2      *string  `json:"extra_2"`
	Extra3      *string  `json:"extra_3"`
	Extra4      *string  `json:"extra_4"`
	ImageURL    *string  `json:"image_url"`
}

// FoodPlanItem is one offering of a dish at a location on a date.
type FoodPlanItem struct {
	ID         int    `json:"id"`
	Date       string `json:"date"`
	CounterID  int    `json:"counter_id"`
	LocationID int    `json:"location_id"`
	IsSprint   bool   `json:"is_sprint"`
	Food       Food   `json:"food"`
}

// Meta maps ingredient and marker codes to labels.
type Meta struct {
	Ingredients map[string]string `json:"ingredients"`
	Markers     map[string]string `json:"markers"`
}

// FoodPlanResponse is the body of GET /food_plans.
type FoodPlanResponse struct {
	Data []FoodPlanItem `json:"data"`
	Meta Meta           `json:"meta"`
}

// Location is one cafeteria as listed by GET /locations.
type Location struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

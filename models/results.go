package models

// PricingResult holds a Black-Scholes price together with the standardized
// distances d1 and d2 used by its cumulative-normal terms.
type PricingResult struct {
	Price float64 `json:"price"`
	D1    float64 `json:"d1"`
	D2    float64 `json:"d2"`
}

// GreeksResult holds first-order sensitivities. Vega is per unit of volatility,
// Theta per year and Rho per unit of rate.
type GreeksResult struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

package domain

import "time"

// SupplySearchLimit caps the number of matches returned by a name search.
const SupplySearchLimit = 20

// Supply is a medication entry in the catalog.
type Supply struct {
	ID                 string    `json:"_id"`
	Name               string    `json:"name"`
	ActivePrinciple    string    `json:"activePrinciple,omitempty"`
	Power              string    `json:"power,omitempty"`
	Unity              string    `json:"unity,omitempty"`
	FirstPresentation  string    `json:"firstPresentation,omitempty"`
	SecondPresentation string    `json:"secondPresentation,omitempty"`
	Description        string    `json:"description,omitempty"`
	Observation        string    `json:"observation,omitempty"`
	PharmaceuticalForm string    `json:"pharmaceutical_form,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// SupplyMatch is the projection returned by name searches.
type SupplyMatch struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

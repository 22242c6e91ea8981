package models

// User mirrors an identity established by the external identity provider.
// ExternalID is the token subject and is what movements and catalog entries
// record as their owner or creator.
type User struct {
	Base
	ExternalID string `gorm:"size:191;uniqueIndex;not null" json:"external_id"`
	Name       string `gorm:"size:200" json:"name"`
	Email      string `gorm:"size:255" json:"email"`
}

package domain

import "time"

// InterestCategory is the community interest a member picked at signup.
// Values outside the known set are accepted and stored as given.
type InterestCategory string

const (
	InterestFoodBlogging    InterestCategory = "food-blogging"
	InterestCulinaryArts    InterestCategory = "culinary-arts"
	InterestHomeCooking     InterestCategory = "home-cooking"
	InterestBaking          InterestCategory = "baking"
	InterestNutrition       InterestCategory = "nutrition"
	InterestFoodPhotography InterestCategory = "food-photography"
)

// KnownInterestCategories lists the categories offered by the signup form, in display order.
func KnownInterestCategories() []InterestCategory {
	return []InterestCategory{
		InterestFoodBlogging,
		InterestCulinaryArts,
		InterestHomeCooking,
		InterestBaking,
		InterestNutrition,
		InterestFoodPhotography,
	}
}

// Known reports whether c is one of the categories offered by the signup form.
func (c InterestCategory) Known() bool {
	for _, k := range KnownInterestCategories() {
		if c == k {
			return true
		}
	}
	return false
}

// UserRecord is one registered member of the directory.
//
// Credentials are only ever held as hashes. Email is the unique key and is
// compared exactly, without case folding.
type UserRecord struct {
	ID UserID

	FullName     string
	Email        string
	SocialHandle string

	SocialPasswordHash string
	PasswordHash       string

	InterestCategory InterestCategory
	SocialLinked     bool

	RegisteredAt time.Time
}

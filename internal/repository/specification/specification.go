package specification

import "gorm.io/gorm"

// Specification is a composable query fragment. Repositories apply any
// number of them on top of their base query.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

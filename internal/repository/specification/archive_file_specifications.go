package specification

import (
	"strings"

	"gorm.io/gorm"
)

// NameContains is a case-insensitive substring match on the file name.
type NameContains struct {
	Term string
}

func (s NameContains) Apply(db *gorm.DB) *gorm.DB {
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s.Term)
	return db.Where("name ILIKE ?", "%"+escaped+"%")
}

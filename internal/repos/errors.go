package repos

import (
	"errors"

	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/siddata"
)

// translate maps GORM errors onto the engine taxonomy. Requires the DB to
// be opened with TranslateError so unique-index violations surface as
// gorm.ErrDuplicatedKey on both postgres and sqlite.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return siddata.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return siddata.ErrConstraintViolation
	}
	return err
}

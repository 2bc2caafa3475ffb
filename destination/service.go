package destination

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tripgate/tripgate/database"
	"github.com/tripgate/tripgate/database/model"
	"github.com/tripgate/tripgate/logger"
)

var (
	ErrDuplicateName = errors.New("destination with this name already exists")
	ErrNotFound      = errors.New("destination not found")
)

// Service owns the destination collection: listing, creation with
// case-insensitive name uniqueness, partial update and deletion by id.
type Service struct{}

func (s *Service) List() ([]model.Destination, error) {
	db := database.GetDB()

	var destinations []model.Destination
	if err := db.Order("id").Find(&destinations).Error; err != nil {
		return nil, err
	}
	return destinations, nil
}

// Create appends a new destination. The duplicate check and the insert run
// in one transaction so two concurrent creates cannot both pass the check.
func (s *Service) Create(name, description, location string) (*model.Destination, error) {
	db := database.GetDB()

	dest := &model.Destination{
		Name:        name,
		NameLower:   strings.ToLower(name),
		Description: description,
		Location:    location,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Destination{}).
			Where("name_lower = ?", dest.NameLower).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateName
		}
		return tx.Create(dest).Error
	})
	if err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	logger.Debugf("destination %q created with id %d", dest.Name, dest.Id)
	return dest, nil
}

// Update applies the non-nil fields to the record matching key. The key
// resolves against the id first when numeric, then against the exact name
// (the reference API addressed updates by name; the id form is the stable
// alias).
func (s *Service) Update(key string, description, location *string) (*model.Destination, error) {
	db := database.GetDB()

	var dest *model.Destination
	err := db.Transaction(func(tx *gorm.DB) error {
		found, err := findByKey(tx, key)
		if err != nil {
			return err
		}

		if description != nil {
			found.Description = *description
		}
		if location != nil {
			found.Location = *location
		}
		if err := tx.Save(found).Error; err != nil {
			return err
		}
		dest = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dest, nil
}

// Delete removes the record with the given id.
func (s *Service) Delete(id int) error {
	db := database.GetDB()

	result := db.Delete(&model.Destination{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func findByKey(tx *gorm.DB, key string) (*model.Destination, error) {
	dest := &model.Destination{}

	if id, ok := parseId(key); ok {
		err := tx.First(dest, id).Error
		if err == nil {
			return dest, nil
		}
		if !database.IsNotFound(err) {
			return nil, err
		}
		// fall through to name lookup: a numeric destination name is
		// unusual but allowed
	}

	err := tx.Where("name = ?", key).First(dest).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dest, nil
}

func parseId(key string) (int, bool) {
	id := 0
	for _, r := range key {
		if r < '0' || r > '9' {
			return 0, false
		}
		id = id*10 + int(r-'0')
	}
	if key == "" {
		return 0, false
	}
	return id, true
}

package database

import (
	"prizebot/database/model"

	"gorm.io/gorm/clause"
)

// AddUser registers a user if absent. Re-registration is a no-op, not an
// error, so the start command can be repeated safely.
func AddUser(id int64, name string) error {
	user := &model.User{ID: id, Name: name}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error
}

func UserExists(id int64) (bool, error) {
	var count int64
	err := db.Model(&model.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// GetUserIds returns every registered chat id, for broadcast fan-out.
func GetUserIds() ([]int64, error) {
	var ids []int64
	err := db.Model(&model.User{}).Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func CountUsers() (int64, error) {
	var count int64
	err := db.Model(&model.User{}).Count(&count).Error
	return count, err
}

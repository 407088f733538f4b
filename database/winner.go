package database

import (
	"time"

	"prizebot/database/model"

	"gorm.io/gorm"
)

// RatingRow is one leaderboard entry.
type RatingRow struct {
	UserName string
	WinCount int64
}

func CountWinners(prizeID int64) (int64, error) {
	var count int64
	err := db.Model(&model.Win{}).Where("prize_id = ?", prizeID).Count(&count).Error
	return count, err
}

// RecordWinIfCapacity appends a win for the user if fewer than maxWinners
// wins exist for the prize. The count and the insert run in one transaction,
// so concurrent claims on the same prize cannot push it past the cap.
func RecordWinIfCapacity(userID int64, prizeID int64, maxWinners int) (bool, error) {
	won := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Win{}).Where("prize_id = ?", prizeID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(maxWinners) {
			return nil
		}
		win := &model.Win{
			UserID:  userID,
			PrizeID: prizeID,
			WinTime: time.Now(),
		}
		if err := tx.Create(win).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	return won, err
}

// GetRating returns up to limit users ordered by win count, descending.
// Ties keep the store's natural order.
func GetRating(limit int) ([]RatingRow, error) {
	var rows []RatingRow
	err := db.Model(&model.Win{}).
		Select("users.name AS user_name, COUNT(wins.prize_id) AS win_count").
		Joins("JOIN users ON users.id = wins.user_id").
		Group("wins.user_id").
		Order("win_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetWinnerImages returns the image names the user has won, for gating the
// achievements collage.
func GetWinnerImages(userID int64) ([]string, error) {
	var images []string
	err := db.Model(&model.Win{}).
		Joins("JOIN prizes ON prizes.id = wins.prize_id").
		Where("wins.user_id = ?", userID).
		Pluck("prizes.image", &images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

// GetAllWins returns the full win log, oldest first.
func GetAllWins() ([]*model.Win, error) {
	var wins []*model.Win
	err := db.Order("win_time asc").Find(&wins).Error
	if err != nil {
		return nil, err
	}
	return wins, nil
}

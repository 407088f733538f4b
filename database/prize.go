package database

import (
	"prizebot/database/model"
)

// SeedPrizes inserts a prize row for every image name not already present.
// Names that already have a row are skipped, so re-running the seeder after
// adding files to the image directory only picks up the new ones.
func SeedPrizes(imageNames []string) (int, error) {
	var existing []string
	if err := db.Model(&model.Prize{}).Pluck("image", &existing).Error; err != nil {
		return 0, err
	}

	known := make(map[string]bool, len(existing))
	for _, name := range existing {
		known[name] = true
	}

	var prizes []model.Prize
	for _, name := range imageNames {
		if known[name] {
			continue
		}
		known[name] = true
		prizes = append(prizes, model.Prize{Image: name})
	}
	if len(prizes) == 0 {
		return 0, nil
	}
	if err := db.Create(&prizes).Error; err != nil {
		return 0, err
	}
	return len(prizes), nil
}

func MarkPrizeUsed(prizeID int64) error {
	return db.Model(&model.Prize{}).Where("id = ?", prizeID).Update("used", true).Error
}

// ResetAllPrizes clears the used flag on every prize. Administrative only.
func ResetAllPrizes() error {
	return db.Model(&model.Prize{}).Where("1 = 1").Update("used", false).Error
}

// GetRandomUnusedPrize picks one unused prize uniformly at random.
// Returns nil when every prize has been broadcast already.
func GetRandomUnusedPrize() (*model.Prize, error) {
	var prize model.Prize
	err := db.Where("used = ?", false).Order("RANDOM()").First(&prize).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &prize, nil
}

// GetPrizeImage returns the image name for a prize, or "" when the prize
// does not exist.
func GetPrizeImage(prizeID int64) (string, error) {
	var prize model.Prize
	err := db.Where("id = ?", prizeID).First(&prize).Error
	if err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return prize.Image, nil
}

func CountPrizes() (total int64, used int64, err error) {
	if err = db.Model(&model.Prize{}).Count(&total).Error; err != nil {
		return
	}
	err = db.Model(&model.Prize{}).Where("used = ?", true).Count(&used).Error
	return
}

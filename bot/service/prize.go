package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"prizebot/database"
	"prizebot/database/model"
	"prizebot/util/imgutil"
)

// MaxWinnersPerPrize caps how many users can claim one broadcast prize.
const MaxWinnersPerPrize = 3

// ClaimResult is the decision for one claim attempt.
type ClaimResult int

const (
	ClaimWon ClaimResult = iota
	ClaimTooLate
	ClaimNoImage
)

// PrizeService owns prize selection, seeding, claims and the per-user
// achievements view. Source images live in imgDir, obscured counterparts in
// hiddenDir under the same file names.
type PrizeService struct {
	imgDir    string
	hiddenDir string
}

func NewPrizeService(imgDir, hiddenDir string) *PrizeService {
	return &PrizeService{
		imgDir:    imgDir,
		hiddenDir: hiddenDir,
	}
}

func (s *PrizeService) SourcePath(image string) string {
	return filepath.Join(s.imgDir, image)
}

func (s *PrizeService) HiddenPath(image string) string {
	return filepath.Join(s.hiddenDir, image)
}

// SeedFromDir scans the image directory and inserts a prize row for every
// file not yet represented. Returns how many new prizes were added.
func (s *PrizeService) SeedFromDir() (int, error) {
	entries, err := os.ReadDir(s.imgDir)
	if err != nil {
		return 0, fmt.Errorf("scan image dir %q: %w", s.imgDir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return database.SeedPrizes(names)
}

// PickUnusedPrize selects a random unused prize and marks it used before
// returning. Marking first reserves the prize, so an overlapping trigger
// cannot broadcast it twice; if the rest of the broadcast fails the prize
// stays used until an administrative reset. Returns nil when every prize
// has been broadcast.
func (s *PrizeService) PickUnusedPrize() (*model.Prize, error) {
	prize, err := database.GetRandomUnusedPrize()
	if err != nil {
		return nil, err
	}
	if prize == nil {
		return nil, nil
	}
	if err := database.MarkPrizeUsed(prize.ID); err != nil {
		return nil, err
	}
	return prize, nil
}

// ObscurePrize produces the pixelated rendering of the prize image and
// returns its path.
func (s *PrizeService) ObscurePrize(prize *model.Prize) (string, error) {
	hidden := s.HiddenPath(prize.Image)
	if err := imgutil.Obscure(s.SourcePath(prize.Image), hidden); err != nil {
		return "", err
	}
	return hidden, nil
}

// Claim decides one claim attempt. On a win the path of the original image
// is returned and the win is durably recorded; the count and insert are
// atomic, so racing claimants cannot exceed MaxWinnersPerPrize.
func (s *PrizeService) Claim(userID, prizeID int64) (ClaimResult, string, error) {
	count, err := database.CountWinners(prizeID)
	if err != nil {
		return 0, "", err
	}
	if count >= MaxWinnersPerPrize {
		return ClaimTooLate, "", nil
	}

	image, err := database.GetPrizeImage(prizeID)
	if err != nil {
		return 0, "", err
	}
	if image == "" {
		return ClaimNoImage, "", nil
	}

	won, err := database.RecordWinIfCapacity(userID, prizeID, MaxWinnersPerPrize)
	if err != nil {
		return 0, "", err
	}
	if !won {
		return ClaimTooLate, "", nil
	}
	return ClaimWon, s.SourcePath(image), nil
}

// AchievementPaths builds the collage input for a user: every seeded image,
// won ones as the original, the rest as the obscured version. Obscured
// counterparts missing on disk are generated on demand; files that still
// cannot be produced are left to the collage builder to drop.
func (s *PrizeService) AchievementPaths(userID int64) ([]string, error) {
	entries, err := os.ReadDir(s.imgDir)
	if err != nil {
		return nil, fmt.Errorf("scan image dir %q: %w", s.imgDir, err)
	}

	wonImages, err := database.GetWinnerImages(userID)
	if err != nil {
		return nil, err
	}
	won := make(map[string]bool, len(wonImages))
	for _, image := range wonImages {
		won[image] = true
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var paths []string
	for _, name := range names {
		if won[name] {
			paths = append(paths, s.SourcePath(name))
			continue
		}
		hidden := s.HiddenPath(name)
		if _, err := os.Stat(hidden); err != nil {
			// best effort, a failed file is dropped from the collage
			_ = imgutil.Obscure(s.SourcePath(name), hidden)
		}
		paths = append(paths, hidden)
	}
	return paths, nil
}

func (s *PrizeService) Rating() ([]database.RatingRow, error) {
	return database.GetRating(10)
}

func (s *PrizeService) ResetPrizes() error {
	return database.ResetAllPrizes()
}

type winExport struct {
	UserID  int64  `json:"user_id"`
	PrizeID int64  `json:"prize_id"`
	WinTime string `json:"win_time"`
}

// ExportWinners renders the full win log as a JSON document.
func (s *PrizeService) ExportWinners() ([]byte, error) {
	wins, err := database.GetAllWins()
	if err != nil {
		return nil, err
	}
	export := make([]winExport, 0, len(wins))
	for _, win := range wins {
		export = append(export, winExport{
			UserID:  win.UserID,
			PrizeID: win.PrizeID,
			WinTime: win.WinTime.Format("2006-01-02 15:04:05"),
		})
	}
	return json.MarshalIndent(export, "", "  ")
}

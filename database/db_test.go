package database

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prizebot/database/model"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDB(filepath.Join(t.TempDir(), "test.db")))
}

func TestIsSQLiteDB(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, InitDB(dbPath))

	file, err := os.Open(dbPath)
	require.NoError(t, err)
	defer file.Close()

	ok, err := IsSQLiteDB(file)
	require.NoError(t, err)
	assert.True(t, ok)

	bogus := filepath.Join(dir, "bogus.db")
	require.NoError(t, os.WriteFile(bogus, []byte("definitely not a database"), 0o644))
	bogusFile, err := os.Open(bogus)
	require.NoError(t, err)
	defer bogusFile.Close()

	ok, err = IsSQLiteDB(bogusFile)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddUserIdempotent(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, AddUser(100, "alice"))
	require.NoError(t, AddUser(100, "alice"))
	require.NoError(t, AddUser(200, "bob"))

	ids, err := GetUserIds()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{100, 200}, ids)

	exists, err := UserExists(100)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = UserExists(300)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSeedPrizesFiltersKnownImages(t *testing.T) {
	setupTestDB(t)

	added, err := SeedPrizes([]string{"a.png", "b.png"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// re-seeding with an extended directory only picks up the new file
	added, err = SeedPrizes([]string{"a.png", "b.png", "c.png"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// duplicates within one batch collapse too
	added, err = SeedPrizes([]string{"d.png", "d.png"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	total, used, err := CountPrizes()
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.EqualValues(t, 0, used)
}

func TestGetRandomUnusedPrize(t *testing.T) {
	setupTestDB(t)

	_, err := SeedPrizes([]string{"a.png", "b.png", "c.png"})
	require.NoError(t, err)

	var prizes []model.Prize
	require.NoError(t, GetDB().Find(&prizes).Error)
	require.Len(t, prizes, 3)

	require.NoError(t, MarkPrizeUsed(prizes[0].ID))
	require.NoError(t, MarkPrizeUsed(prizes[1].ID))

	// only the remaining unused prize can ever come back
	for range 20 {
		prize, err := GetRandomUnusedPrize()
		require.NoError(t, err)
		require.NotNil(t, prize)
		assert.Equal(t, prizes[2].ID, prize.ID)
		assert.False(t, prize.Used)
	}

	require.NoError(t, MarkPrizeUsed(prizes[2].ID))
	prize, err := GetRandomUnusedPrize()
	require.NoError(t, err)
	assert.Nil(t, prize)

	require.NoError(t, ResetAllPrizes())
	prize, err = GetRandomUnusedPrize()
	require.NoError(t, err)
	assert.NotNil(t, prize)
}

func TestGetPrizeImage(t *testing.T) {
	setupTestDB(t)

	_, err := SeedPrizes([]string{"cat.png"})
	require.NoError(t, err)

	var prize model.Prize
	require.NoError(t, GetDB().First(&prize).Error)

	image, err := GetPrizeImage(prize.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat.png", image)

	image, err = GetPrizeImage(9999)
	require.NoError(t, err)
	assert.Empty(t, image)
}

func TestRecordWinIfCapacity(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, AddUser(1, "alice"))
	_, err := SeedPrizes([]string{"a.png"})
	require.NoError(t, err)

	for i := range 3 {
		won, err := RecordWinIfCapacity(int64(i+1), 1, 3)
		require.NoError(t, err)
		assert.True(t, won)
	}

	won, err := RecordWinIfCapacity(4, 1, 3)
	require.NoError(t, err)
	assert.False(t, won)

	count, err := CountWinners(1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestRecordWinIfCapacityConcurrent(t *testing.T) {
	setupTestDB(t)

	_, err := SeedPrizes([]string{"a.png"})
	require.NoError(t, err)

	const claimants = 10
	var wg sync.WaitGroup
	results := make(chan bool, claimants)

	for i := range claimants {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			won, err := RecordWinIfCapacity(userID, 1, 3)
			assert.NoError(t, err)
			results <- won
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	winners := 0
	for won := range results {
		if won {
			winners++
		}
	}
	assert.Equal(t, 3, winners)

	count, err := CountWinners(1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestGetRating(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, AddUser(1, "alice"))
	require.NoError(t, AddUser(2, "bob"))
	require.NoError(t, AddUser(3, "carol"))
	_, err := SeedPrizes([]string{"a.png", "b.png", "c.png", "d.png", "e.png"})
	require.NoError(t, err)

	for prizeID := range 3 {
		won, err := RecordWinIfCapacity(1, int64(prizeID+1), 3)
		require.NoError(t, err)
		require.True(t, won)
	}
	won, err := RecordWinIfCapacity(2, 4, 3)
	require.NoError(t, err)
	require.True(t, won)
	won, err = RecordWinIfCapacity(3, 5, 3)
	require.NoError(t, err)
	require.True(t, won)

	rating, err := GetRating(10)
	require.NoError(t, err)
	require.Len(t, rating, 3)

	assert.Equal(t, "alice", rating[0].UserName)
	assert.EqualValues(t, 3, rating[0].WinCount)

	// the two single-win users both appear, tie order unspecified
	tail := []string{rating[1].UserName, rating[2].UserName}
	assert.ElementsMatch(t, []string{"bob", "carol"}, tail)
	assert.EqualValues(t, 1, rating[1].WinCount)
	assert.EqualValues(t, 1, rating[2].WinCount)
}

func TestGetRatingLimit(t *testing.T) {
	setupTestDB(t)

	var images []string
	for i := range 12 {
		images = append(images, string(rune('a'+i))+".png")
	}
	_, err := SeedPrizes(images)
	require.NoError(t, err)

	for i := range 12 {
		userID := int64(i + 1)
		require.NoError(t, AddUser(userID, "user"))
		won, err := RecordWinIfCapacity(userID, int64(i+1), 3)
		require.NoError(t, err)
		require.True(t, won)
	}

	rating, err := GetRating(10)
	require.NoError(t, err)
	assert.Len(t, rating, 10)
}

func TestGetWinnerImages(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, AddUser(1, "alice"))
	_, err := SeedPrizes([]string{"a.png", "b.png", "c.png"})
	require.NoError(t, err)

	won, err := RecordWinIfCapacity(1, 1, 3)
	require.NoError(t, err)
	require.True(t, won)
	won, err = RecordWinIfCapacity(1, 3, 3)
	require.NoError(t, err)
	require.True(t, won)

	images, err := GetWinnerImages(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.png", "c.png"}, images)

	images, err = GetWinnerImages(42)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestGetAllWins(t *testing.T) {
	setupTestDB(t)

	_, err := SeedPrizes([]string{"a.png"})
	require.NoError(t, err)

	for i := range 3 {
		won, err := RecordWinIfCapacity(int64(i+1), 1, 3)
		require.NoError(t, err)
		require.True(t, won)
	}

	wins, err := GetAllWins()
	require.NoError(t, err)
	assert.Len(t, wins, 3)
}

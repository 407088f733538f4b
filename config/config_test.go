package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAdminIds(t *testing.T) {
	t.Setenv("PRIZEBOT_ADMIN_IDS", "123, 456,bogus,789")
	assert.Equal(t, []int64{123, 456, 789}, GetAdminIds())

	t.Setenv("PRIZEBOT_ADMIN_IDS", "")
	assert.Nil(t, GetAdminIds())
}

func TestDefaults(t *testing.T) {
	t.Setenv("PRIZEBOT_DB_PATH", "")
	t.Setenv("PRIZEBOT_IMG_DIR", "")
	t.Setenv("PRIZEBOT_HIDDEN_IMG_DIR", "")
	t.Setenv("PRIZEBOT_BROADCAST_SPEC", "")
	t.Setenv("PRIZEBOT_CPU_THRESHOLD", "")
	t.Setenv("PRIZEBOT_LOCALE", "")

	assert.Equal(t, "prizebot.db", GetDBPath())
	assert.Equal(t, "img", GetImgDir())
	assert.Equal(t, "hidden_img", GetHiddenImgDir())
	assert.Equal(t, "@hourly", GetBroadcastSpec())
	assert.Equal(t, 85, GetCpuThreshold())
	assert.Equal(t, "ru_RU", GetLocale())
}

func TestGetCpuThresholdBounds(t *testing.T) {
	t.Setenv("PRIZEBOT_CPU_THRESHOLD", "150")
	assert.Equal(t, 85, GetCpuThreshold())

	t.Setenv("PRIZEBOT_CPU_THRESHOLD", "60")
	assert.Equal(t, 60, GetCpuThreshold())
}

func TestGetVersion(t *testing.T) {
	assert.NotEmpty(t, GetVersion())
}

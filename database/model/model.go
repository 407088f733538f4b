package model

import "time"

// User is a registered subscriber. The primary key is the Telegram chat id,
// assigned by the platform, so there is no auto-increment here.
type User struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"type:varchar(255)"`
}

// Prize is one image asset. Used is flipped once when the prize is picked
// for a broadcast; an administrative reset clears it in bulk.
type Prize struct {
	ID    int64  `gorm:"primaryKey"`
	Image string `gorm:"type:varchar(255);not null"`
	Used  bool   `gorm:"not null;default:false"`
}

// Win records that a user claimed a prize. Append-only.
type Win struct {
	ID      int64     `gorm:"primaryKey"`
	UserID  int64     `gorm:"index"`
	PrizeID int64     `gorm:"index"`
	WinTime time.Time `gorm:"not null"`
}

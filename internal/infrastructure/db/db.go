package db

import (
	"sellerdesk/internal/config"
	"sellerdesk/internal/model"
	"sellerdesk/pkg/db"

	"gorm.io/gorm"
)

var DB *gorm.DB

func init() {
	var err error

	DB, err = db.NewDatabase(db.Config{
		Host:     config.File.DataBaseConfig.Host,
		Port:     config.File.DataBaseConfig.Port,
		UserName: config.File.DataBaseConfig.UserName,
		DBName:   config.File.DataBaseConfig.DBName,
		Password: config.File.DataBaseConfig.Password,
		SSLMode:  config.File.DataBaseConfig.SSLMode,
	})
	if err != nil {
		panic(err)
	}

	DB.AutoMigrate(&model.Store{}, &model.UserSettings{}, &model.Chat{}, &model.ChatMessage{}, &model.AutoSequence{})
}

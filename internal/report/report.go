// Пакет report выгружает итоги синхронизаций в Google таблицу.
// Одна строка на проход: время, магазин, маркетплейс, итог.
package report

import (
	"time"

	"sellerdesk/internal/config"
	"sellerdesk/internal/infrastructure/logger"
	"sellerdesk/pkg/googlesheet"
)

// SyncReporter пишет отчеты о проходах синхронизации
type SyncReporter struct {
	sheets   *googlesheet.GoogleSheets
	tableID  string
	listName string
}

// NewSyncReporter создает репортер. Возвращает nil, если в конфигурации
// не задан файл учетных данных - отчеты выключены.
func NewSyncReporter() (*SyncReporter, error) {
	conf := config.File.SheetConfig
	if conf.CredentialsFile == "" || conf.ReportTableID == "" {
		logger.Info("Google Sheets не настроен, отчеты о синхронизациях выключены")
		return nil, nil
	}

	sheets, err := googlesheet.NewGoogleSheets(googlesheet.Config{
		BufferSize:         100,
		RequestUpdatePause: 1000,
		Logger:             logger.Log,
		CredentialsFile:    conf.CredentialsFile,
	})
	if err != nil {
		return nil, err
	}

	return &SyncReporter{
		sheets:   sheets,
		tableID:  conf.ReportTableID,
		listName: conf.ReportListName,
	}, nil
}

// AppendSyncReport дописывает строку с итогом прохода
func (r *SyncReporter) AppendSyncReport(storeName, marketplace, summary string) error {
	return r.sheets.AppendRow(r.tableID, r.listName, []string{
		time.Now().Format("2006-01-02 15:04:05"),
		storeName,
		marketplace,
		summary,
	})
}

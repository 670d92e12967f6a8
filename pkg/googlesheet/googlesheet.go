// Пакет googlesheet обертка над Google Sheets API для выгрузки строк отчета.
// Запросы к API проходят через очередь с паузой, чтобы не упираться в квоты.
package googlesheet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sellerdesk/pkg/logger/interfaces"
	"sellerdesk/pkg/request"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type Config struct {
	BufferSize         int
	RequestUpdatePause int // Пауза между запросами в миллисекундах

	// Logger определяет способ логирования:
	// - nil: будет использован стандартный log.Logger
	// - false: логирование будет отключено
	// - interfaces.BasicLogger или interfaces.SimpleLogger
	Logger          interface{}
	CredentialsFile string
}

// GoogleSheets структура для работы с Google таблицами
type GoogleSheets struct {
	*sheets.Service
	Request *request.RequestHandler

	logger         interface{}
	loggingEnabled bool
}

func (app *GoogleSheets) logf(format string, args ...interface{}) {
	if app == nil || !app.loggingEnabled {
		return
	}

	switch l := app.logger.(type) {
	case interfaces.SimpleLogger:
		l.Infof(format, args...)
	case interfaces.BasicLogger:
		l.Printf(format, args...)
	}
}

// NewGoogleSheets создает новый экземпляр GoogleSheets и запускает
// фоновую обработку очереди запросов
func NewGoogleSheets(config Config) (*GoogleSheets, error) {
	requestHandler, err := request.NewRequestHandler(request.Config{
		BufferSize: config.BufferSize,
		Logger:     config.Logger,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	service, err := sheets.NewService(ctx, option.WithCredentialsFile(config.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("не удается инициализировать сервис Google Sheets: %v", err)
	}

	app := &GoogleSheets{
		Service: service,
		Request: requestHandler,
	}

	if v, ok := config.Logger.(bool); ok && !v {
		app.loggingEnabled = false
	} else if l, ok := config.Logger.(interfaces.SimpleLogger); ok {
		app.logger = l
		app.loggingEnabled = true
	} else if l, ok := config.Logger.(interfaces.BasicLogger); ok {
		app.logger = l
		app.loggingEnabled = true
	}

	go app.Request.ProcessRequests(time.Duration(config.RequestUpdatePause) * time.Millisecond)

	return app, nil
}

// AppendRow синхронно дописывает строку в конец листа
func (app *GoogleSheets) AppendRow(sheetID, listName string, data []string) error {
	row := make([]interface{}, len(data))
	for i, v := range data {
		row[i] = v
	}
	valueRange := &sheets.ValueRange{Values: [][]interface{}{row}}

	var wg sync.WaitGroup
	wg.Add(1)
	var err error

	app.Request.HandleRequest(func() error {
		defer wg.Done()
		_, err = app.Spreadsheets.Values.Append(sheetID, listName, valueRange).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Do()
		if err != nil {
			err = errors.New("не удалось дописать строку в таблицу: " + err.Error())
		}
		return err
	})
	wg.Wait()

	if err == nil {
		app.logf("Строка добавлена в таблицу %s, лист %s", sheetID, listName)
	}
	return err
}

// GetCellValue синхронно читает значение одной ячейки
func (app *GoogleSheets) GetCellValue(sheetID, listName, cell string) (string, error) {
	readRange := fmt.Sprintf("%s!%s:%s", listName, cell, cell)

	var err error
	var resp *sheets.ValueRange
	var wg sync.WaitGroup
	wg.Add(1)

	app.Request.HandleRequest(func() error {
		defer wg.Done()
		resp, err = app.Spreadsheets.Values.Get(sheetID, readRange).Do()
		if err != nil {
			err = fmt.Errorf("не удалось извлечь данные из таблицы: %v", err)
		}
		return err
	})
	wg.Wait()
	if err != nil {
		return "", err
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprintf("%v", resp.Values[0][0]), nil
}

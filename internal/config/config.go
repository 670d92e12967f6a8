package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	WebConfig
	DataBaseConfig
	WBChatConfig
	OzonConfig
	SequenceConfig
	ClassifierConfig
	TelegramConfig
	SheetConfig
	CacheConfig
	LoggerConfig
}

type WebConfig struct {
	APPIP      string `envconfig:"APP_IP" default:"localhost"`      // IP адрес приложения
	APPPORT    string `envconfig:"APP_PORT" default:"9002"`         // Порт приложения
	APIKey     string `envconfig:"APP_API_KEY" default:""`          // Bearer ключ для защищенных эндпоинтов
	RateLimit  int    `envconfig:"APP_RATE_LIMIT" default:"10"`     // Запросов в секунду с одного IP
	RateBurst  int    `envconfig:"APP_RATE_BURST" default:"20"`     // Допустимый всплеск запросов
	IsTestMode bool   `envconfig:"APP_IS_TEST_MODE" default:"false"` // Отключает периодические фоновые задачи
}

type DataBaseConfig struct {
	Host     string `envconfig:"DBHOST" default:""` // IP адрес для подключения к БД
	Port     string `envconfig:"DBPORT" default:""` // Port для подключения к БД
	DBName   string `envconfig:"DBNAME" default:""` // Имя базы данных
	UserName string `envconfig:"DBUSER" default:""` // Имя пользователя
	Password string `envconfig:"DBPASS" default:""` // Пароль пользователя
	SSLMode  string `envconfig:"DBSSLMODE" default:"disable"`
}

type WBChatConfig struct {
	BaseURL        string `envconfig:"WBCHAT_BASE_URL" default:"https://buyer-chat-api.wildberries.ru"` // Базовый URL WB Chat API
	RequestTimeout int    `envconfig:"WBCHAT_REQUEST_TIMEOUT_SEC" default:"30"`                         // Таймаут одного запроса к API
	PagePause      int    `envconfig:"WBCHAT_PAGE_PAUSE_MS" default:"1500"`                             // Пауза между страницами событий
	MaxPages       int    `envconfig:"WBCHAT_MAX_PAGES" default:"1000"`                                 // Предохранитель от бесконечной пагинации
}

type OzonConfig struct {
	BaseURL        string `envconfig:"OZON_BASE_URL" default:"https://api-seller.ozon.ru"` // Базовый URL OZON Seller API
	RequestTimeout int    `envconfig:"OZON_REQUEST_TIMEOUT_SEC" default:"30"`              // Таймаут одного запроса к API
	HistoryLimit   int    `envconfig:"OZON_HISTORY_LIMIT" default:"100"`                   // Сколько сообщений забирать из истории чата
	RatePerSecond  int    `envconfig:"OZON_RATE_PER_SECOND" default:"50"`                  // Лимит запросов в секунду
}

type SequenceConfig struct {
	CheckPause    int `envconfig:"SEQUENCE_CHECK_PAUSE_SEC" default:"60"` // Пауза между проверками просроченных шагов
	SendPause     int `envconfig:"SEQUENCE_SEND_PAUSE_SEC" default:"3"`   // Пауза между отправками сообщений (лимит WB)
	TimezoneShift int `envconfig:"SEQUENCE_TZ_SHIFT_HOURS" default:"3"`   // Смещение МСК относительно UTC
}

type ClassifierConfig struct {
	URL            string `envconfig:"CLASSIFIER_URL" default:""`                    // URL внешнего AI классификатора. Пустая строка - только regex
	RequestTimeout int    `envconfig:"CLASSIFIER_REQUEST_TIMEOUT_SEC" default:"60"`  // Таймаут запроса к классификатору
}

type TelegramConfig struct {
	Token              string `envconfig:"TELEGRAM_TOKEN" default:""`               // Токен бота для уведомлений. Пустая строка - уведомления выключены
	NotificationChatId int64  `envconfig:"TELEGRAM_NOTIFICATION_CHAT_ID" default:"0"` // ID тг чата, куда приходят итоги синхронизаций и ошибки
}

type SheetConfig struct {
	CredentialsFile string `envconfig:"SHEET_CREDENTIALS_FILE" default:""` // Файл сервисного аккаунта. Пустая строка - отчеты выключены
	ReportTableID   string `envconfig:"SHEET_REPORT_TABLE_ID" default:""`  // ID таблицы для отчетов о синхронизациях
	ReportListName  string `envconfig:"SHEET_REPORT_LIST_NAME" default:"Синхронизации"`
}

type CacheConfig struct {
	SettingsLiveTime int `envconfig:"CACHE_SETTINGS_LIVE_TIME_MIN" default:"5"` // Время жизни настроек пользователя в кэше
}

type LoggerConfig struct {
	LogDir      string `envconfig:"LOG_DIR" default:"./log/sellerdesk"`
	MaxFileSize int64  `envconfig:"LOG_MAX_FILE_SIZE" default:"10485760"` // 10MB в байтах
	TimeFormat  string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02_15-04-05"`
	FilePattern string `envconfig:"LOG_FILE_PATTERN" default:"sellerdesk_%s.log"`
}

// Validate проверяет обязательные для запуска сервиса параметры.
// Вызывается из main: пакеты с тестами не требуют полного окружения.
func (c *Config) Validate() error {
	if c.WebConfig.APIKey == "" {
		return fmt.Errorf("не задан APP_API_KEY")
	}
	if c.DataBaseConfig.Host == "" || c.DataBaseConfig.DBName == "" || c.DataBaseConfig.UserName == "" {
		return fmt.Errorf("не заданы параметры подключения к БД (DBHOST, DBNAME, DBUSER)")
	}
	return nil
}

var File *Config

func init() {
	// Файл .env не обязателен: в проде переменные приходят из окружения
	godotenv.Load()

	File = &Config{}
	err := envconfig.Process("", File)
	if err != nil {
		panic(err)
	}
	fmt.Println("Конфигурация загружена")
}

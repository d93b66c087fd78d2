package models

const (
	// SessionTokenKey ключ токена сессии в хранилище клиента
	SessionTokenKey = "session_token"

	// SessionUserKey ключ JSON-профиля пользователя
	SessionUserKey = "user_data"

	// BookingSnapshotKey последний известный набор статусов бронирований
	BookingSnapshotKey = "booking_statuses"
)

const (
	// DefaultRequestTimeout таймаут одного HTTP запроса к API, в секундах
	DefaultRequestTimeout = 10

	// DefaultItemsCacheTTL время жизни кэша каталога в Redis, в секундах
	DefaultItemsCacheTTL = 5 * 60

	// DefaultWatchInterval интервал опроса бронирований в режиме watch, в секундах
	DefaultWatchInterval = 60

	// MinPasswordLength минимальная длина пароля при регистрации
	MinPasswordLength = 6

	// MaxResponseBytes предел размера ответа API
	MaxResponseBytes = 4 << 20
)

// CategoryAll disables category filtering.
const CategoryAll = "all"

type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
)

// Notification is a user-visible message produced by a controller action.
type Notification struct {
	Level   NotificationLevel
	Title   string
	Message string
}

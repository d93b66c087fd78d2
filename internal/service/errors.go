package service

import (
	"errors"

	"arenda/internal/api"
	"arenda/internal/media"
	"arenda/internal/pricing"
)

// Ошибки проверки форм на клиенте
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrFullNameRequired = errors.New("full name is required")
	ErrInvalidUserType  = errors.New("unknown user type")

	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidCategory  = errors.New("unknown category")
	ErrInvalidPrice     = errors.New("price must be a positive integer")
	ErrInvalidPeriod    = errors.New("unknown rental period")
	ErrInvalidCondition = errors.New("unknown item condition")
	ErrLocationRequired = errors.New("location is required")

	ErrItemNotFound      = errors.New("item not found")
	ErrUploadUnavailable = errors.New("photo upload is not configured")
	ErrExportUnavailable = errors.New("export is not configured")
	ErrSyncUnavailable   = errors.New("google sheets sync is not configured")
)

// UserMessage turns any controller error into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *api.ValidationError
	switch {
	case errors.Is(err, ErrActionPending):
		return "⏳ Запрос уже выполняется, подождите."

	case errors.Is(err, api.ErrInvalidCredentials):
		if msg := api.ServerMessage(err); msg != "" {
			return msg
		}
		return "Проверьте email и пароль"

	case errors.Is(err, api.ErrUnauthorized):
		return "Пожалуйста, войдите в систему"

	case errors.Is(err, pricing.ErrMissingDates):
		return "Выберите даты бронирования"

	case errors.Is(err, pricing.ErrPastDate):
		return "Нельзя бронировать на прошедшую дату"

	case errors.Is(err, pricing.ErrInvalidRange):
		if msg := api.ServerMessage(err); msg != "" {
			return msg
		}
		return "Дата окончания раньше даты начала"

	case errors.As(err, &verr):
		return verr.Message

	case errors.Is(err, api.ErrNetwork):
		return "Не удалось связаться с сервером. Проверьте подключение и попробуйте позже."

	case errors.Is(err, ErrEmailRequired):
		return "Укажите email"
	case errors.Is(err, ErrPasswordRequired):
		return "Укажите пароль"
	case errors.Is(err, ErrPasswordTooShort):
		return "Пароль слишком короткий"
	case errors.Is(err, ErrFullNameRequired):
		return "Укажите имя"
	case errors.Is(err, ErrInvalidUserType):
		return "Неизвестный тип аккаунта"
	case errors.Is(err, ErrTitleRequired):
		return "Укажите название"
	case errors.Is(err, ErrInvalidCategory):
		return "Выберите категорию"
	case errors.Is(err, ErrInvalidPrice):
		return "Цена должна быть целым положительным числом"
	case errors.Is(err, ErrInvalidPeriod):
		return "Неизвестный период аренды"
	case errors.Is(err, ErrInvalidCondition):
		return "Неизвестное состояние вещи"
	case errors.Is(err, ErrLocationRequired):
		return "Укажите адрес"
	case errors.Is(err, ErrItemNotFound):
		return "Объявление не найдено"

	case errors.Is(err, media.ErrEmptyFile):
		return "Файл фотографии пуст"
	case errors.Is(err, media.ErrNotImage):
		return "Файл не является изображением"
	case errors.Is(err, media.ErrTooLarge):
		return "Фотография слишком большая"
	case errors.Is(err, ErrUploadUnavailable):
		return "Загрузка фотографий не настроена"
	case errors.Is(err, ErrExportUnavailable):
		return "Экспорт не настроен"
	case errors.Is(err, ErrSyncUnavailable):
		return "Синхронизация с Google Sheets не настроена"
	}

	return "❌ Произошла ошибка. Попробуйте позже."
}

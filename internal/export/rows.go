// Package export writes the signed-in user's bookings to an XLSX file or a
// Google Sheets tab.
package export

import (
	"fmt"

	"arenda/internal/models"
)

var bookingHeaders = []interface{}{
	"ID", "Вещь", "Адрес", "Начало", "Конец", "Дней", "Сумма, ₽", "Статус", "Владелец", "Создано",
}

func bookingRowValues(b models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.Title,
		b.Location,
		b.StartDate.Format("02.01.2006"),
		b.EndDate.Format("02.01.2006"),
		b.TotalDays,
		int64(b.TotalPrice),
		b.DisplayStatus().Label(),
		b.OwnerName,
		b.CreatedAt,
	}
}

func ownerCaption(user models.User) string {
	if user.FullName == "" {
		return user.Email
	}
	return fmt.Sprintf("%s (%s)", user.FullName, user.Email)
}

func totalSpent(bookings []models.Booking) int64 {
	var sum int64
	for _, b := range bookings {
		if b.DisplayStatus() == models.StatusCancelled {
			continue
		}
		sum += int64(b.TotalPrice)
	}
	return sum
}

package catalog

import "arenda/internal/models"

func decimal(v float64) *models.Decimal {
	d := models.Decimal(v)
	return &d
}

func count(v int) *int {
	return &v
}

// Sample returns a fresh copy of the built-in catalog.
func Sample() []models.Item {
	items := sample()
	out := make([]models.Item, len(items))
	for i, item := range items {
		item.Features = append([]string(nil), item.Features...)
		item.Rules = append([]string(nil), item.Rules...)
		out[i] = item
	}
	return out
}

func sample() []models.Item {
	return []models.Item{
		{
			ID:           1,
			Title:        "Электродрель Bosch",
			Description:  "Профессиональная электродрель Bosch мощностью 800W. Идеально подходит для домашнего ремонта и строительных работ. В комплекте набор свёрл и кейс для хранения.",
			CategoryID:   "tools",
			Price:        500,
			Period:       models.PeriodDay,
			Location:     "Москва, Арбат",
			Rating:       4.8,
			ReviewsCount: 23,
			ImageURL:     "https://images.unsplash.com/photo-1504148455328-c376907d081c?w=400",
			Owner:        "Иван С.",
			OwnerRating:  decimal(4.9),
			OwnerReviews: count(156),
			Condition:    models.ConditionExcellent,
			Features:     []string{"Мощность 800W", "Регулировка скорости", "Реверс", "Кейс в комплекте", "Набор свёрл"},
			Rules:        []string{"Не использовать во влажной среде", "Вернуть в чистом виде", "Залог 2000 ₽"},
		},
		{
			ID:           2,
			Title:        "GoPro Hero 10",
			Description:  "Экшн-камера GoPro Hero 10 с 5K видео. Отлично подходит для съёмки спорта, путешествий и активного отдыха. В комплекте водонепроницаемый бокс и крепления.",
			CategoryID:   "electronics",
			Price:        1500,
			Period:       models.PeriodDay,
			Location:     "Москва, Тверская",
			Rating:       5.0,
			ReviewsCount: 45,
			ImageURL:     "https://images.unsplash.com/photo-1526170375885-4d8ecf77b99f?w=400",
			Owner:        "Анна К.",
			OwnerRating:  decimal(5.0),
			OwnerReviews: count(89),
			Condition:    models.ConditionLikeNew,
			Features:     []string{"5K видео 60fps", "Водонепроницаемый бокс", "Стабилизация HyperSmooth", "Крепления в комплекте", "Карта памяти 128GB"},
			Rules:        []string{"Залог 15000 ₽", "Страховка обязательна", "Вернуть в оригинальной упаковке"},
		},
		{
			ID:           3,
			Title:        "Сноуборд Burton",
			CategoryID:   "sports",
			Price:        800,
			Period:       models.PeriodDay,
			Location:     "Москва, Сокол",
			Rating:       4.9,
			ReviewsCount: 18,
			ImageURL:     "https://images.unsplash.com/photo-1551698618-1dfe5d97d256?w=400",
			Owner:        "Максим Р.",
			Condition:    models.ConditionGood,
		},
		{
			ID:           4,
			Title:        "Палатка 4-местная",
			CategoryID:   "camping",
			Price:        600,
			Period:       models.PeriodDay,
			Location:     "Москва, Строгино",
			Rating:       4.7,
			ReviewsCount: 31,
			ImageURL:     "https://images.unsplash.com/photo-1504280390367-361c6d9f38f4?w=400",
			Owner:        "Дмитрий В.",
			Condition:    models.ConditionExcellent,
		},
		{
			ID:           5,
			Title:        "MacBook Pro 14\"",
			CategoryID:   "electronics",
			Price:        2000,
			Period:       models.PeriodDay,
			Location:     "Москва, Китай-город",
			Rating:       4.9,
			ReviewsCount: 12,
			ImageURL:     "https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=400",
			Owner:        "Ольга М.",
			Condition:    models.ConditionLikeNew,
		},
		{
			ID:           6,
			Title:        "Велосипед горный",
			CategoryID:   "sports",
			Price:        700,
			Period:       models.PeriodDay,
			Location:     "Москва, Парк культуры",
			Rating:       4.6,
			ReviewsCount: 27,
			ImageURL:     "https://images.unsplash.com/photo-1485965120184-e220f721d03e?w=400",
			Owner:        "Сергей Л.",
			Condition:    models.ConditionGood,
		},
	}
}

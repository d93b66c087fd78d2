package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"arenda/internal/models"
	"arenda/internal/pricing"
	"arenda/internal/service"
)

// formatMoney prints whole rubles grouped by thousands: 12 500 ₽.
func formatMoney(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := v < 0
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out) + " ₽"
	}
	return string(out) + " ₽"
}

func printUser(w io.Writer, u models.User) {
	fmt.Fprintf(w, "%s <%s>\n", u.FullName, u.Email)
	fmt.Fprintf(w, "id: %d, тип: %s\n", u.ID, u.UserType)
	if u.Phone != "" {
		fmt.Fprintf(w, "телефон: %s\n", u.Phone)
	}
	if u.Rating != nil {
		reviews := 0
		if u.ReviewsCount != nil {
			reviews = *u.ReviewsCount
		}
		fmt.Fprintf(w, "рейтинг: %.1f (%d отзывов)\n", float64(*u.Rating), reviews)
	}
}

func printItems(w io.Writer, items []models.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Ничего не найдено")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tНазвание\tЦена\tАдрес\tРейтинг")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s/%s\t%s\t%.1f (%d)\n",
			it.ID, it.Title, formatMoney(int64(it.Price)), it.Period.Label(), it.Location, float64(it.Rating), it.ReviewsCount)
	}
	_ = tw.Flush()
}

func printQuote(w io.Writer, item models.Item, q pricing.Quote) {
	fmt.Fprintf(w, "%s: %s/%s\n", item.Title, formatMoney(int64(item.Price)), item.Period.Label())
	if !q.Ready() {
		return
	}
	fmt.Fprintf(w, "%s – %s: %d дн., итого %s\n", q.Start, q.End, q.Days, formatMoney(q.Total))
	if q.Reversed {
		fmt.Fprintln(w, "Внимание: дата окончания раньше даты начала")
	}
}

func printProfile(w io.Writer, page *service.ProfilePage) {
	fmt.Fprintf(w, "%s <%s>\n\n", page.User.FullName, page.User.Email)
	if len(page.Bookings) == 0 {
		fmt.Fprintln(w, "У вас пока нет бронирований")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tВещь\tДаты\tДней\tСумма\tСтатус")
	for _, b := range page.Bookings {
		fmt.Fprintf(tw, "%d\t%s\t%s – %s\t%d\t%s\t%s\n",
			b.ID, b.Title, b.StartDate, b.EndDate, b.TotalDays, formatMoney(int64(b.TotalPrice)), b.Label)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nВсего потрачено: %s\n", formatMoney(page.TotalSpent))
}

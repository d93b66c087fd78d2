package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"arenda/internal/api"
	"arenda/internal/catalog"
	"arenda/internal/logging"
	"arenda/internal/metrics"
	"arenda/internal/models"
	"arenda/internal/service"
	"arenda/internal/worker"
)

func init() {
	register(command{name: "login", summary: "войти по email и паролю", run: runLogin})
	register(command{name: "register", summary: "создать аккаунт", run: runRegister})
	register(command{name: "logout", summary: "выйти из аккаунта", run: runLogout})
	register(command{name: "whoami", summary: "показать текущего пользователя", run: runWhoami})
	register(command{name: "items", summary: "каталог вещей", run: runItems})
	register(command{name: "quote", summary: "рассчитать стоимость аренды", run: runQuote})
	register(command{name: "book", summary: "забронировать вещь", run: runBook})
	register(command{name: "bookings", summary: "мои бронирования", run: runBookings})
	register(command{name: "list-item", summary: "разместить объявление", run: runListItem})
	register(command{name: "export", summary: "выгрузить бронирования в xlsx или Google Sheets", run: runExport})
	register(command{name: "watch", summary: "следить за статусами бронирований", run: runWatch})
}

// lines collects a repeatable flag into a multi-line text field.
type lines []string

func (l *lines) String() string { return strings.Join(*l, "\n") }

func (l *lines) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// fail marks a controller error as already shown to the user.
func fail(err error) error {
	if err == nil {
		return nil
	}
	return reported{err: err}
}

func optionalDate(raw string) (*models.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "пароль")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, err := a.auth.Login(ctx, models.Credentials{Email: *email, Password: *password})
	return fail(err)
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "пароль")
	name := fs.String("name", "", "имя и фамилия")
	phone := fs.String("phone", "", "телефон")
	userType := fs.String("type", string(models.UserTypeRenter), "renter, owner или both")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, err := a.auth.Register(ctx, models.Registration{
		Email:    *email,
		Password: *password,
		FullName: *name,
		Phone:    *phone,
		UserType: models.UserType(*userType),
	})
	return fail(err)
}

func runLogout(ctx context.Context, a *app, args []string) error {
	return fail(a.auth.Logout(ctx))
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	fs := newFlags("whoami")
	verify := fs.Bool("verify", false, "проверить сессию на сервере")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var sess *models.Session
	if *verify {
		var err error
		if sess, err = a.auth.Verify(ctx); err != nil {
			return fail(err)
		}
	} else {
		var ok bool
		if sess, ok = a.auth.Current(ctx); !ok {
			fmt.Fprintln(a.out, "Вы не вошли в аккаунт")
			return nil
		}
	}
	printUser(a.out, sess.User)
	return nil
}

func runItems(ctx context.Context, a *app, args []string) error {
	fs := newFlags("items")
	category := fs.String("category", models.CategoryAll, "категория")
	listCategories := fs.Bool("categories", false, "показать список категорий")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *listCategories {
		for _, c := range catalog.Categories() {
			fmt.Fprintf(a.out, "%-12s %s\n", c.ID, c.Label)
		}
		return nil
	}
	if !catalog.KnownCategory(*category) {
		return fmt.Errorf("unknown category %q", *category)
	}

	page := a.catalog.Load(ctx, *category)
	printItems(a.out, page.Items)
	return nil
}

func runQuote(ctx context.Context, a *app, args []string) error {
	fs := newFlags("quote")
	itemID := fs.Int64("item", 0, "id вещи")
	from := fs.String("from", "", "дата начала, YYYY-MM-DD")
	to := fs.String("to", "", "дата окончания, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	item, start, end, err := selection(ctx, a, *itemID, *from, *to)
	if err != nil {
		return err
	}

	q, err := a.item.Quote(item, start, end)
	printQuote(a.out, item, q)
	if err != nil {
		fmt.Fprintln(a.out, service.UserMessage(err))
	}
	return nil
}

func runBook(ctx context.Context, a *app, args []string) error {
	fs := newFlags("book")
	itemID := fs.Int64("item", 0, "id вещи")
	from := fs.String("from", "", "дата начала, YYYY-MM-DD")
	to := fs.String("to", "", "дата окончания, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	item, start, end, err := selection(ctx, a, *itemID, *from, *to)
	if err != nil {
		return err
	}

	receipt, err := a.item.Book(ctx, item, start, end)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(a.out, "Бронирование #%d, итого %s\n", receipt.BookingID, formatMoney(int64(receipt.TotalPrice)))
	return nil
}

func selection(ctx context.Context, a *app, itemID int64, from, to string) (models.Item, *models.Date, *models.Date, error) {
	if itemID <= 0 {
		return models.Item{}, nil, nil, errors.New("-item is required")
	}
	start, err := optionalDate(from)
	if err != nil {
		return models.Item{}, nil, nil, err
	}
	end, err := optionalDate(to)
	if err != nil {
		return models.Item{}, nil, nil, err
	}
	item, err := a.item.Open(ctx, itemID)
	if err != nil {
		return models.Item{}, nil, nil, fail(err)
	}
	return item, start, end, nil
}

func runBookings(ctx context.Context, a *app, args []string) error {
	page, err := a.profile.Load(ctx)
	if err != nil {
		return fail(err)
	}
	printProfile(a.out, page)
	return nil
}

func runListItem(ctx context.Context, a *app, args []string) error {
	fs := newFlags("list-item")
	var form service.ListingForm
	var features, rules lines
	fs.StringVar(&form.Title, "title", "", "название")
	fs.StringVar(&form.Description, "description", "", "описание")
	fs.StringVar(&form.CategoryID, "category", "", "категория")
	fs.StringVar(&form.Price, "price", "", "цена за период, ₽")
	fs.StringVar(&form.Period, "period", string(models.PeriodDay), "час, день, неделя или месяц")
	fs.StringVar(&form.Location, "location", "", "адрес")
	fs.StringVar(&form.Condition, "condition", string(models.ConditionExcellent), "состояние")
	fs.StringVar(&form.ImageURL, "image-url", "", "ссылка на фото")
	fs.StringVar(&form.PhotoPath, "photo", "", "файл фото для загрузки")
	fs.Var(&features, "feature", "особенность, можно повторять")
	fs.Var(&rules, "rule", "правило аренды, можно повторять")
	if err := fs.Parse(args); err != nil {
		return err
	}
	form.Features = features.String()
	form.Rules = rules.String()

	id, err := a.listing.Submit(ctx, form)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(a.out, "Объявление #%d\n", id)
	return nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := newFlags("export")
	toSheets := fs.Bool("sheets", false, "выгрузить в Google Sheets вместо файла")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *toSheets {
		_, err := a.profile.Sync(ctx)
		return fail(err)
	}
	_, err := a.profile.Export(ctx)
	return fail(err)
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := newFlags("watch")
	interval := fs.Duration("interval", time.Duration(a.cfg.Booking.WatchInterval)*time.Second, "интервал опроса")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *interval <= 0 {
		return errors.New("-interval must be positive")
	}

	if a.cfg.Monitoring.PrometheusEnabled {
		srv := startMetricsServer(a)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	poller := worker.NewPoller("booking-tracker", *interval, worker.BackoffFrom(*interval), func(ctx context.Context) error {
		_, err := a.tracker.Reconcile(ctx)
		return err
	}, logging.Component(a.logger, "worker")).StopOn(func(err error) bool {
		return errors.Is(err, api.ErrUnauthorized)
	})

	if err := poller.Run(ctx); err != nil {
		fmt.Fprintln(a.out, service.UserMessage(err))
		return fail(err)
	}
	a.logger.Info().Msg("Shutdown complete.")
	return nil
}

func startMetricsServer(a *app) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Monitoring.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	a.logger.Info().Str("addr", srv.Addr).Msg("metrics server started")
	return srv
}

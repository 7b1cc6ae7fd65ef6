package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/msrishav-28/medipal-sub002/internal/config"
	"github.com/msrishav-28/medipal-sub002/internal/domain"
	"github.com/msrishav-28/medipal-sub002/internal/notify"
	"github.com/msrishav-28/medipal-sub002/internal/scheduler"
	"github.com/msrishav-28/medipal-sub002/internal/store"
)

// App wires the engine together: store, delivery sink, scheduler, and the
// periodic jobs around them.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	sched   *scheduler.Scheduler
	cron    *cron.Cron
}

// New prepares the application. BOT_TOKEN is optional: without it the engine
// still runs, delivering into an in-process sink (useful for development and
// for frontends that poll lifecycle events).
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	var bot *tgbotapi.BotAPI
	if cfg.BotToken != "" {
		b, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			return nil, err
		}
		b.Debug = false
		bot = b
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

// Run starts the engine and blocks until the context is canceled or a
// shutdown signal arrives.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting medication reminder engine",
		zap.String("http", a.cfg.HTTPAddr),
		zap.Bool("telegram", a.bot != nil),
		zap.Int("window_days", a.cfg.WindowDays),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	var sink notify.Sink
	if a.bot != nil {
		sink = notify.NewTelegramSink(a.bot, repo, a.log)
	} else {
		a.log.Warn("no BOT_TOKEN configured, deliveries stay in-process")
		sink = notify.NewMemorySink(notify.PermissionGranted)
	}

	defaults := domain.DefaultSettings()
	defaults.MaxSnoozes = a.cfg.MaxSnoozes
	defaults.SnoozeMinutes = a.cfg.SnoozeMinutes
	a.sched = scheduler.New(scheduler.Config{
		Window:          time.Duration(a.cfg.WindowDays) * 24 * time.Hour,
		ResponseTimeout: a.cfg.ResponseTimeout,
		Defaults:        defaults,
	}, sink, notify.NoopAnnouncer{}, repo, a.log)
	a.sched.SetTransitionListener(func(ev domain.TransitionEvent) {
		a.log.Info("reminder transition",
			zap.String("reminder", ev.ReminderID.String()),
			zap.String("medication", ev.MedicationID.String()),
			zap.String("from", string(ev.From)),
			zap.String("to", string(ev.To)),
		)
	})

	// Pending timers do not survive a restart; recover by regenerating
	// every active medication from the repository.
	meds, err := repo.GetActiveMedications(ctx)
	if err != nil {
		a.log.Error("load active medications failed", zap.Error(err))
		return err
	}
	if err := a.sched.RescheduleAll(ctx, meds); err != nil {
		a.log.Warn("startup reschedule finished with errors", zap.Error(err))
	}
	a.log.Info("startup recovery done", zap.Int("medications", len(meds)))

	// Roll the materialization window forward once a day.
	a.cron = cron.New()
	_, err = a.cron.AddFunc("5 0 * * *", func() { a.rollWindow() })
	if err != nil {
		return err
	}
	a.cron.Start()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	var updCh tgbotapi.UpdatesChannel
	if a.bot != nil {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updCh = a.bot.GetUpdatesChan(u)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil
		case upd := <-updCh:
			a.handleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.sched != nil {
		a.sched.Stop()
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
}

// rollWindow re-materializes every active medication so the look-ahead
// window keeps covering the next WindowDays.
func (a *App) rollWindow() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	meds, err := a.repo.GetActiveMedications(ctx)
	if err != nil {
		a.log.Error("window roll: load medications failed", zap.Error(err))
		return
	}
	if err := a.sched.RescheduleAll(ctx, meds); err != nil {
		a.log.Warn("window roll finished with errors", zap.Error(err))
	}
	a.log.Info("materialization window rolled", zap.Int("medications", len(meds)))
}

// handleUpdate maps Telegram callback queries onto the action contract.
// Callback data is "<action>:<reminder-id>"; anything else is ignored.
func (a *App) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	cb := upd.CallbackQuery
	if cb == nil {
		return
	}

	action, idStr, found := strings.Cut(cb.Data, ":")
	if !found {
		return
	}
	id, err := domain.ParseReminderID(idStr)
	if err != nil {
		a.log.Debug("callback with malformed reminder id", zap.String("data", cb.Data))
		return
	}

	answer := "Done"
	if err := a.sched.HandleAction(ctx, action, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownReminder):
			answer = "This reminder already finished"
		case errors.Is(err, domain.ErrMaxSnoozeExceeded):
			answer = "Snooze limit reached"
		case errors.Is(err, domain.ErrReminderTerminal):
			answer = "Already answered"
		default:
			a.log.Error("action handling failed",
				zap.String("action", action),
				zap.String("reminder", id.String()),
				zap.Error(err),
			)
			answer = "Something went wrong"
		}
	}
	if _, err := a.bot.Request(tgbotapi.NewCallback(cb.ID, answer)); err != nil {
		a.log.Warn("callback answer failed", zap.Error(err))
	}
}

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"tableflip.dev/desk/pkg/app"
	"tableflip.dev/desk/pkg/logging"
	"tableflip.dev/desk/pkg/session"
	"tableflip.dev/desk/pkg/store"
)

// env is what every command runs against: the configuration, the on-disk
// store and a desk loaded from it.
type env struct {
	settings    *store.Settings
	persistence store.Persistence
	desk        *app.Desk
	logger      *slog.Logger
	logFile     io.Closer
}

// openDesk loads the configuration and store and builds a desk. Synthetic
// arrivals only run when ingest is set; one-shot commands leave it off.
func openDesk(ctx context.Context, ingest bool) (context.Context, *env, error) {
	settings, err := store.LoadConfig()
	if err != nil {
		return ctx, nil, err
	}
	logger, logFile, err := logging.OpenFile(settings.LogPath(), logging.ParseLevel(settings.LogLevel))
	if err != nil {
		return ctx, nil, err
	}
	ctx = logging.ContextWithLogger(ctx, logger)

	e := &env{settings: settings, logger: logger, logFile: logFile}
	p, err := store.Load(settings)
	if err != nil {
		e.Close()
		return ctx, nil, err
	}
	e.persistence = store.WithLogger(p, logger)

	directory, err := settings.Directory()
	if err != nil {
		e.Close()
		return ctx, nil, err
	}
	interval := settings.IngestInterval
	if !ingest {
		interval = -1
	}
	e.desk, err = app.New(ctx, app.Config{
		Persistence: e.persistence,
		Directory:   directory,
		Policy: session.Policy{
			IdleTimeout:   settings.IdleTimeout,
			Throttle:      settings.ActivityThrottle,
			CheckInterval: settings.IdleCheck,
		},
		IngestInterval: interval,
	})
	if err != nil {
		e.Close()
		return ctx, nil, err
	}
	return ctx, e, nil
}

// requireSession restores the persisted session and counts the command as
// activity.
func (e *env) requireSession() error {
	st := e.desk.Restore()
	if st.State != session.Active {
		return fmt.Errorf("%w: run 'desk login' first", app.ErrLoggedOut)
	}
	e.desk.MarkActivity(session.KeyPress)
	return nil
}

func (e *env) Close() {
	if e.desk != nil {
		e.desk.Close()
	}
	if e.logFile != nil {
		_ = e.logFile.Close()
	}
}

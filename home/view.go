package home

import (
	"context"
	"errors"
	"log/slog"

	"mini-todo/clock"
	"mini-todo/models"
)

// View is one mounted instance of the home screen. It owns its scheduler
// and its in-flight requests; build a new View for every mount.
type View struct {
	Guard *Guard
	Items *Items
	Name  *NameEditor

	scheduler *clock.Scheduler
	principal models.Principal
}

// NewView builds a view over backend. onClock receives every greeting/time
// update from Mount until Unmount.
func NewView(backend Backend, c clock.Clock, logger *slog.Logger, onClock func(clock.State)) *View {
	return &View{
		Guard:     NewGuard(backend, logger),
		Items:     NewItems(backend, backend, logger),
		Name:      NewNameEditor(backend, backend, logger),
		scheduler: clock.NewScheduler(c, onClock),
	}
}

// Mount runs the guard and, if a principal is present, starts the clock and
// performs the initial load of settings and items. ErrLoginRequired means
// nothing was started. Load failures are returned joined but leave the view
// mounted.
func (v *View) Mount(ctx context.Context) (models.Principal, error) {
	p, err := v.Guard.Check(ctx)
	if err != nil {
		return models.Principal{}, err
	}
	v.principal = p
	v.scheduler.Start()

	return p, errors.Join(v.Name.Load(ctx), v.Items.Reload(ctx))
}

func (v *View) Principal() models.Principal {
	return v.principal
}

// Unmount stops the clock and cancels outstanding requests.
func (v *View) Unmount() {
	v.scheduler.Stop()
	v.Items.Close()
	v.Name.Close()
}

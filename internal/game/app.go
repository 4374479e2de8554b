package game

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// ViewerSource supplies the viewer position (world units, XZ plane) each tick.
type ViewerSource interface {
	ViewerPosition() mgl32.Vec2
}

// App runs a Session at a fixed cadence.
type App struct {
	session *Session
	viewer  ViewerSource
	limiter *TickLimiter
	log     *log.Logger
}

func NewApp(session *Session, viewer ViewerSource, interval time.Duration, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &App{
		session: session,
		viewer:  viewer,
		limiter: NewTickLimiter(interval),
		log:     logger,
	}
}

func (a *App) Session() *Session { return a.session }

// Run ticks until ctx is done and returns ctx.Err().
func (a *App) Run(ctx context.Context) error {
	a.log.Printf("tick loop started (%v per tick)", a.limiter.Interval())
	defer func() {
		st := a.session.Stats()
		a.log.Printf("tick loop stopped after %d ticks (%d slow, %d resyncs)", st.Ticks, st.SlowTicks, a.limiter.Resyncs())
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.session.Tick(a.viewer.ViewerPosition())
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
	}
}

// Package app bootstraps a simulation run: it assembles the event loop,
// the medium, the two stations and the optional observability adapters
// from configuration, drives the scenario and reports the outcome.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/fstsim/internal/adapters/airtime"
	"github.com/lcalzada-xor/fstsim/internal/adapters/simloop"
	"github.com/lcalzada-xor/fstsim/internal/adapters/storage"
	"github.com/lcalzada-xor/fstsim/internal/adapters/trace"
	"github.com/lcalzada-xor/fstsim/internal/adapters/web"
	"github.com/lcalzada-xor/fstsim/internal/config"
	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/services/device"
	"github.com/lcalzada-xor/fstsim/internal/telemetry"
)

const (
	stationAddr = domain.MacAddr("02:00:00:00:00:01")
	apAddr      = domain.MacAddr("02:00:00:00:00:02")
)

// Application holds the assembled simulation: two multi-band stations on a
// shared medium, plus storage, trace and web server when configured.
type Application struct {
	Config *config.Config
	RunID  string

	Sched  *simloop.Scheduler
	Medium *airtime.Medium

	Station     *device.MultiBandDevice
	AccessPoint *device.MultiBandDevice

	Storage   *storage.SQLiteAdapter
	Trace     *trace.PcapTrace
	WebServer *web.Server

	targetBand domain.BandID
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
		RunID:  uuid.New().String(),
	}
	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	target, err := parseBand(app.Config.Band)
	if err != nil {
		return err
	}
	app.targetBand = target

	app.Sched = simloop.New()
	app.Medium = airtime.New(app.Sched)
	if app.Config.DelayUs > 0 {
		app.Medium.SetDelay(time.Duration(app.Config.DelayUs) * time.Microsecond)
	}

	opts := []device.Option{device.WithRunID(app.RunID)}

	var hub *web.Hub
	if app.Config.Addr != "" {
		hub = web.NewHub()
		opts = append(opts, device.WithPublisher(hub))
	}

	if app.Config.DBPath != "" {
		store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
		if err != nil {
			return fmt.Errorf("opening audit database: %w", err)
		}
		app.Storage = store
		opts = append(opts, device.WithStorage(store))
	}

	if app.Config.PcapPath != "" {
		sink, err := trace.New(app.Config.PcapPath)
		if err != nil {
			return err
		}
		app.Trace = sink
		opts = append(opts, device.WithTrace(sink))
	}

	app.Station = device.New(stationAddr, app.Sched, app.Medium, opts...)
	app.AccessPoint = device.New(apAddr, app.Sched, app.Medium, opts...)

	if hub != nil {
		app.WebServer = web.NewServer(app.Config.Addr,
			[]*device.MultiBandDevice{app.Station, app.AccessPoint}, app.Storage)
		// Both devices stream into the same hub the /ws endpoint serves.
		app.WebServer.Hub = hub
	}

	// Both stations start on the initial band and carry a second stack
	// serving the transfer target.
	initial := domain.Standard80211ad
	targetStd, err := domain.StandardForBand(target)
	if err != nil {
		return err
	}
	if targetStd == initial {
		initial = domain.Standard80211n5GHz
	}

	if err := app.addTechnologies(app.Station, domain.StationClient, initial, targetStd); err != nil {
		return err
	}
	if err := app.addTechnologies(app.AccessPoint, domain.StationCoordinator, initial, targetStd); err != nil {
		return err
	}

	if err := app.Station.Start(); err != nil {
		return err
	}
	return app.AccessPoint.Start()
}

func (app *Application) addTechnologies(d *device.MultiBandDevice, st domain.StationType, standards ...domain.PhyStandard) error {
	for _, std := range standards {
		if err := d.AddTechnology(std, st, true); err != nil {
			return err
		}
	}
	return nil
}

// Run drives the scenario to completion, reports the outcome and then, when
// a server address is configured, serves the status API until ctx ends.
func (app *Application) Run(ctx context.Context) error {
	defer app.close()

	app.scheduleTraffic()

	slog.Info("Starting fast session transfer",
		"run_id", app.RunID,
		"initiator", string(app.Station.Address()),
		"responder", string(app.AccessPoint.Address()),
		"target_band", app.targetBand.String(),
		"llt", app.Config.LLT)

	if err := app.Station.EstablishSession(apAddr, app.targetBand, uint32(app.Config.LLT)); err != nil {
		return err
	}
	app.Sched.Run()

	app.report()

	if app.WebServer != nil {
		return app.WebServer.Run(ctx)
	}
	return nil
}

// scheduleTraffic enqueues periodic best-effort data from the station to
// the access point, so link-loss countdowns keep getting refreshed while
// traffic flows.
func (app *Application) scheduleTraffic() {
	if app.Config.TrafficUs == 0 {
		return
	}
	interval := time.Duration(app.Config.TrafficUs) * time.Microsecond
	// A bounded burst: enough exchanges to exercise the countdown refresh
	// without keeping the event loop alive forever.
	for i := 1; i <= 8; i++ {
		app.Sched.Schedule(time.Duration(i)*interval, func() {
			app.Station.Send(apAddr, domain.ACBestEffort, []byte("payload"))
			app.Station.TransmitNext(domain.ACBestEffort)
		})
	}
}

func (app *Application) report() {
	for _, d := range []*device.MultiBandDevice{app.Station, app.AccessPoint} {
		for peer, sess := range d.Sessions() {
			slog.Info("Final session state",
				"device", string(d.Address()),
				"peer", string(peer),
				"role", sess.Role.String(),
				"state", sess.State.String(),
				"active_standard", d.ActiveStandard().String())
		}
	}
	if app.Storage != nil {
		recs, err := app.Storage.TransitionsForRun(app.RunID)
		if err != nil {
			slog.Error("Reading audit trail failed", "error", err)
			return
		}
		for _, rec := range recs {
			slog.Debug("Transition",
				"t", rec.SimTime.String(),
				"device", string(rec.Device),
				"event", rec.Event,
				"state", rec.State,
				"detail", rec.Detail)
		}
		slog.Info("Audit trail persisted", "run_id", app.RunID, "records", len(recs))
	}
}

func (app *Application) close() {
	if app.Trace != nil {
		if err := app.Trace.Close(); err != nil {
			slog.Error("Closing pcap trace failed", "error", err)
		}
	}
	if app.Storage != nil {
		if err := app.Storage.Close(); err != nil {
			slog.Error("Closing audit database failed", "error", err)
		}
	}
}

func parseBand(name string) (domain.BandID, error) {
	switch name {
	case "2.4GHz":
		return domain.Band2_4GHz, nil
	case "4.9GHz":
		return domain.Band4_9GHz, nil
	case "60GHz":
		return domain.Band60GHz, nil
	default:
		return 0, fmt.Errorf("unknown band %q (want 2.4GHz, 4.9GHz or 60GHz)", name)
	}
}

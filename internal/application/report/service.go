package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ragno-typhojem/libocculus/internal/application/session"
	"github.com/ragno-typhojem/libocculus/internal/catalog"
	"github.com/ragno-typhojem/libocculus/internal/domain"
	"github.com/ragno-typhojem/libocculus/internal/infrastructure/dynamo"
	"github.com/ragno-typhojem/libocculus/internal/pkg/cooldown"
	"github.com/ragno-typhojem/libocculus/internal/pkg/geo"
	"github.com/ragno-typhojem/libocculus/internal/pkg/id"
)

// PointsPerReport is credited to the submitter of every accepted report.
const PointsPerReport = 10

// FallbackNotice is returned when the campus coordinate was substituted.
const FallbackNotice = "Konum alınamadı, varsayılan kampüs konumu kullanıldı"

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type ReportStore interface {
	Record(ctx context.Context, s dynamo.Submission) error
	Latest(ctx context.Context, location string) (*domain.OccupancyReport, error)
}

// Publisher fans accepted reports out to subscribers.
type Publisher interface {
	PublishReport(ctx context.Context, r *domain.OccupancyReport) error
}

// SubmitRequest carries one report. Library reports set Occupancy; cafeteria
// reports set QueueStatus. Position is what the device reported, if anything.
// DeviceID scopes the short position cache to the reporting device.
type SubmitRequest struct {
	Kind           domain.ReportKind   `json:"kind" validate:"required,oneof=library cafeteria"`
	Location       string              `json:"location" validate:"required"`
	Occupancy      *int                `json:"occupancy"`
	QueueStatus    domain.QueueStatus  `json:"queue_status"`
	Position       *domain.Coordinates `json:"position"`
	LocationDenied bool                `json:"location_denied"`
	DeviceID       string              `json:"device_id" validate:"omitempty,max=128"`
}

type SubmitResult struct {
	Report  *domain.OccupancyReport `json:"report"`
	Notice  string                  `json:"notice,omitempty"`
	Session *domain.Session         `json:"session"`
}

type Service interface {
	Submit(ctx context.Context, userID string, req SubmitRequest) (*SubmitResult, error)
	Overview(ctx context.Context) (*domain.Overview, error)
}

type ServiceDeps struct {
	Users     UserStore
	Reports   ReportStore
	Publisher Publisher // optional
	Catalog   *catalog.Catalog
	Geo       *geo.Acquirer
	Cooldown  cooldown.Window
	Now       func() time.Time
}

type service struct {
	users     UserStore
	reports   ReportStore
	publisher Publisher
	catalog   *catalog.Catalog
	geo       *geo.Acquirer
	window    cooldown.Window
	now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Geo == nil {
		deps.Geo = geo.NewAcquirer(0, 0)
	}
	if deps.Cooldown.Period <= 0 {
		deps.Cooldown = cooldown.New(0)
	}
	return &service{
		users:     deps.Users,
		reports:   deps.Reports,
		publisher: deps.Publisher,
		catalog:   deps.Catalog,
		geo:       deps.Geo,
		window:    deps.Cooldown,
		now:       deps.Now,
	}
}

func (s *service) Submit(ctx context.Context, userID string, req SubmitRequest) (*SubmitResult, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Second)
	if last := u.LastSubmit(); !s.window.CanSubmit(last, now) {
		return nil, &domain.CooldownError{Remaining: s.window.Remaining(last, now)}
	}

	loc, occupancy, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	fix := s.geo.Acquire(ctx, positionKey(userID, req.DeviceID), geo.Reported{Position: req.Position, Denied: req.LocationDenied})
	rep := &domain.OccupancyReport{
		ReportID:       id.At(now),
		Kind:           req.Kind,
		Location:       loc.ID,
		Occupancy:      occupancy,
		SubmitterID:    u.UserID,
		SubmitterEmail: u.Email,
		Coordinates:    fix.Coordinates,
		LocationSource: fix.Source,
		CreatedAt:      now,
	}
	if req.Kind == domain.ReportCafeteria {
		rep.QueueStatus = req.QueueStatus
	}

	err = s.reports.Record(ctx, dynamo.Submission{Report: rep, Points: PointsPerReport, Cutoff: s.window.Cutoff(now)})
	if errors.Is(err, domain.ErrCooldownActive) {
		// Lost a race with another submission; report the real remaining time.
		if fresh, gerr := s.users.Get(ctx, userID); gerr == nil {
			return nil, &domain.CooldownError{Remaining: s.window.Remaining(fresh.LastSubmit(), now)}
		}
		return nil, &domain.CooldownError{Remaining: s.window.Period}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	slog.Info("report accepted", "component", "report", "user_id", userID, "location", rep.Location, "occupancy", rep.Occupancy, "location_source", rep.LocationSource)

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, rep); err != nil {
			slog.Warn("could not publish report event", "component", "report", "report_id", rep.ReportID, "err", err)
		}
	}

	res := &SubmitResult{Report: rep}
	if fix.Degraded() {
		res.Notice = FallbackNotice
	}
	fresh, err := s.users.Get(ctx, userID)
	if err != nil {
		// The write succeeded; derive the snapshot locally rather than fail.
		slog.Warn("could not re-read user after report", "component", "report", "user_id", userID, "err", err)
		u.Points += PointsPerReport
		u.TotalContributions++
		u.LastSubmitAt = now.UnixMilli()
		fresh = u
	}
	res.Session = session.Snapshot(fresh, s.window, now)
	return res, nil
}

// positionKey caches fixes per device, so accounts sharing a device within the
// cache age reuse its last position. Without a device id the submitter is used.
func positionKey(userID, deviceID string) string {
	if deviceID != "" {
		return "device#" + deviceID
	}
	return "user#" + userID
}

func (s *service) validate(req SubmitRequest) (domain.Location, int, error) {
	loc, ok := s.catalog.Location(req.Location, req.Kind)
	if !ok {
		return domain.Location{}, 0, fmt.Errorf("unknown %s location %q: %w", req.Kind, req.Location, domain.ErrBadRequest)
	}
	switch req.Kind {
	case domain.ReportLibrary:
		if req.Occupancy == nil || *req.Occupancy < 0 || *req.Occupancy > 100 {
			return domain.Location{}, 0, fmt.Errorf("occupancy must be 0-100: %w", domain.ErrBadRequest)
		}
		return loc, *req.Occupancy, nil
	case domain.ReportCafeteria:
		occ, ok := req.QueueStatus.Occupancy()
		if !ok {
			return domain.Location{}, 0, fmt.Errorf("unknown queue status %q: %w", req.QueueStatus, domain.ErrBadRequest)
		}
		return loc, occ, nil
	}
	return domain.Location{}, 0, fmt.Errorf("unknown report kind %q: %w", req.Kind, domain.ErrBadRequest)
}

func (s *service) Overview(ctx context.Context) (*domain.Overview, error) {
	out := &domain.Overview{Locations: make([]domain.LocationStatus, 0, len(s.catalog.Locations))}
	var library, cafeteria []int
	for _, loc := range s.catalog.Locations {
		latest, err := s.reports.Latest(ctx, loc.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
		}
		out.Locations = append(out.Locations, domain.LocationStatus{Location: loc, Latest: latest})
		if latest == nil {
			continue
		}
		switch loc.Kind {
		case domain.ReportLibrary:
			library = append(library, latest.Occupancy)
		case domain.ReportCafeteria:
			cafeteria = append(cafeteria, latest.Occupancy)
		}
	}
	out.AverageLibrary = average(library)
	out.AverageCafeteria = average(cafeteria)
	return out, nil
}

// average rounds half away from zero; nil when there is nothing to average.
func average(vals []int) *int {
	if len(vals) == 0 {
		return nil
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	avg := int(math.Round(float64(sum) / float64(len(vals))))
	return &avg
}

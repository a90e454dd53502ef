package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ragno-typhojem/libocculus/internal/application/session"
	"github.com/ragno-typhojem/libocculus/internal/catalog"
	"github.com/ragno-typhojem/libocculus/internal/domain"
	"github.com/ragno-typhojem/libocculus/internal/pkg/cooldown"
	"github.com/ragno-typhojem/libocculus/internal/pkg/id"
	"github.com/ragno-typhojem/libocculus/internal/pkg/qrcode"
	"github.com/ragno-typhojem/libocculus/internal/pkg/redeemcode"
)

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type RedemptionStore interface {
	Redeem(ctx context.Context, r *domain.Redemption) error
	Get(ctx context.Context, redemptionID string) (*domain.Redemption, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Redemption, error)
}

// ImageStore keeps rendered QR images and hands out links to them.
type ImageStore interface {
	PutQR(ctx context.Context, redemptionID string, png []byte) (string, error)
}

type RedeemResult struct {
	Redemption *domain.Redemption `json:"redemption"`
	QRPayload  string             `json:"qr_payload"`
	Session    *domain.Session    `json:"session"`
}

// QRImage is either a link to a stored image or the image inlined as a data URI.
type QRImage struct {
	Payload string `json:"payload"`
	URL     string `json:"url"`
}

type Service interface {
	List() []domain.Reward
	Redeem(ctx context.Context, userID, rewardID string) (*RedeemResult, error)
	ListRedemptions(ctx context.Context, userID string) ([]domain.Redemption, error)
	QRCode(ctx context.Context, userID, redemptionID string) (*QRImage, error)
}

type ServiceDeps struct {
	Users       UserStore
	Redemptions RedemptionStore
	Images      ImageStore // optional
	Catalog     *catalog.Catalog
	Cooldown    cooldown.Window
	Now         func() time.Time
	NewCode     func() string
}

type service struct {
	users       UserStore
	redemptions RedemptionStore
	images      ImageStore
	catalog     *catalog.Catalog
	window      cooldown.Window
	now         func() time.Time
	newCode     func() string
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewCode == nil {
		deps.NewCode = redeemcode.Generate
	}
	if deps.Cooldown.Period <= 0 {
		deps.Cooldown = cooldown.New(0)
	}
	return &service{
		users:       deps.Users,
		redemptions: deps.Redemptions,
		images:      deps.Images,
		catalog:     deps.Catalog,
		window:      deps.Cooldown,
		now:         deps.Now,
		newCode:     deps.NewCode,
	}
}

func (s *service) List() []domain.Reward {
	return s.catalog.Rewards
}

func (s *service) Redeem(ctx context.Context, userID, rewardID string) (*RedeemResult, error) {
	rw, ok := s.catalog.Reward(rewardID)
	if !ok {
		return nil, fmt.Errorf("reward %s: %w", rewardID, domain.ErrNotFound)
	}
	if !rw.Available {
		return nil, fmt.Errorf("reward %s: %w", rewardID, domain.ErrRewardUnavailable)
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Points < rw.PointCost {
		return nil, fmt.Errorf("have %d, need %d: %w", u.Points, rw.PointCost, domain.ErrInsufficientPoints)
	}

	now := s.now().UTC().Truncate(time.Second)
	red := &domain.Redemption{
		RedemptionID: id.At(now),
		UserID:       u.UserID,
		Code:         s.newCode(),
		Reward:       rw,
		RedeemedAt:   now,
		ExpiresAt:    now.Add(domain.RedemptionLifetime),
	}
	if err := s.redemptions.Redeem(ctx, red); err != nil {
		if errors.Is(err, domain.ErrInsufficientPoints) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	slog.Info("reward redeemed", "component", "reward", "user_id", userID, "reward_id", rewardID, "redemption_id", red.RedemptionID)

	fresh, err := s.users.Get(ctx, userID)
	if err != nil {
		slog.Warn("could not re-read user after redemption", "component", "reward", "user_id", userID, "err", err)
		u.Points -= rw.PointCost
		fresh = u
	}
	return &RedeemResult{
		Redemption: red,
		QRPayload:  red.QRPayload(),
		Session:    session.Snapshot(fresh, s.window, now),
	}, nil
}

func (s *service) ListRedemptions(ctx context.Context, userID string) ([]domain.Redemption, error) {
	out, err := s.redemptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	if out == nil {
		out = []domain.Redemption{}
	}
	return out, nil
}

// QRCode renders the redemption's QR image. With an image store configured
// the PNG is uploaded and a presigned link returned; otherwise it is inlined.
func (s *service) QRCode(ctx context.Context, userID, redemptionID string) (*QRImage, error) {
	red, err := s.redemptions.Get(ctx, redemptionID)
	if err != nil {
		return nil, err
	}
	if red.UserID != userID {
		return nil, fmt.Errorf("redemption %s: %w", redemptionID, domain.ErrNotFound)
	}
	payload := red.QRPayload()
	img, err := qrcode.PNG(payload)
	if err != nil {
		return nil, err
	}
	if s.images != nil {
		url, err := s.images.PutQR(ctx, red.RedemptionID, img)
		if err == nil {
			return &QRImage{Payload: payload, URL: url}, nil
		}
		slog.Warn("could not store qr image, inlining", "component", "reward", "redemption_id", redemptionID, "err", err)
	}
	return &QRImage{Payload: payload, URL: qrcode.DataURI(img)}, nil
}

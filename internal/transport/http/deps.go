package http

import (
	"github.com/ragno-typhojem/libocculus/internal/application/auth"
	"github.com/ragno-typhojem/libocculus/internal/application/report"
	"github.com/ragno-typhojem/libocculus/internal/application/reward"
	"github.com/ragno-typhojem/libocculus/internal/application/session"
	"github.com/ragno-typhojem/libocculus/internal/catalog"
	"github.com/ragno-typhojem/libocculus/internal/config"
	"github.com/ragno-typhojem/libocculus/internal/infrastructure/dynamo"
	jwtinfra "github.com/ragno-typhojem/libocculus/internal/infrastructure/jwt"
	"github.com/ragno-typhojem/libocculus/internal/pkg/cooldown"
	"github.com/ragno-typhojem/libocculus/internal/pkg/geo"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	AccountRepo      *dynamo.AccountRepo
	VerificationRepo *dynamo.VerificationRepo
	ReportRepo       *dynamo.ReportRepo
	RedemptionRepo   *dynamo.RedemptionRepo
	Attempts         session.AttemptCounter
	OTPSender        auth.OTPSender
	Images           reward.ImageStore // nil when no bucket is configured
	Publisher        report.Publisher  // nil when no topic is configured
	Catalog          *catalog.Catalog
	JWTProvider      *jwtinfra.Provider
}

// Services are the application services behind the HTTP handlers.
type Services struct {
	Auth    auth.Service
	Session session.Service
	Report  report.Service
	Reward  reward.Service
}

// Services builds the application layer on top of deps.
func (d *Deps) Services(cfg *config.Config) Services {
	window := cooldown.New(cooldown.DefaultPeriod)
	return Services{
		Auth: auth.NewService(auth.ServiceDeps{
			Verifications:     d.VerificationRepo,
			Accounts:          d.AccountRepo,
			Sender:            d.OTPSender,
			Signer:            d.JWTProvider,
			Attempts:          d.Attempts,
			Cooldown:          window,
			InstitutionDomain: cfg.InstitutionDomain,
		}),
		Session: session.NewService(session.ServiceDeps{
			Users:             d.UserRepo,
			Credentials:       d.AccountRepo,
			Attempts:          d.Attempts,
			Signer:            d.JWTProvider,
			Cooldown:          window,
			InstitutionDomain: cfg.InstitutionDomain,
		}),
		Report: report.NewService(report.ServiceDeps{
			Users:     d.UserRepo,
			Reports:   d.ReportRepo,
			Publisher: d.Publisher,
			Catalog:   d.Catalog,
			Geo:       geo.NewAcquirer(geo.DefaultTimeout, geo.DefaultMaxAge),
			Cooldown:  window,
		}),
		Reward: reward.NewService(reward.ServiceDeps{
			Users:       d.UserRepo,
			Redemptions: d.RedemptionRepo,
			Images:      d.Images,
			Catalog:     d.Catalog,
			Cooldown:    window,
		}),
	}
}

package echoapi

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/billing"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// subscriptionMiddleware guards premium endpoints: the caller must hold an
// active (or trialing) subscription. Admins and tutors pass through.
func subscriptionMiddleware(svc *billing.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin || claims.IsTutor {
				return next(ctx)
			}

			sub, err := svc.GetForUser(ctx.Request().Context(), claims.Subject)
			if err != nil {
				return errors.Wrap(err, "getting subscription")
			}
			if !sub.IsActive() {
				return errSubRequired
			}
			return next(ctx)
		}
	}
}

type (
	visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	// visitorRegistry hands out one token bucket per client IP and evicts
	// buckets not seen for a while.
	visitorRegistry struct {
		mu       sync.Mutex
		visitors map[string]*visitor
		limit    rate.Limit
		burst    int
	}
)

func newVisitorRegistry(conf core.RateLimitConfig) *visitorRegistry {
	reg := &visitorRegistry{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(conf.RequestsPerMinute) / 60),
		burst:    conf.Burst,
	}
	go reg.cleanup()
	return reg
}

func (reg *visitorRegistry) allow(ip string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	v, ok := reg.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(reg.limit, reg.burst)}
		reg.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

func (reg *visitorRegistry) cleanup() {
	for range time.Tick(time.Minute) {
		reg.mu.Lock()
		for ip, v := range reg.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(reg.visitors, ip)
			}
		}
		reg.mu.Unlock()
	}
}

// rateLimitMiddleware throttles un-authed form endpoints per client IP.
func rateLimitMiddleware(reg *visitorRegistry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !reg.allow(ctx.RealIP()) {
				return errRateLimited
			}
			return next(ctx)
		}
	}
}

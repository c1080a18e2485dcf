package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jmoris/STPark-sub000/internal/apierror"
	"github.com/jmoris/STPark-sub000/internal/dto"
	"github.com/jmoris/STPark-sub000/internal/model"
	"github.com/jmoris/STPark-sub000/internal/repository"
	"github.com/jmoris/STPark-sub000/internal/tenancy"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteService computes the amount owed for a session at a given instant.
// Quotes are pure reads: identical inputs produce identical amounts and no
// state is touched.
type QuoteService interface {
	QuoteSession(ctx context.Context, session *model.ParkingSession, endedAt time.Time, discountCode string) (*dto.QuoteResponse, error)
}

type quoteService struct {
	pricing  repository.PricingRepository
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewQuoteService creates the quote engine. rdb may be nil (unit-test mode) —
// tariffs are then read straight from the repository.
func NewQuoteService(pricing repository.PricingRepository, rdb *redis.Client, cacheTTL time.Duration) QuoteService {
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}
	return &quoteService{pricing: pricing, rdb: rdb, cacheTTL: cacheTTL}
}

func (s *quoteService) QuoteSession(ctx context.Context, session *model.ParkingSession, endedAt time.Time, discountCode string) (*dto.QuoteResponse, error) {
	minutes, err := elapsedMinutes(session.StartedAt, endedAt)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profilesForSector(ctx, session, endedAt)
	if err != nil {
		return nil, apierror.Persistence("failed to load tariff catalog")
	}

	rule, tiers, err := matchRule(profiles, endedAt, minutes)
	if err != nil {
		return nil, err
	}

	gross := computeGross(rule, tiers, minutes)

	discount, err := s.resolveDiscount(ctx, discountCode, endedAt)
	if err != nil {
		return nil, err
	}
	final := gross
	var appliedCode *string
	if discount != nil {
		final = applyDiscount(discount, gross, minutes)
		c := discount.Code
		appliedCode = &c
	}

	return &dto.QuoteResponse{
		SessionID:      session.ID.String(),
		RuleID:         rule.ID.String(),
		RuleType:       rule.RuleType,
		ElapsedMinutes: minutes,
		GrossAmount:    gross,
		DiscountCode:   appliedCode,
		DiscountAmount: gross.Sub(final),
		Amount:         final,
		QuotedAt:       endedAt.UTC().Format(time.RFC3339),
	}, nil
}

// profilesForSector reads the sector's active profiles through a short-TTL
// Redis cache. The matcher re-checks every time window itself, so a stale
// cache entry can only delay a catalog change, never pick the wrong rule
// within a cached set.
func (s *quoteService) profilesForSector(ctx context.Context, session *model.ParkingSession, at time.Time) ([]model.PricingProfile, error) {
	if s.rdb == nil {
		return s.pricing.ActiveProfilesForSector(ctx, session.SectorID, at)
	}

	key := fmt.Sprintf("tariffs:%s:%s", tenancy.FromContext(ctx), session.SectorID)
	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var profiles []model.PricingProfile
		if jsonErr := json.Unmarshal([]byte(cached), &profiles); jsonErr == nil {
			return profiles, nil
		}
	}

	profiles, err := s.pricing.ActiveProfilesForSector(ctx, session.SectorID, at)
	if err != nil {
		return nil, err
	}
	if data, jsonErr := json.Marshal(profiles); jsonErr == nil {
		if setErr := s.rdb.Set(ctx, key, data, s.cacheTTL).Err(); setErr != nil {
			log.Warn().Err(setErr).Str("key", key).Msg("tariff cache write failed")
		}
	}
	return profiles, nil
}

// resolveDiscount picks at most one discount. An explicit code pins the
// discount and must be valid; otherwise the best-priority valid discount wins.
func (s *quoteService) resolveDiscount(ctx context.Context, code string, at time.Time) (*model.SessionDiscount, error) {
	if code != "" {
		d, err := s.pricing.FindDiscountByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.New(apierror.CodeValidation, "unknown or expired discount code")
			}
			return nil, apierror.Persistence("failed to load discount")
		}
		if !discountValidAt(d, at) {
			return nil, apierror.New(apierror.CodeValidation, "unknown or expired discount code")
		}
		return d, nil
	}

	discounts, err := s.pricing.ActiveDiscounts(ctx, at)
	if err != nil {
		return nil, apierror.Persistence("failed to load discount catalog")
	}
	for i := range discounts {
		if discountValidAt(&discounts[i], at) {
			return &discounts[i], nil
		}
	}
	return nil, nil
}

// ── Rule matcher ──────────────────────────────────────────────────────────────

// matchRule selects the single rule governing (t, minutes) from the given
// profiles. Survivors are ordered by priority ascending, then id ascending, so
// selection is deterministic. Returns the GRADUATED sibling tiers of the
// winner's profile when the winner is graduated.
func matchRule(profiles []model.PricingProfile, t time.Time, minutes int) (*model.PricingRule, []model.PricingRule, error) {
	var candidates []model.PricingRule
	graduatedByProfile := make(map[string][]model.PricingRule)

	for _, p := range profiles {
		if !p.IsActive || !profileWindowContains(&p, t) {
			continue
		}
		for _, r := range p.Rules {
			if !r.IsActive || !ruleAppliesAt(&r, t) {
				continue
			}
			if r.RuleType == model.RuleGraduated {
				graduatedByProfile[p.ID.String()] = append(graduatedByProfile[p.ID.String()], r)
			}
			if durationContains(&r, minutes) {
				candidates = append(candidates, r)
			}
		}
	}

	if len(candidates) == 0 {
		return nil, nil, apierror.NoApplicableRule("no pricing rule covers this sector, time and duration")
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})
	winner := candidates[0]

	var tiers []model.PricingRule
	if winner.RuleType == model.RuleGraduated {
		tiers = graduatedByProfile[winner.ProfileID.String()]
		sort.Slice(tiers, func(i, j int) bool {
			return tiers[i].MinDurationMinutes < tiers[j].MinDurationMinutes
		})
	}
	return &winner, tiers, nil
}

func profileWindowContains(p *model.PricingProfile, t time.Time) bool {
	if p.ActiveFrom != nil && t.Before(*p.ActiveFrom) {
		return false
	}
	if p.ActiveTo != nil && t.After(*p.ActiveTo) {
		return false
	}
	return true
}

func ruleAppliesAt(r *model.PricingRule, t time.Time) bool {
	if len(r.DaysOfWeek) > 0 {
		day := int(t.Weekday())
		found := false
		for _, d := range r.DaysOfWeek {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return timeWindowContains(r.StartTime, r.EndTime, t)
}

// timeWindowContains checks the rule's time-of-day window. Windows are
// half-open [start, end) so adjacent day/night rules never overlap, and a
// window may wrap past midnight (22:00–06:00).
func timeWindowContains(start, end *string, t time.Time) bool {
	if start == nil || end == nil {
		return true
	}
	from, okFrom := parseClock(*start)
	to, okTo := parseClock(*end)
	if !okFrom || !okTo {
		return false
	}
	tod := t.Hour()*60 + t.Minute()
	if from <= to {
		return tod >= from && tod < to
	}
	// wraps past midnight
	return tod >= from || tod < to
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, bool) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func durationContains(r *model.PricingRule, minutes int) bool {
	if minutes < r.MinDurationMinutes {
		return false
	}
	return r.MaxDurationMinutes == nil || minutes <= *r.MaxDurationMinutes
}

// elapsedMinutes rounds the stay up to whole minutes — a started minute is a
// billed minute.
func elapsedMinutes(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, apierror.New(apierror.CodeValidation, "ended_at precedes session start")
	}
	return int(math.Ceil(end.Sub(start).Minutes())), nil
}

// ── Quote calculator ──────────────────────────────────────────────────────────

// computeGross turns the matched rule and the elapsed minutes into a gross
// amount, before any discount. The rule's daily cap clamps the result.
func computeGross(rule *model.PricingRule, tiers []model.PricingRule, minutes int) decimal.Decimal {
	var amount decimal.Decimal

	switch rule.RuleType {
	case model.RuleFixed:
		amount = deref(rule.FixedPrice)

	case model.RuleTimeBased:
		ppm := deref(rule.PricePerMin)
		amount = ppm.Mul(decimal.NewFromInt(int64(minutes)))
		if rule.MinAmount != nil {
			amount = applyMinAmount(rule, ppm, minutes, amount)
		}

	case model.RuleGraduated:
		for _, tier := range tiers {
			if minutes <= tier.MinDurationMinutes {
				continue
			}
			inTier := minutes - tier.MinDurationMinutes
			if tier.MaxDurationMinutes != nil && minutes >= *tier.MaxDurationMinutes {
				inTier = *tier.MaxDurationMinutes - tier.MinDurationMinutes
			}
			amount = amount.Add(deref(tier.PricePerMin).Mul(decimal.NewFromInt(int64(inTier))))
		}
	}

	if rule.DailyMaxAmount != nil && amount.GreaterThan(*rule.DailyMaxAmount) {
		amount = *rule.DailyMaxAmount
	}
	return amount
}

// applyMinAmount applies the rule's floor. With min_amount_is_base the floor
// buys the first minutes at the rule's own rate and the per-minute charge only
// covers the remainder; otherwise it is a plain floor on the whole amount.
func applyMinAmount(rule *model.PricingRule, ppm decimal.Decimal, minutes int, amount decimal.Decimal) decimal.Decimal {
	minAmount := *rule.MinAmount
	if !rule.MinAmountIsBase {
		if amount.LessThan(minAmount) {
			return minAmount
		}
		return amount
	}

	if ppm.IsZero() {
		return minAmount
	}
	baseMinutes := minAmount.Div(ppm).IntPart()
	if int64(minutes) <= baseMinutes {
		return minAmount
	}
	extra := decimal.NewFromInt(int64(minutes) - baseMinutes)
	return minAmount.Add(ppm.Mul(extra))
}

// ── Discount resolver ─────────────────────────────────────────────────────────

func discountValidAt(d *model.SessionDiscount, at time.Time) bool {
	if d == nil || !d.IsActive {
		return false
	}
	if d.ValidFrom != nil && at.Before(*d.ValidFrom) {
		return false
	}
	if d.ValidUntil != nil && at.After(*d.ValidUntil) {
		return false
	}
	return true
}

// applyDiscount reduces the gross amount by one discount, honoring the
// discount's own cap (max_amount) and post-discount floor (min_amount).
// The result is never negative.
func applyDiscount(d *model.SessionDiscount, gross decimal.Decimal, minutes int) decimal.Decimal {
	var final decimal.Decimal

	switch d.DiscountType {
	case model.DiscountAmount:
		cut := deref(d.Value)
		if d.MaxAmount != nil && cut.GreaterThan(*d.MaxAmount) {
			cut = *d.MaxAmount
		}
		final = gross.Sub(cut)

	case model.DiscountPercentage:
		cut := gross.Mul(deref(d.Value)).Div(decimal.NewFromInt(100))
		if d.MaxAmount != nil && cut.GreaterThan(*d.MaxAmount) {
			cut = *d.MaxAmount
		}
		final = gross.Sub(cut)

	case model.DiscountPricingProfile:
		// Alternate per-minute rate replaces the matched rule's amount entirely.
		final = deref(d.MinuteValue).Mul(decimal.NewFromInt(int64(minutes)))

	default:
		final = gross
	}

	if d.MinAmount != nil && final.LessThan(*d.MinAmount) {
		final = *d.MinAmount
	}
	if final.IsNegative() {
		final = decimal.Zero
	}
	return final
}

func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

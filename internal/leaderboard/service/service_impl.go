package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	achievementdomain "github.com/smallbiznis/scoreline/internal/achievement/domain"
	allocationdomain "github.com/smallbiznis/scoreline/internal/allocation/domain"
	"github.com/smallbiznis/scoreline/internal/cache"
	"github.com/smallbiznis/scoreline/internal/clock"
	leaderboarddomain "github.com/smallbiznis/scoreline/internal/leaderboard/domain"
	obsmetrics "github.com/smallbiznis/scoreline/internal/observability/metrics"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	"github.com/smallbiznis/scoreline/internal/scoringrules"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var hundred = decimal.NewFromInt(100)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	rules   *scoringrules.Holder
	cache   cache.LeaderboardCache
	metrics *obsmetrics.EngineMetrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Rules   *scoringrules.Holder
	Cache   cache.LeaderboardCache
	Metrics *obsmetrics.EngineMetrics `optional:"true"`
}

func NewService(p ServiceParam) leaderboarddomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("leaderboard.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		rules:   p.Rules,
		cache:   p.Cache,
		metrics: p.Metrics,
	}
}

// standing carries one user's aggregates while a snapshot is being built.
type standing struct {
	userID        snowflake.ID
	totalTarget   decimal.Decimal
	totalAchieved decimal.Decimal
	pct           decimal.Decimal
	trend         string
	streakDays    int
}

// ComputeSnapshot aggregates the period's derived targets against the
// achievement ledger and appends one immutable snapshot with ranked
// rows. Prior snapshots are never touched.
func (s *Service) ComputeSnapshot(ctx context.Context, periodID snowflake.ID, rulesVersion string) (*leaderboarddomain.Snapshot, error) {
	started := time.Now()
	rules := s.rules.Get()
	if rulesVersion == "" {
		rulesVersion = rules.Version
	}

	var snapshot leaderboarddomain.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var period perioddomain.Period
		if err := tx.Where("id = ?", periodID).Limit(1).Find(&period).Error; err != nil {
			return err
		}
		if period.ID == 0 {
			return perioddomain.ErrPeriodNotFound
		}

		var targets []allocationdomain.UserWeekTarget
		if err := tx.Where("period_id = ?", periodID).Find(&targets).Error; err != nil {
			return err
		}
		if len(targets) == 0 {
			return leaderboarddomain.ErrNotComputed
		}

		var weeks []perioddomain.Week
		if err := tx.Where("period_id = ?", periodID).Order("seq ASC").Find(&weeks).Error; err != nil {
			return err
		}
		periodStart := weeks[0].StartDate
		periodEnd := weeks[len(weeks)-1].EndDate

		var achievements []achievementdomain.Achievement
		if err := tx.
			Where("shop_id = ? AND achieved_on >= ? AND achieved_on <= ?", period.ShopID, periodStart, periodEnd).
			Find(&achievements).Error; err != nil {
			return err
		}

		priorPct, err := s.loadPriorStandings(ctx, tx, periodID)
		if err != nil {
			return err
		}

		standings := buildStandings(targets, achievements, priorPct, rules.TrendEpsilon, periodStart)

		snapshot = leaderboarddomain.Snapshot{
			ID:           s.genID.Generate(),
			PeriodID:     periodID,
			RulesVersion: rulesVersion,
			ComputedAt:   s.clock.Now(),
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}

		rows := make([]leaderboarddomain.Row, 0, len(standings))
		for i, st := range standings {
			rows = append(rows, leaderboarddomain.Row{
				ID:             s.genID.Generate(),
				SnapshotID:     snapshot.ID,
				UserID:         st.userID,
				Rank:           i + 1,
				Score:          st.totalAchieved,
				AchievementPct: st.pct,
				Trend:          st.trend,
				StreakDays:     st.streakDays,
			})
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveSnapshot("error", time.Since(started))
		return nil, err
	}

	s.cache.Invalidate(ctx, periodID)
	s.metrics.ObserveSnapshot("ok", time.Since(started))
	s.log.Info("leaderboard snapshot computed",
		zap.String("period_id", periodID.String()),
		zap.String("snapshot_id", snapshot.ID.String()),
		zap.String("rules_version", rulesVersion),
	)
	return &snapshot, nil
}

func (s *Service) GetRows(ctx context.Context, snapshotID snowflake.ID) ([]leaderboarddomain.Row, error) {
	var snapshot leaderboarddomain.Snapshot
	if err := s.db.WithContext(ctx).Where("id = ?", snapshotID).Limit(1).Find(&snapshot).Error; err != nil {
		return nil, err
	}
	if snapshot.ID == 0 {
		return nil, leaderboarddomain.ErrSnapshotNotFound
	}
	var rows []leaderboarddomain.Row
	err := s.db.WithContext(ctx).Where("snapshot_id = ?", snapshotID).
		// rank is reserved on MySQL 8, so order through a quoted identifier.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "rank"}}).
		Find(&rows).Error
	return rows, err
}

func (s *Service) ListSnapshots(ctx context.Context, periodID snowflake.ID) ([]leaderboarddomain.Snapshot, error) {
	var snapshots []leaderboarddomain.Snapshot
	err := s.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("computed_at DESC").
		Find(&snapshots).Error
	return snapshots, err
}

func (s *Service) Current(ctx context.Context, periodID snowflake.ID) (*leaderboarddomain.Snapshot, []leaderboarddomain.Row, error) {
	if cached, ok := s.cache.GetCurrent(ctx, periodID); ok {
		return &cached.Snapshot, cached.Rows, nil
	}

	var snapshot leaderboarddomain.Snapshot
	if err := s.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("computed_at DESC").
		Limit(1).
		Find(&snapshot).Error; err != nil {
		return nil, nil, err
	}
	if snapshot.ID == 0 {
		return nil, nil, leaderboarddomain.ErrNotComputed
	}
	rows, err := s.GetRows(ctx, snapshot.ID)
	if err != nil {
		return nil, nil, err
	}

	s.cache.SetCurrent(ctx, periodID, cache.CurrentLeaderboard{
		Snapshot: snapshot,
		Rows:     rows,
	}, s.rules.Get().LeaderboardCacheTTL)
	return &snapshot, rows, nil
}

// loadPriorStandings returns achievement_pct per user from the most
// recent earlier snapshot of the period, used for trend comparison.
func (s *Service) loadPriorStandings(ctx context.Context, tx *gorm.DB, periodID snowflake.ID) (map[snowflake.ID]decimal.Decimal, error) {
	var prior leaderboarddomain.Snapshot
	if err := tx.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("computed_at DESC").
		Limit(1).
		Find(&prior).Error; err != nil {
		return nil, err
	}
	if prior.ID == 0 {
		return nil, nil
	}
	var rows []leaderboarddomain.Row
	if err := tx.WithContext(ctx).Where("snapshot_id = ?", prior.ID).Find(&rows).Error; err != nil {
		return nil, err
	}
	priorPct := make(map[snowflake.ID]decimal.Decimal, len(rows))
	for _, row := range rows {
		priorPct[row.UserID] = row.AchievementPct
	}
	return priorPct, nil
}

// buildStandings aggregates targets and achievements per user, scores
// them, and returns the ranked order: achievement_pct desc, score desc,
// then ascending user id so ranks are a strict 1..n sequence.
func buildStandings(
	targets []allocationdomain.UserWeekTarget,
	achievements []achievementdomain.Achievement,
	priorPct map[snowflake.ID]decimal.Decimal,
	trendEpsilon float64,
	periodStart time.Time,
) []standing {
	byUser := make(map[snowflake.ID]*standing)
	get := func(userID snowflake.ID) *standing {
		st, ok := byUser[userID]
		if !ok {
			st = &standing{userID: userID, trend: leaderboarddomain.TrendFlat}
			byUser[userID] = st
		}
		return st
	}

	for _, target := range targets {
		st := get(target.UserID)
		st.totalTarget = st.totalTarget.Add(target.Amount)
	}

	days := make(map[snowflake.ID]map[time.Time]struct{})
	for _, achievement := range achievements {
		st := get(achievement.UserID)
		st.totalAchieved = st.totalAchieved.Add(achievement.Value)

		day := dateOnly(achievement.AchievedOn)
		if days[achievement.UserID] == nil {
			days[achievement.UserID] = make(map[time.Time]struct{})
		}
		days[achievement.UserID][day] = struct{}{}
	}

	epsilon := decimal.NewFromFloat(trendEpsilon)
	for _, st := range byUser {
		// Zero-target users score pct 0 rather than dividing by zero.
		if st.totalTarget.IsPositive() {
			st.pct = st.totalAchieved.Div(st.totalTarget).Mul(hundred).Round(2)
		}
		st.totalAchieved = st.totalAchieved.Round(2)

		if prior, ok := priorPct[st.userID]; ok {
			switch {
			case st.pct.Sub(prior).GreaterThan(epsilon):
				st.trend = leaderboarddomain.TrendUp
			case prior.Sub(st.pct).GreaterThan(epsilon):
				st.trend = leaderboarddomain.TrendDown
			}
		}

		st.streakDays = streakDays(days[st.userID], periodStart)
	}

	standings := make([]standing, 0, len(byUser))
	for _, st := range byUser {
		standings = append(standings, *st)
	}
	sort.Slice(standings, func(i, j int) bool {
		if !standings[i].pct.Equal(standings[j].pct) {
			return standings[i].pct.GreaterThan(standings[j].pct)
		}
		if !standings[i].totalAchieved.Equal(standings[j].totalAchieved) {
			return standings[i].totalAchieved.GreaterThan(standings[j].totalAchieved)
		}
		return standings[i].userID < standings[j].userID
	})
	return standings
}

// streakDays counts consecutive calendar days with at least one
// achievement, walking backward from the most recent achievement day.
// The count stops at the first gap or the period start.
func streakDays(days map[time.Time]struct{}, periodStart time.Time) int {
	if len(days) == 0 {
		return 0
	}
	var latest time.Time
	for day := range days {
		if day.After(latest) {
			latest = day
		}
	}
	start := dateOnly(periodStart)

	count := 0
	for day := latest; !day.Before(start); day = day.AddDate(0, 0, -1) {
		if _, ok := days[day]; !ok {
			break
		}
		count++
	}
	return count
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

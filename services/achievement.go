package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quitjourney/quitjourney/models"
	"github.com/quitjourney/quitjourney/utils"
)

// Trigger categories. Each names the event that makes its rules worth re-evaluating.
const (
	TriggerCheckIn     = "checkin"
	TriggerTimeBased   = "time_based"
	TriggerHealthBased = "health_based"
)

// Fact names referenced by unlock rules.
const (
	FactStreak            = "streak"
	FactTotalCheckIns     = "totalCheckins"
	FactDaysSinceQuit     = "daysSinceQuit"
	FactMoneySaved        = "moneySaved"
	FactCigarettesAvoided = "cigarettesAvoided"
)

// Facts is the data payload a trigger carries into rule evaluation.
type Facts struct {
	Streak            int
	TotalCheckIns     int64
	DaysSinceQuit     int
	MoneySaved        float64
	CigarettesAvoided int
}

func (f Facts) value(fact string) float64 {
	switch fact {
	case FactStreak:
		return float64(f.Streak)
	case FactTotalCheckIns:
		return float64(f.TotalCheckIns)
	case FactDaysSinceQuit:
		return float64(f.DaysSinceQuit)
	case FactMoneySaved:
		return f.MoneySaved
	case FactCigarettesAvoided:
		return float64(f.CigarettesAvoided)
	default:
		return 0
	}
}

// UnlockRule maps a threshold on one fact to an achievement key.
type UnlockRule struct {
	Key       string
	Trigger   string
	Fact      string
	Threshold float64
}

// unlockRules is the single declarative rule table. The check-in streak and
// days-since-quit thresholds overlap numerically (7, 30) but read different
// facts: a user can check in daily yet have reset their quit date.
var unlockRules = []UnlockRule{
	{Key: "check_in_streak_7", Trigger: TriggerCheckIn, Fact: FactStreak, Threshold: 7},
	{Key: "check_in_streak_30", Trigger: TriggerCheckIn, Fact: FactStreak, Threshold: 30},
	{Key: "total_checkins_100", Trigger: TriggerCheckIn, Fact: FactTotalCheckIns, Threshold: 100},

	{Key: "first_day", Trigger: TriggerTimeBased, Fact: FactDaysSinceQuit, Threshold: 1},
	{Key: "one_week", Trigger: TriggerTimeBased, Fact: FactDaysSinceQuit, Threshold: 7},
	{Key: "half_month", Trigger: TriggerTimeBased, Fact: FactDaysSinceQuit, Threshold: 15},
	{Key: "one_month", Trigger: TriggerTimeBased, Fact: FactDaysSinceQuit, Threshold: 30},
	{Key: "three_months", Trigger: TriggerTimeBased, Fact: FactDaysSinceQuit, Threshold: 90},
	{Key: "half_year", Trigger: TriggerTimeBased, Fact: FactDaysSinceQuit, Threshold: 180},
	{Key: "one_year", Trigger: TriggerTimeBased, Fact: FactDaysSinceQuit, Threshold: 365},

	{Key: "money_saved_100", Trigger: TriggerHealthBased, Fact: FactMoneySaved, Threshold: 100},
	{Key: "money_saved_1000", Trigger: TriggerHealthBased, Fact: FactMoneySaved, Threshold: 1000},
	{Key: "cigarettes_avoided_100", Trigger: TriggerHealthBased, Fact: FactCigarettesAvoided, Threshold: 100},
	{Key: "cigarettes_avoided_1000", Trigger: TriggerHealthBased, Fact: FactCigarettesAvoided, Threshold: 1000},
}

// AchievementService evaluates the unlock rule table and records unlocks.
type AchievementService struct {
	db *gorm.DB
}

// NewAchievementService creates a new service instance.
func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{db: db}
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *AchievementService) WithTx(tx *gorm.DB) *AchievementService {
	return &AchievementService{db: tx}
}

// Evaluate runs every rule of the trigger category against the facts and
// unlocks the qualifying achievements the user does not own yet. Returns only
// the achievements newly unlocked by this call, in rule-table order.
func (s *AchievementService) Evaluate(userID uint, trigger string, facts Facts) ([]models.UserAchievement, error) {
	var unlocked []models.UserAchievement
	for _, rule := range unlockRules {
		if rule.Trigger != trigger {
			continue
		}
		value := facts.value(rule.Fact)
		if value < rule.Threshold {
			continue
		}
		ua, err := s.unlock(userID, rule, value)
		if err != nil {
			return unlocked, err
		}
		if ua != nil {
			unlocked = append(unlocked, *ua)
		}
	}
	return unlocked, nil
}

// unlock records one achievement for the user. Already-unlocked achievements
// are a no-op, including under concurrent evaluation where the unique index
// on (user_id, achievement_id) is the final arbiter.
func (s *AchievementService) unlock(userID uint, rule UnlockRule, value float64) (*models.UserAchievement, error) {
	var def models.Achievement
	err := s.db.Where("`key` = ? AND is_active = ?", rule.Key, true).First(&def).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rule key %q", ErrMissingDefinition, rule.Key)
		}
		return nil, err
	}

	var existing int64
	if err := s.db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", userID, def.ID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, nil
	}

	ua := models.UserAchievement{
		UserID:        userID,
		AchievementID: def.ID,
		UnlockedAt:    time.Now(),
	}
	ua.SetProgress(models.AchievementProgress{Fact: rule.Fact, Value: value, Threshold: rule.Threshold})

	if err := s.db.Create(&ua).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, nil
		}
		return nil, err
	}
	ua.Achievement = def
	return &ua, nil
}

// Unlocked returns the user's achievements, newest first.
func (s *AchievementService) Unlocked(userID uint) ([]models.UserAchievement, error) {
	var list []models.UserAchievement
	err := s.db.Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&list).Error
	return list, err
}

// Catalog returns all active achievement definitions.
func (s *AchievementService) Catalog() ([]models.Achievement, error) {
	var list []models.Achievement
	err := s.db.Where("is_active = ?", true).Order("id ASC").Find(&list).Error
	return list, err
}

// Stats summarizes a user's unlocks: total count, earned points, per-category counts.
func (s *AchievementService) Stats(userID uint) (total int64, points int64, byCategory map[string]int64, err error) {
	byCategory = map[string]int64{}

	if err = s.db.Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return
	}

	var list []models.UserAchievement
	if err = s.db.Preload("Achievement").Where("user_id = ?", userID).Find(&list).Error; err != nil {
		return
	}
	for _, ua := range list {
		points += int64(ua.Achievement.Points)
		if ua.Achievement.Category != "" {
			byCategory[ua.Achievement.Category]++
		}
	}
	return
}

// LogEvaluationError reports a rule-engine failure without surfacing it to the
// caller's client. Missing definitions are configuration bugs, not user errors.
func LogEvaluationError(trigger string, userID uint, err error) {
	if err == nil || utils.Sugar == nil {
		return
	}
	utils.Sugar.Errorf("achievement evaluation failed trigger=%s user=%d: %v", trigger, userID, err)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint")
}

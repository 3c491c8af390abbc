package services

import (
	"gorm.io/gorm"

	"github.com/quitjourney/quitjourney/models"
)

type achievementSeed struct {
	Key      string
	Name     map[string]string
	Desc     map[string]string
	Icon     string
	Category string
	Points   int
}

var defaultAchievements = []achievementSeed{
	{"check_in_streak_7", i18n("7-Day Check-In Streak", "连续打卡7天"), i18n("Checked in 7 days in a row", "连续7天打卡"), "calendar-week", "checkin", 30},
	{"check_in_streak_30", i18n("30-Day Check-In Streak", "连续打卡30天"), i18n("Checked in 30 days in a row", "连续30天打卡"), "calendar-month", "checkin", 100},
	{"total_checkins_100", i18n("Centurion", "百日打卡"), i18n("Checked in 100 times in total", "累计打卡100次"), "medal", "checkin", 150},
	{"first_day", i18n("First Day", "第一天"), i18n("One full day smoke-free", "戒烟满1天"), "sunrise", "time_based", 10},
	{"one_week", i18n("One Week", "一周"), i18n("One week smoke-free", "戒烟满1周"), "calendar-week", "time_based", 30},
	{"half_month", i18n("Half a Month", "半个月"), i18n("15 days smoke-free", "戒烟满15天"), "calendar", "time_based", 50},
	{"one_month", i18n("One Month", "一个月"), i18n("One month smoke-free", "戒烟满1个月"), "calendar-month", "time_based", 100},
	{"three_months", i18n("Three Months", "三个月"), i18n("Three months smoke-free", "戒烟满3个月"), "leaf", "time_based", 200},
	{"half_year", i18n("Half a Year", "半年"), i18n("Six months smoke-free", "戒烟满半年"), "tree", "time_based", 350},
	{"one_year", i18n("One Year", "一年"), i18n("A full year smoke-free", "戒烟满1年"), "trophy", "time_based", 500},
	{"money_saved_100", i18n("Saver", "小有积蓄"), i18n("Saved 100 in your currency", "节省100元"), "piggy-bank", "health_based", 50},
	{"money_saved_1000", i18n("Big Saver", "理财达人"), i18n("Saved 1000 in your currency", "节省1000元"), "vault", "health_based", 200},
	{"cigarettes_avoided_100", i18n("100 Avoided", "远离100支"), i18n("Avoided 100 cigarettes", "少抽100支烟"), "shield", "health_based", 50},
	{"cigarettes_avoided_1000", i18n("1000 Avoided", "远离1000支"), i18n("Avoided 1000 cigarettes", "少抽1000支烟"), "shield-star", "health_based", 200},
}

func i18n(en, zh string) map[string]string {
	return map[string]string{"en": en, "zh-CN": zh}
}

// SeedAchievements installs the default achievement definitions at boot.
// Existing rows are left untouched so operators can localize or deactivate them.
func SeedAchievements(db *gorm.DB) error {
	for _, seed := range defaultAchievements {
		def := models.Achievement{
			Key:             seed.Key,
			NameI18n:        models.EncodeI18n(seed.Name),
			DescriptionI18n: models.EncodeI18n(seed.Desc),
			IconName:        seed.Icon,
			Category:        seed.Category,
			Points:          seed.Points,
			IsActive:        true,
		}
		if err := db.Where("`key` = ?", seed.Key).FirstOrCreate(&def).Error; err != nil {
			return err
		}
	}
	return nil
}

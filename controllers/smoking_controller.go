package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quitjourney/quitjourney/models"
	"github.com/quitjourney/quitjourney/utils"
)

// SmokingRecordController handles smoking-event logging endpoints. Recording a
// slip never punishes the user, the data only feeds trigger analysis.
type SmokingRecordController struct {
	db *gorm.DB
}

// NewSmokingRecordController creates a new controller instance.
func NewSmokingRecordController(db *gorm.DB) *SmokingRecordController {
	return &SmokingRecordController{db: db}
}

type smokingRecordRequest struct {
	Timestamp        *time.Time       `json:"timestamp"`
	CigarettesSmoked int              `json:"cigarettes_smoked"`
	TriggerTags      []string         `json:"trigger_tags"`
	Notes            string           `json:"notes"`
	Location         *models.Location `json:"location"`
}

// Create logs a smoking event.
func (s *SmokingRecordController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}

	var req smokingRecordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request body")
		return
	}
	if req.CigarettesSmoked < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40031, "cigarettes_smoked must be at least 1")
		return
	}

	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	record := models.SmokingRecord{
		UserID:           userID,
		Timestamp:        ts,
		CigarettesSmoked: req.CigarettesSmoked,
		Notes:            utils.Sanitize(strings.TrimSpace(req.Notes)),
	}
	record.SetTags(normalizeTags(req.TriggerTags))
	record.SetPlace(req.Location)

	if err := s.db.Create(&record).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to save record")
		return
	}

	utils.InvalidateByPrefix("cache:stats:user:" + fmt.Sprint(userID))
	utils.Created(ctx, smokingRecordPayload(&record))
}

// List returns the user's smoking records, newest first, optionally bounded by a time range.
func (s *SmokingRecordController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}

	page := parsePositiveInt(ctx.Query("page"), 1, 10000)
	limit := parsePositiveInt(ctx.Query("limit"), 20, 100)

	q := s.db.Model(&models.SmokingRecord{}).Where("user_id = ?", userID)
	if start := ctx.Query("start"); start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40034, "start must be RFC3339")
			return
		}
		q = q.Where("timestamp >= ?", t)
	}
	if end := ctx.Query("end"); end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40035, "end must be RFC3339")
			return
		}
		q = q.Where("timestamp <= ?", t)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to count records")
		return
	}

	var records []models.SmokingRecord
	if err := q.Order("timestamp DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&records).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to list records")
		return
	}

	items := make([]gin.H, 0, len(records))
	for i := range records {
		items = append(items, smokingRecordPayload(&records[i]))
	}

	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// Get returns a single record. Owner only.
func (s *SmokingRecordController) Get(ctx *gin.Context) {
	record, ok := s.loadOwned(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, smokingRecordPayload(record))
}

// Update replaces the mutable fields of a record. Owner only.
func (s *SmokingRecordController) Update(ctx *gin.Context) {
	record, ok := s.loadOwned(ctx)
	if !ok {
		return
	}

	var req smokingRecordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request body")
		return
	}
	if req.CigarettesSmoked < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40031, "cigarettes_smoked must be at least 1")
		return
	}

	if req.Timestamp != nil {
		record.Timestamp = *req.Timestamp
	}
	record.CigarettesSmoked = req.CigarettesSmoked
	record.Notes = utils.Sanitize(strings.TrimSpace(req.Notes))
	record.SetTags(normalizeTags(req.TriggerTags))
	record.SetPlace(req.Location)

	if err := s.db.Save(record).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to update record")
		return
	}

	utils.InvalidateByPrefix("cache:stats:user:" + fmt.Sprint(record.UserID))
	utils.Success(ctx, smokingRecordPayload(record))
}

// Delete removes a record. Owner only.
func (s *SmokingRecordController) Delete(ctx *gin.Context) {
	record, ok := s.loadOwned(ctx)
	if !ok {
		return
	}

	if err := s.db.Delete(record).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to delete record")
		return
	}

	utils.InvalidateByPrefix("cache:stats:user:" + fmt.Sprint(record.UserID))
	utils.Success(ctx, gin.H{"deleted": record.ID})
}

// Stats summarizes smoking events over a window: totals, daily average and
// how often each trigger tag appears.
func (s *SmokingRecordController) Stats(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}

	days := parsePositiveInt(ctx.Query("days"), 30, 365)
	since := time.Now().AddDate(0, 0, -days)

	var records []models.SmokingRecord
	if err := s.db.Where("user_id = ? AND timestamp >= ?", userID, since).
		Order("timestamp ASC").Find(&records).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to load records")
		return
	}

	totalCigarettes := 0
	tagFrequency := map[string]int{}
	for i := range records {
		totalCigarettes += records[i].CigarettesSmoked
		for _, tag := range records[i].Tags() {
			tagFrequency[tag]++
		}
	}

	utils.Success(ctx, gin.H{
		"period_days":       days,
		"total_events":      len(records),
		"total_cigarettes":  totalCigarettes,
		"average_per_day":   float64(totalCigarettes) / float64(days),
		"trigger_frequency": tagFrequency,
	})
}

// loadOwned fetches the record in the id path param and enforces ownership.
func (s *SmokingRecordController) loadOwned(ctx *gin.Context) (*models.SmokingRecord, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return nil, false
	}

	var record models.SmokingRecord
	if err := s.db.First(&record, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "record not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to load record")
		return nil, false
	}
	if record.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40330, "not your record")
		return nil, false
	}
	return &record, true
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func smokingRecordPayload(record *models.SmokingRecord) gin.H {
	return gin.H{
		"id":                record.ID,
		"timestamp":         record.Timestamp,
		"cigarettes_smoked": record.CigarettesSmoked,
		"trigger_tags":      record.Tags(),
		"notes":             record.Notes,
		"location":          record.Place(),
		"created_at":        record.CreatedAt,
	}
}

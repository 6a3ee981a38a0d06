package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/SaiCharanMahadevan/HealthTrackerApp/logger"
	"github.com/SaiCharanMahadevan/HealthTrackerApp/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrInvalidInput is a caller error: nothing is persisted.
	ErrInvalidInput = errors.New("entry text or image is required")
	// ErrEntryNotFound and ErrForbidden are distinct here; the transport layer
	// maps both to the same non-revealing denial response.
	ErrEntryNotFound = errors.New("entry not found")
	ErrForbidden     = errors.New("entry belongs to another user")
)

// Interpreter is what the orchestrator needs from the structured-output
// interpreter; tests substitute a canned fake.
type Interpreter interface {
	Interpret(ctx context.Context, text string, image []byte, imageMIME string) InterpretationResult
}

// EntryService owns the end-to-end create/update/delete lifecycle of a health
// entry. No entry is observable before its single consistent write.
type EntryService struct {
	db          *gorm.DB
	interpreter Interpreter
	enricher    *EnrichmentService
}

func NewEntryService(db *gorm.DB, interpreter Interpreter, enricher *EnrichmentService) *EntryService {
	return &EntryService{db: db, interpreter: interpreter, enricher: enricher}
}

// Create interprets the submission and writes exactly one record. A failed or
// unreliable interpretation degrades the classification to "unknown" but never
// drops the user's data.
func (s *EntryService) Create(ctx context.Context, userID uint, text string, image []byte, imageMIME, targetDate, imageURL string) (*models.HealthEntry, error) {
	if text == "" && len(image) == 0 {
		return nil, ErrInvalidInput
	}

	res := s.interpreter.Interpret(ctx, text, image, imageMIME)

	entry := models.HealthEntry{
		UserID:    userID,
		EntryText: text,
		Timestamp: resolveTimestamp(targetDate),
		ImageURL:  imageURL,
	}
	s.applyInterpretation(ctx, &entry, res)

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	logger.Info("health entry created", "entry_id", entry.ID, "user_id", userID, "type", entry.EntryType)
	return &entry, nil
}

// Update re-runs the full interpretation pipeline over the new text and
// overwrites the derived fields in one write. An empty newText is a no-op.
func (s *EntryService) Update(ctx context.Context, entryID, userID uint, newText string) (*models.HealthEntry, error) {
	entry, err := s.Get(ctx, entryID, userID)
	if err != nil {
		return nil, err
	}
	if newText == "" {
		return entry, nil
	}

	res := s.interpreter.Interpret(ctx, newText, nil, "")

	entry.EntryText = newText
	entry.Timestamp = time.Now().UTC()
	s.applyInterpretation(ctx, entry, res)

	updates := map[string]any{
		"entry_text":  entry.EntryText,
		"timestamp":   entry.Timestamp,
		"entry_type":  entry.EntryType,
		"value":       entry.Value,
		"unit":        entry.Unit,
		"parsed_data": entry.ParsedData,
	}
	if err := s.db.WithContext(ctx).Model(entry).Updates(updates).Error; err != nil {
		return nil, err
	}
	logger.Info("health entry updated", "entry_id", entry.ID, "type", entry.EntryType)
	return entry, nil
}

func (s *EntryService) Delete(ctx context.Context, entryID, userID uint) error {
	var entry models.HealthEntry
	if err := s.db.WithContext(ctx).First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	if entry.UserID != userID {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Delete(&entry).Error
}

func (s *EntryService) Get(ctx context.Context, entryID, userID uint) (*models.HealthEntry, error) {
	var entry models.HealthEntry
	if err := s.db.WithContext(ctx).First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.UserID != userID {
		return nil, ErrForbidden
	}
	return &entry, nil
}

func (s *EntryService) List(ctx context.Context, userID uint, offset, limit int) ([]models.HealthEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var entries []models.HealthEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// applyInterpretation maps a tagged interpretation onto the entry fields. The
// "error" and failed branches both land on "unknown" with the diagnostics kept
// in parsed_data, so storage never sees an error type.
func (s *EntryService) applyInterpretation(ctx context.Context, entry *models.HealthEntry, res InterpretationResult) {
	entry.Value = nil
	entry.Unit = ""

	switch res.Kind {
	case ResultClassified:
		entry.EntryType = res.EntryType
		if res.EntryType == models.EntryTypeFood && res.Food != nil {
			items, totals := s.enricher.EnrichAndTotal(ctx, res.Food.Items)
			payload := *res.Food
			payload.Items = items
			payload.TotalCalories = f64(totals.TotalCalories)
			payload.TotalProteinG = f64(totals.TotalProteinG)
			payload.TotalCarbsG = f64(totals.TotalCarbsG)
			payload.TotalFatG = f64(totals.TotalFatG)
			entry.ParsedData = mustJSON(payload)
			return
		}
		entry.Value = res.Value
		entry.Unit = res.Unit
		entry.ParsedData = mustJSON(res.Raw)

	case ResultUnknown:
		entry.EntryType = models.EntryTypeUnknown
		entry.ParsedData = mustJSON(map[string]any{
			"type":               models.EntryTypeUnknown,
			"diagnostic_payload": res.Raw,
		})

	case ResultFailed:
		entry.EntryType = models.EntryTypeUnknown
		entry.ParsedData = mustJSON(map[string]any{
			"type":               models.EntryTypeUnknown,
			"error":              string(res.FailReason),
			"diagnostic_payload": res.RawText,
		})
	}
}

// resolveTimestamp turns an optional YYYY-MM-DD target date into that date's
// midnight UTC. A malformed date is a recorded warning, not a hard failure.
func resolveTimestamp(targetDate string) time.Time {
	if targetDate == "" {
		return time.Now().UTC()
	}
	d, err := time.ParseInLocation("2006-01-02", targetDate, time.UTC)
	if err != nil {
		logger.Warn("malformed target date, using current time", "target_date", targetDate)
		return time.Now().UTC()
	}
	return d
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		// only reachable with unmarshalable values, which the pipeline never
		// produces; keep the write path alive regardless
		logger.Error("failed to marshal parsed data", "err", err)
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(b)
}

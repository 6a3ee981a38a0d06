package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/SaiCharanMahadevan/HealthTrackerApp/models"

	"gorm.io/gorm"
)

var (
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidDateRange = errors.New("start_date cannot be after end_date")
)

// ReportService computes read-only summaries over persisted entries. All date
// arithmetic happens on the caller's local calendar: tzOffsetMinutes is the
// value subtracted from UTC to obtain local time (the JS getTimezoneOffset
// convention), so local = UTC - offset.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

type DailySummary struct {
	Date          string   `json:"date"`
	TotalCalories float64  `json:"total_calories"`
	TotalProteinG float64  `json:"total_protein_g"`
	TotalCarbsG   float64  `json:"total_carbs_g"`
	TotalFatG     float64  `json:"total_fat_g"`
	TotalSteps    float64  `json:"total_steps"`
	LastWeightKg  *float64 `json:"last_weight_kg"`
}

type WeeklySummary struct {
	WeekStartDate    string   `json:"week_start_date"`
	WeekEndDate      string   `json:"week_end_date"`
	AvgDailyCalories *float64 `json:"avg_daily_calories"`
	AvgDailyProteinG *float64 `json:"avg_daily_protein_g"`
	AvgDailyCarbsG   *float64 `json:"avg_daily_carbs_g"`
	AvgDailyFatG     *float64 `json:"avg_daily_fat_g"`
	AvgWeightKg      *float64 `json:"avg_weight_kg"`
	AvgDailySteps    *float64 `json:"avg_daily_steps"`
	TotalSteps       float64  `json:"total_steps"`
}

type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

type TrendReport struct {
	StartDate    string       `json:"start_date"`
	EndDate      string       `json:"end_date"`
	WeightTrends []TrendPoint `json:"weight_trends"`
	StepsTrends  []TrendPoint `json:"steps_trends"`
}

const dateLayout = "2006-01-02"

// DailySummary aggregates one local calendar day. An empty date means the
// caller's current local day.
func (s *ReportService) DailySummary(ctx context.Context, userID uint, date string, tzOffsetMinutes int) (*DailySummary, error) {
	day, err := resolveLocalDate(date, tzOffsetMinutes)
	if err != nil {
		return nil, err
	}
	start := localDayStartUTC(day, tzOffsetMinutes)
	end := start.Add(24 * time.Hour)

	entries, err := s.entriesInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	out := &DailySummary{Date: day.Format(dateLayout)}
	var lastWeightAt time.Time
	for _, e := range entries {
		switch e.EntryType {
		case models.EntryTypeFood:
			cal, protein, carbs, fat, ok := foodTotalsFromJSON(e.ParsedData)
			if !ok {
				continue
			}
			out.TotalCalories += cal
			out.TotalProteinG += protein
			out.TotalCarbsG += carbs
			out.TotalFatG += fat
		case models.EntryTypeSteps:
			if e.Value != nil {
				out.TotalSteps += *e.Value
			}
		case models.EntryTypeWeight:
			if e.Value != nil && isKilogramUnit(e.Unit) && !e.Timestamp.Before(lastWeightAt) {
				lastWeightAt = e.Timestamp
				v := *e.Value
				out.LastWeightKg = &v
			}
		}
	}
	return out, nil
}

// WeeklySummary aggregates the Monday-Sunday local week containing the given
// date. Per-day averages divide by the count of distinct local days that
// contributed at least one valid entry, never by a flat 7; a week without any
// contribution yields null averages rather than a division by zero.
func (s *ReportService) WeeklySummary(ctx context.Context, userID uint, date string, tzOffsetMinutes int) (*WeeklySummary, error) {
	day, err := resolveLocalDate(date, tzOffsetMinutes)
	if err != nil {
		return nil, err
	}
	weekStart := startOfISOWeek(day)
	start := localDayStartUTC(weekStart, tzOffsetMinutes)
	end := start.Add(7 * 24 * time.Hour)

	entries, err := s.entriesInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	out := &WeeklySummary{
		WeekStartDate: weekStart.Format(dateLayout),
		WeekEndDate:   weekStart.AddDate(0, 0, 6).Format(dateLayout),
	}

	var calSum, proteinSum, carbsSum, fatSum, weightSum float64
	var weightCount int
	foodDays := map[string]struct{}{}
	stepDays := map[string]struct{}{}

	for _, e := range entries {
		localKey := localDate(e.Timestamp, tzOffsetMinutes).Format(dateLayout)
		switch e.EntryType {
		case models.EntryTypeFood:
			cal, protein, carbs, fat, ok := foodTotalsFromJSON(e.ParsedData)
			if !ok {
				continue
			}
			calSum += cal
			proteinSum += protein
			carbsSum += carbs
			fatSum += fat
			foodDays[localKey] = struct{}{}
		case models.EntryTypeSteps:
			if e.Value != nil {
				out.TotalSteps += *e.Value
				stepDays[localKey] = struct{}{}
			}
		case models.EntryTypeWeight:
			if e.Value != nil && isKilogramUnit(e.Unit) {
				weightSum += *e.Value
				weightCount++
			}
		}
	}

	if n := len(foodDays); n > 0 {
		out.AvgDailyCalories = f64(calSum / float64(n))
		out.AvgDailyProteinG = f64(proteinSum / float64(n))
		out.AvgDailyCarbsG = f64(carbsSum / float64(n))
		out.AvgDailyFatG = f64(fatSum / float64(n))
	}
	if n := len(stepDays); n > 0 {
		out.AvgDailySteps = f64(out.TotalSteps / float64(n))
	}
	if weightCount > 0 {
		out.AvgWeightKg = f64(weightSum / float64(weightCount))
	}
	return out, nil
}

// Trends returns weight points as raw entries and steps summed per local
// calendar day. Grouping uses local dates so one local day never splits across
// two UTC buckets.
func (s *ReportService) Trends(ctx context.Context, userID uint, startDate, endDate string, tzOffsetMinutes int) (*TrendReport, error) {
	end, err := resolveLocalDate(endDate, tzOffsetMinutes)
	if err != nil {
		return nil, err
	}
	start := end.AddDate(0, 0, -29)
	if startDate != "" {
		if start, err = resolveLocalDate(startDate, tzOffsetMinutes); err != nil {
			return nil, err
		}
	}
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}

	from := localDayStartUTC(start, tzOffsetMinutes)
	to := localDayStartUTC(end, tzOffsetMinutes).Add(24 * time.Hour)

	entries, err := s.entriesInRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	out := &TrendReport{
		StartDate:    start.Format(dateLayout),
		EndDate:      end.Format(dateLayout),
		WeightTrends: []TrendPoint{},
		StepsTrends:  []TrendPoint{},
	}

	stepsByDay := map[string]float64{}
	for _, e := range entries {
		switch e.EntryType {
		case models.EntryTypeWeight:
			if e.Value != nil {
				out.WeightTrends = append(out.WeightTrends, TrendPoint{Timestamp: e.Timestamp, Value: *e.Value})
			}
		case models.EntryTypeSteps:
			if e.Value != nil {
				key := localDate(e.Timestamp, tzOffsetMinutes).Format(dateLayout)
				stepsByDay[key] += *e.Value
			}
		}
	}

	sort.Slice(out.WeightTrends, func(i, j int) bool {
		return out.WeightTrends[i].Timestamp.Before(out.WeightTrends[j].Timestamp)
	})

	days := make([]string, 0, len(stepsByDay))
	for d := range stepsByDay {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		day, _ := time.ParseInLocation(dateLayout, d, time.UTC)
		out.StepsTrends = append(out.StepsTrends, TrendPoint{
			Timestamp: localDayStartUTC(day, tzOffsetMinutes),
			Value:     stepsByDay[d],
		})
	}
	return out, nil
}

func (s *ReportService) entriesInRange(ctx context.Context, userID uint, from, to time.Time) ([]models.HealthEntry, error) {
	var entries []models.HealthEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, from, to).
		Order("timestamp ASC").
		Find(&entries).Error
	return entries, err
}

// localDayStartUTC is the UTC instant at which the given local calendar day
// begins: local = UTC - offset, so local midnight sits at UTC midnight + offset.
func localDayStartUTC(day time.Time, tzOffsetMinutes int) time.Time {
	utcMidnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return utcMidnight.Add(time.Duration(tzOffsetMinutes) * time.Minute)
}

// localDate converts a UTC instant to the caller's local calendar date.
func localDate(t time.Time, tzOffsetMinutes int) time.Time {
	local := t.UTC().Add(-time.Duration(tzOffsetMinutes) * time.Minute)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func resolveLocalDate(date string, tzOffsetMinutes int) (time.Time, error) {
	if date == "" {
		return localDate(time.Now().UTC(), tzOffsetMinutes), nil
	}
	d, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// startOfISOWeek returns the Monday of the week containing the given day.
func startOfISOWeek(day time.Time) time.Time {
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7
	}
	return day.AddDate(0, 0, -(wd - 1))
}

func isKilogramUnit(unit string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(unit)), "kg")
}

// foodTotalsFromJSON pulls the recomputed totals back out of a persisted food
// payload. Non-numeric or missing values read as zero; ok is false when the
// payload carries no numeric total_calories at all, so the entry is skipped
// from averages without aborting iteration.
func foodTotalsFromJSON(data []byte) (cal, protein, carbs, fat float64, ok bool) {
	if len(data) == 0 {
		return 0, 0, 0, 0, false
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, 0, 0, 0, false
	}
	cal, ok = payload["total_calories"].(float64)
	if !ok {
		return 0, 0, 0, 0, false
	}
	protein, _ = payload["total_protein_g"].(float64)
	carbs, _ = payload["total_carbs_g"].(float64)
	fat, _ = payload["total_fat_g"].(float64)
	return cal, protein, carbs, fat, true
}

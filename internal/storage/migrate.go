package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"neuropulse/internal/models"
	"neuropulse/internal/reward"
)

// Known document shapes:
//
//	v1: bare array of records
//	v2: {redirections, totalRedirections[, selectedCategory, rewardSettings]}
//	v3: v2 plus schemaVersion
const (
	versionArray   = 1
	versionObject  = 2
	versionCurrent = models.SchemaVersion
)

type Report struct {
	FromVersion int
	Dropped     []string
}

type document struct {
	SchemaVersion     *int              `json:"schemaVersion"`
	Redirections      []json.RawMessage `json:"redirections"`
	TotalRedirections *int              `json:"totalRedirections"`
	SelectedCategory  string            `json:"selectedCategory"`
	RewardSettings    json.RawMessage   `json:"rewardSettings"`
}

// Decode reads any known document shape and upgrades it to the current
// AppState. Records that fail validation are dropped and listed in the report.
func Decode(raw []byte, thresholds models.RewardThresholds) (models.AppState, Report, error) {
	state := models.NewAppState(thresholds)
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return state, Report{}, errors.New("empty document")
	}

	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return state, Report{}, fmt.Errorf("decode v1 document: %w", err)
		}
		report := Report{FromVersion: versionArray}
		state.Redirections, report.Dropped = decodeRecords(items)
		state.TotalRedirections = countRedirected(state.Redirections)
		return state, report, nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return state, Report{}, fmt.Errorf("decode document: %w", err)
	}
	report := Report{FromVersion: versionObject}
	if doc.SchemaVersion != nil {
		report.FromVersion = *doc.SchemaVersion
	}
	if report.FromVersion > versionCurrent {
		return state, report, fmt.Errorf("document version %d is newer than %d", report.FromVersion, versionCurrent)
	}

	state.Redirections, report.Dropped = decodeRecords(doc.Redirections)
	if doc.TotalRedirections != nil && *doc.TotalRedirections >= 0 {
		state.TotalRedirections = *doc.TotalRedirections
	} else {
		state.TotalRedirections = countRedirected(state.Redirections)
	}
	if doc.SelectedCategory != "" {
		if c, err := models.ParseCategory(doc.SelectedCategory); err == nil {
			state.SelectedCategory = c
		} else {
			report.Dropped = append(report.Dropped, "selectedCategory: "+err.Error())
		}
	}
	if len(doc.RewardSettings) > 0 && string(doc.RewardSettings) != "null" {
		var settings models.RewardThresholds
		if err := json.Unmarshal(doc.RewardSettings, &settings); err == nil && reward.Validate(settings) == nil {
			state.RewardSettings = settings
		} else {
			report.Dropped = append(report.Dropped, "rewardSettings: invalid, using defaults")
		}
	}
	return state, report, nil
}

func decodeRecords(items []json.RawMessage) ([]models.ImpulseRecord, []string) {
	records := make([]models.ImpulseRecord, 0, len(items))
	var dropped []string
	for i, item := range items {
		var rec models.ImpulseRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			dropped = append(dropped, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		if err := validateStored(rec); err != nil {
			dropped = append(dropped, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

// validateStored is looser than the check on new records: early clients did
// not require a name.
func validateStored(rec models.ImpulseRecord) error {
	if rec.ID == "" {
		return errors.New("missing id")
	}
	if _, err := time.Parse(models.DateLayout, rec.Date); err != nil {
		return fmt.Errorf("bad date %q", rec.Date)
	}
	if rec.Strength < 1 || rec.Strength > 10 {
		return fmt.Errorf("strength %d out of range", rec.Strength)
	}
	if !rec.Category.Valid() {
		return fmt.Errorf("bad category %q", rec.Category)
	}
	return nil
}

func countRedirected(records []models.ImpulseRecord) int {
	n := 0
	for _, r := range records {
		if r.Redirected {
			n++
		}
	}
	return n
}

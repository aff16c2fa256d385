package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mossburn/tally/internal/common"
	"github.com/mossburn/tally/internal/model"
)

// GetVendorAnalysis retrieves a cached analysis by normalized vendor key.
// Returns common.ErrNotFound when no entry exists.
func (s *SQLiteStorage) GetVendorAnalysis(ctx context.Context, vendorKey string) (*model.VendorAnalysis, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(vendorKey, "vendorKey"); err != nil {
		return nil, err
	}

	var analysis model.VendorAnalysis
	var unethical, ethical, weights, categories, information, citations string

	err := s.db.QueryRowContext(ctx, `
		SELECT vendor_key, unethical_practices, ethical_practices, practice_weights,
		       practice_categories, information, citations, last_updated
		FROM vendor_analyses
		WHERE vendor_key = ?
	`, vendorKey).Scan(
		&analysis.VendorKey,
		&unethical,
		&ethical,
		&weights,
		&categories,
		&information,
		&citations,
		&analysis.LastUpdated,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor analysis: %w", err)
	}

	if err := unmarshalAnalysisFields(&analysis, unethical, ethical, weights, categories, information, citations); err != nil {
		return nil, err
	}

	return &analysis, nil
}

// SaveVendorAnalysis upserts a cache entry, replacing it wholesale. The
// enrichment provider's latest view always wins; no field-level merging.
func (s *SQLiteStorage) SaveVendorAnalysis(ctx context.Context, analysis *model.VendorAnalysis) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateVendorAnalysis(analysis); err != nil {
		return err
	}

	if analysis.LastUpdated.IsZero() {
		analysis.LastUpdated = time.Now()
	}

	fields, err := marshalAnalysisFields(analysis)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vendor_analyses (
			vendor_key, unethical_practices, ethical_practices, practice_weights,
			practice_categories, information, citations, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(vendor_key) DO UPDATE SET
			unethical_practices = excluded.unethical_practices,
			ethical_practices = excluded.ethical_practices,
			practice_weights = excluded.practice_weights,
			practice_categories = excluded.practice_categories,
			information = excluded.information,
			citations = excluded.citations,
			last_updated = excluded.last_updated
	`, analysis.VendorKey, fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], analysis.LastUpdated)

	if err != nil {
		return fmt.Errorf("failed to save vendor analysis: %w", err)
	}
	return nil
}

// GetAllVendorAnalyses returns every cache entry, most recently updated first.
func (s *SQLiteStorage) GetAllVendorAnalyses(ctx context.Context) ([]model.VendorAnalysis, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT vendor_key, unethical_practices, ethical_practices, practice_weights,
		       practice_categories, information, citations, last_updated
		FROM vendor_analyses
		ORDER BY last_updated DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var analyses []model.VendorAnalysis
	for rows.Next() {
		var analysis model.VendorAnalysis
		var unethical, ethical, weights, categories, information, citations string

		if err := rows.Scan(
			&analysis.VendorKey,
			&unethical,
			&ethical,
			&weights,
			&categories,
			&information,
			&citations,
			&analysis.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vendor analysis: %w", err)
		}

		if err := unmarshalAnalysisFields(&analysis, unethical, ethical, weights, categories, information, citations); err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}

	return analyses, rows.Err()
}

func marshalAnalysisFields(analysis *model.VendorAnalysis) ([6]string, error) {
	var out [6]string
	values := []any{
		analysis.UnethicalPractices,
		analysis.EthicalPractices,
		analysis.PracticeWeights,
		analysis.PracticeCategories,
		analysis.Information,
		analysis.Citations,
	}
	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("failed to marshal analysis field: %w", err)
		}
		out[i] = string(data)
	}
	return out, nil
}

func unmarshalAnalysisFields(analysis *model.VendorAnalysis, unethical, ethical, weights, categories, information, citations string) error {
	fields := []struct {
		target any
		data   string
	}{
		{&analysis.UnethicalPractices, unethical},
		{&analysis.EthicalPractices, ethical},
		{&analysis.PracticeWeights, weights},
		{&analysis.PracticeCategories, categories},
		{&analysis.Information, information},
		{&analysis.Citations, citations},
	}
	for _, f := range fields {
		if f.data == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.data), f.target); err != nil {
			return fmt.Errorf("failed to unmarshal analysis field: %w", err)
		}
	}
	return nil
}

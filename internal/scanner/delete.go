// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package scanner

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/metrics"
	"github.com/tomtom215/flixpilot/internal/models"
)

// DeleteItems deletes Emby items one at a time, paced by the configured
// interval. Repeated ids are deleted once. Per-item failures are reported in
// the results; only a cancelled context or an unusable connection aborts.
func (s *Scanner) DeleteItems(ctx context.Context, conn models.EmbyConnection, itemIDs []string) (*models.ItemDeleteReport, error) {
	client, err := s.client(conn)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if s.deleteInterval > 0 {
		limit = rate.Every(s.deleteInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	ids := uniqueIDs(itemIDs)
	report := &models.ItemDeleteReport{Results: make([]models.ItemDeleteResult, 0, len(ids))}

	for _, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		status, err := client.DeleteItem(ctx, id)
		res := models.ItemDeleteResult{ItemID: id, Success: err == nil, Status: status}
		if err != nil {
			var apiErr *emby.APIError
			if errors.As(err, &apiErr) {
				res.Message = apiErr.Body
				if res.Message == "" {
					res.Message = http.StatusText(apiErr.StatusCode)
				}
			} else {
				res.Status = http.StatusInternalServerError
				res.Message = err.Error()
			}
			report.Summary.FailureCount++
			metrics.ItemsDeleted.WithLabelValues("failure").Inc()
			logging.Warn().Str("component", "scanner").Str("item_id", id).Int("status", res.Status).Err(err).
				Msg("Failed to delete Emby item")
		} else {
			report.Summary.SuccessCount++
			metrics.ItemsDeleted.WithLabelValues("success").Inc()
		}
		report.Results = append(report.Results, res)
	}

	report.Success = report.Summary.FailureCount == 0
	logging.Info().Str("component", "scanner").
		Int("deleted", report.Summary.SuccessCount).
		Int("failed", report.Summary.FailureCount).
		Msg("Item delete batch finished")
	return report, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

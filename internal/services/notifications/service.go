// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package notifications delivers delete-sync run summaries to shoutrrr URLs.
// Delivery is best-effort: failures are logged, never propagated to the run.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/sweeparr/internal/services/deletesync"
)

const (
	defaultQueueSize = 100
	defaultWorkers   = 2

	maxMessageLength = 420
	maxTitleLength   = 80

	maxRecordLines = 10
)

// Service fans delete-sync summaries out to the configured notification URLs.
type Service struct {
	urls      []string
	queue     chan *deletesync.Result
	startOnce sync.Once
}

// NewService creates a notification service for the given shoutrrr URLs.
// Returns nil when no URLs are configured; a nil service is a no-op.
func NewService(urls []string) *Service {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}

	return &Service{
		urls:  cleaned,
		queue: make(chan *deletesync.Result, defaultQueueSize),
	}
}

// ValidateURL reports whether a shoutrrr URL is well-formed.
func ValidateURL(rawURL string) error {
	_, err := router.New(nil, rawURL)
	return err
}

// Start launches the delivery workers.
func (s *Service) Start(ctx context.Context) {
	if s == nil {
		return
	}

	s.startOnce.Do(func() {
		for range defaultWorkers {
			go s.worker(ctx)
		}
	})
}

// SendDeleteSyncNotification enqueues a run summary for delivery. A full
// queue drops the summary rather than blocking the reconciliation loop.
func (s *Service) SendDeleteSyncNotification(result *deletesync.Result) {
	if s == nil || result == nil {
		return
	}

	select {
	case s.queue <- result:
	default:
		log.Warn().Msg("notifications: queue full, dropping delete-sync summary")
	}
}

// Flush delivers every queued summary on the caller's goroutine and returns
// once the queue is empty. One-shot invocations use it instead of Start so
// the process does not exit before delivery.
func (s *Service) Flush() {
	if s == nil {
		return
	}

	for {
		select {
		case result := <-s.queue:
			s.dispatch(result)
		default:
			return
		}
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case result := <-s.queue:
			s.dispatch(result)
		}
	}
}

func (s *Service) dispatch(result *deletesync.Result) {
	title, message := formatResult(result)
	if strings.TrimSpace(message) == "" {
		return
	}

	for _, url := range s.urls {
		if err := s.send(url, title, message); err != nil {
			log.Error().Err(err).Msg("notifications: send failed")
		}
	}
}

func (s *Service) send(url, title, message string) error {
	sender, err := router.New(nil, url)
	if err != nil {
		return err
	}

	params := types.Params{}
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		params.SetTitle(truncateMessage(trimmed, maxTitleLength))
	}

	results := sender.Send(truncateMessage(message, maxMessageLength), &params)
	var errs []error
	for _, sendErr := range results {
		if sendErr != nil {
			errs = append(errs, sendErr)
		}
	}
	if len(errs) == 0 {
		return nil
	}

	return errors.Join(errs...)
}

// formatResult renders a run summary as a title plus line-oriented body.
func formatResult(result *deletesync.Result) (string, string) {
	title := "Delete sync completed"
	if result.DryRun {
		title = "Delete sync dry run completed"
	}
	if result.SafetyTriggered {
		title = "Delete sync safety triggered"
	}

	lines := []string{
		formatLine("Deleted", fmt.Sprintf("%d", result.Total.Deleted)),
		formatLine("Skipped", fmt.Sprintf("%d", result.Total.Skipped)),
		formatLine("Protected", fmt.Sprintf("%d", result.Total.Protected)),
	}
	if result.MalformedItems > 0 {
		lines = append(lines, formatLine("Malformed items", fmt.Sprintf("%d", result.MalformedItems)))
	}
	if result.SafetyTriggered {
		lines = append(lines, formatLine("Reason", result.SafetyMessage))
	}
	lines = append(lines, recordLines(result)...)

	return title, strings.Join(lines, "\n")
}

// recordLines lists deleted titles, capped so large runs stay readable.
func recordLines(result *deletesync.Result) []string {
	records := make([]deletesync.DeletionRecord, 0, len(result.Movies.Items)+len(result.Shows.Items))
	records = append(records, result.Movies.Items...)
	records = append(records, result.Shows.Items...)
	if len(records) == 0 {
		return nil
	}

	lines := make([]string, 0, maxRecordLines+1)
	for i, rec := range records {
		if i == maxRecordLines {
			lines = append(lines, fmt.Sprintf("... and %d more", len(records)-maxRecordLines))
			break
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", rec.Title, rec.Instance))
	}
	return lines
}

func formatLine(label, value string) string {
	trimmedLabel := strings.TrimSpace(label)
	trimmedValue := strings.TrimSpace(value)
	if trimmedLabel == "" || trimmedValue == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", trimmedLabel, trimmedValue)
}

func truncateMessage(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if utf8.RuneCountInString(trimmed) <= limit {
		return trimmed
	}
	runes := []rune(trimmed)
	if limit <= 1 {
		return string(runes[:limit])
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

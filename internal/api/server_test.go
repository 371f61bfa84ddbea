// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/sweeparr/internal/domain"
	"github.com/autobrr/sweeparr/internal/services/deletesync"
)

type fakeRunner struct {
	lastDryRun *bool
	result     *deletesync.Result
	err        error
	status     deletesync.Status
}

func (f *fakeRunner) Run(ctx context.Context, dryRun bool) (*deletesync.Result, error) {
	f.lastDryRun = &dryRun
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRunner) Status() deletesync.Status {
	return f.status
}

func newTestServer(runner *fakeRunner, baseURL string) http.Handler {
	server := NewServer(Dependencies{
		Config:     &domain.Config{Host: "localhost", Port: 7373, BaseURL: baseURL},
		DeleteSync: runner,
	})
	return server.Handler()
}

func TestDeleteSyncRunDefaultsToDryRun(t *testing.T) {
	runner := &fakeRunner{result: &deletesync.Result{DryRun: true}}
	handler := newTestServer(runner, "")

	req := httptest.NewRequest(http.MethodPost, "/api/deletesync/run", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, runner.lastDryRun)
	assert.True(t, *runner.lastDryRun)

	var result deletesync.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.True(t, result.DryRun)
}

func TestDeleteSyncRunExplicitLive(t *testing.T) {
	runner := &fakeRunner{result: &deletesync.Result{}}
	handler := newTestServer(runner, "")

	req := httptest.NewRequest(http.MethodPost, "/api/deletesync/run?dryRun=false", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, runner.lastDryRun)
	assert.False(t, *runner.lastDryRun)
}

func TestDeleteSyncRunConflictWhileInProgress(t *testing.T) {
	runner := &fakeRunner{err: deletesync.ErrRunInProgress}
	handler := newTestServer(runner, "")

	req := httptest.NewRequest(http.MethodPost, "/api/deletesync/run", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteSyncStatus(t *testing.T) {
	runner := &fakeRunner{status: deletesync.Status{Running: true}}
	handler := newTestServer(runner, "")

	req := httptest.NewRequest(http.MethodGet, "/api/deletesync/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status deletesync.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.True(t, status.Running)
}

func TestRoutesMountUnderBaseURL(t *testing.T) {
	runner := &fakeRunner{}
	handler := newTestServer(runner, "/sweeparr")

	req := httptest.NewRequest(http.MethodGet, "/sweeparr/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The unprefixed path is not served when a base URL is set.
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflightAllowed(t *testing.T) {
	runner := &fakeRunner{}
	handler := newTestServer(runner, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/deletesync/status", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "/", normalizeBaseURL(""))
	assert.Equal(t, "/", normalizeBaseURL("/"))
	assert.Equal(t, "/sweeparr/", normalizeBaseURL("sweeparr"))
	assert.Equal(t, "/sweeparr/", normalizeBaseURL("/sweeparr/"))
}

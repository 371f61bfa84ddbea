// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/sweeparr/internal/crypto"
	"github.com/autobrr/sweeparr/internal/dbinterface"
)

var ErrArrInstanceNotFound = errors.New("arr instance not found")

// ArrInstanceType represents the type of ARR instance (sonarr or radarr)
type ArrInstanceType string

const (
	ArrInstanceTypeSonarr ArrInstanceType = "sonarr"
	ArrInstanceTypeRadarr ArrInstanceType = "radarr"
)

// ParseArrInstanceType validates and normalizes an ARR instance type string.
func ParseArrInstanceType(value string) (ArrInstanceType, error) {
	switch ArrInstanceType(strings.ToLower(value)) {
	case ArrInstanceTypeSonarr:
		return ArrInstanceTypeSonarr, nil
	case ArrInstanceTypeRadarr:
		return ArrInstanceTypeRadarr, nil
	default:
		return "", fmt.Errorf("invalid arr instance type: %s (must be 'sonarr' or 'radarr')", value)
	}
}

// ArrInstance represents a configured Sonarr or Radarr instance.
type ArrInstance struct {
	ID              int             `json:"id"`
	Type            ArrInstanceType `json:"type"`
	Name            string          `json:"name"`
	BaseURL         string          `json:"base_url"`
	APIKeyEncrypted string          `json:"-"`
	Enabled         bool            `json:"enabled"`
	TimeoutSeconds  int             `json:"timeout_seconds"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ArrInstanceStore manages ARR instances in the database.
// API keys are encrypted at rest with AES-GCM.
type ArrInstanceStore struct {
	db        dbinterface.Querier
	encryptor *crypto.AESEncryptor
}

// NewArrInstanceStore creates a new ArrInstanceStore.
func NewArrInstanceStore(db dbinterface.Querier, encryptionKey []byte) (*ArrInstanceStore, error) {
	encryptor, err := crypto.NewAESEncryptor(encryptionKey)
	if err != nil {
		return nil, err
	}

	return &ArrInstanceStore{
		db:        db,
		encryptor: encryptor,
	}, nil
}

// Create creates a new ARR instance.
func (s *ArrInstanceStore) Create(ctx context.Context, instanceType ArrInstanceType, name, baseURL, apiKey string, enabled bool, timeoutSeconds int) (*ArrInstance, error) {
	name = strings.TrimSpace(name)
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)

	if name == "" {
		return nil, errors.New("name cannot be empty")
	}
	if baseURL == "" {
		return nil, errors.New("base url cannot be empty")
	}
	if apiKey == "" {
		return nil, errors.New("api key cannot be empty")
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	encryptedAPIKey, err := s.encryptor.Encrypt(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt API key: %w", err)
	}

	var id int
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO arr_instances (type, name, base_url, api_key_encrypted, enabled, timeout_seconds)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, instanceType, name, baseURL, encryptedAPIKey, enabled, timeoutSeconds).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create arr instance: %w", err)
	}

	return s.Get(ctx, id)
}

// Get returns an ARR instance by id.
func (s *ArrInstanceStore) Get(ctx context.Context, id int) (*ArrInstance, error) {
	var inst ArrInstance
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, name, base_url, api_key_encrypted, enabled, timeout_seconds, created_at, updated_at
		FROM arr_instances
		WHERE id = ?
	`, id).Scan(&inst.ID, &inst.Type, &inst.Name, &inst.BaseURL, &inst.APIKeyEncrypted, &inst.Enabled, &inst.TimeoutSeconds, &inst.CreatedAt, &inst.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArrInstanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get arr instance: %w", err)
	}
	return &inst, nil
}

// ListEnabled returns all enabled instances of the given type.
func (s *ArrInstanceStore) ListEnabled(ctx context.Context, instanceType ArrInstanceType) ([]*ArrInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, name, base_url, api_key_encrypted, enabled, timeout_seconds, created_at, updated_at
		FROM arr_instances
		WHERE type = ? AND enabled = 1
		ORDER BY id
	`, instanceType)
	if err != nil {
		return nil, fmt.Errorf("list arr instances: %w", err)
	}
	defer rows.Close()

	var instances []*ArrInstance
	for rows.Next() {
		var inst ArrInstance
		if err := rows.Scan(&inst.ID, &inst.Type, &inst.Name, &inst.BaseURL, &inst.APIKeyEncrypted, &inst.Enabled, &inst.TimeoutSeconds, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan arr instance: %w", err)
		}
		instances = append(instances, &inst)
	}
	return instances, rows.Err()
}

// List returns all instances of both types, enabled or not.
func (s *ArrInstanceStore) List(ctx context.Context) ([]*ArrInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, name, base_url, api_key_encrypted, enabled, timeout_seconds, created_at, updated_at
		FROM arr_instances
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list arr instances: %w", err)
	}
	defer rows.Close()

	var instances []*ArrInstance
	for rows.Next() {
		var inst ArrInstance
		if err := rows.Scan(&inst.ID, &inst.Type, &inst.Name, &inst.BaseURL, &inst.APIKeyEncrypted, &inst.Enabled, &inst.TimeoutSeconds, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan arr instance: %w", err)
		}
		instances = append(instances, &inst)
	}
	return instances, rows.Err()
}

// GetAPIKey returns the decrypted API key for an instance.
func (s *ArrInstanceStore) GetAPIKey(ctx context.Context, instance *ArrInstance) (string, error) {
	if instance == nil {
		return "", ErrArrInstanceNotFound
	}
	apiKey, err := s.encryptor.Decrypt(instance.APIKeyEncrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt API key: %w", err)
	}
	return apiKey, nil
}

// Delete removes an instance.
func (s *ArrInstanceStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM arr_instances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete arr instance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrArrInstanceNotFound
	}
	return nil
}

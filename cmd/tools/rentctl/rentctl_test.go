package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/quota"
	"rental-marketplace/internal/search"
	"rental-marketplace/pkg/registry"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistry = `version: "1.0"
lastUpdated: "2026-01-01"
features:
  - id: commute_assessment
    displayName: Commute assessment
    dailyCeiling: 5
    enabled: true
  - id: chat
    displayName: Assistant chat
    dailyCeiling: 5
    enabled: true
`

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd, out
}

func writeRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "features.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRegistry), 0o644))
	registryPath = path
	t.Cleanup(func() { registryPath = "configs/features.yaml" })
	return path
}

func TestFeaturesValidateAndList(t *testing.T) {
	writeRegistry(t)

	cmd, out := newTestCmd()
	require.NoError(t, runFeaturesValidate(cmd, nil))
	assert.Contains(t, out.String(), "is valid (2 features)")

	cmd, out = newTestCmd()
	require.NoError(t, runFeaturesList(cmd, nil))
	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[1]), "chat")
	assert.Contains(t, string(lines[2]), "commute_assessment")
}

func TestFeaturesSet(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(t *testing.T, path string, err error)
	}{
		{
			name: "raise ceiling",
			args: []string{"chat", "dailyCeiling", "8"},
			validate: func(t *testing.T, path string, err error) {
				require.NoError(t, err)
				reg, err := registry.LoadRegistry(path)
				require.NoError(t, err)
				assert.Equal(t, 8, reg.Ceilings()["chat"])
				assert.Equal(t, time.Now().Format("2006-01-02"), reg.LastUpdated)
			},
		},
		{
			name: "disable feature",
			args: []string{"commute_assessment", "enabled", "false"},
			validate: func(t *testing.T, path string, err error) {
				require.NoError(t, err)
				reg, err := registry.LoadRegistry(path)
				require.NoError(t, err)
				_, gated := reg.Ceilings()["commute_assessment"]
				assert.False(t, gated)
			},
		},
		{
			name: "negative ceiling rejected",
			args: []string{"chat", "dailyCeiling", "-1"},
			validate: func(t *testing.T, path string, err error) {
				assert.ErrorContains(t, err, "must not be negative")
				reg, lerr := registry.LoadRegistry(path)
				require.NoError(t, lerr)
				assert.Equal(t, 5, reg.Ceilings()["chat"])
			},
		},
		{
			name: "unknown feature",
			args: []string{"poetry", "dailyCeiling", "1"},
			validate: func(t *testing.T, _ string, err error) {
				assert.ErrorContains(t, err, "not found")
			},
		},
		{
			name: "unknown field",
			args: []string{"chat", "colour", "red"},
			validate: func(t *testing.T, _ string, err error) {
				assert.ErrorContains(t, err, "unknown field")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRegistry(t)
			cmd, _ := newTestCmd()
			err := runFeaturesSet(cmd, tt.args)
			tt.validate(t, path, err)
		})
	}
}

func TestSearchBuild_WithoutGeocoder(t *testing.T) {
	skipGeocode = true
	searchFilters = search.Filters{MinRent: 800, MaxRent: 5000, Gender: "Female", RoomType: search.AnyValue}
	t.Cleanup(func() {
		skipGeocode = false
		searchFilters = search.Filters{}
	})

	cmd, out := newTestCmd()
	require.NoError(t, runSearchBuild(cmd, []string{"mont", "kiara"}))

	var got struct {
		Intent  search.Intent  `json:"intent"`
		Request search.Request `json:"request"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "mont kiara", got.Request.Query)
	assert.Equal(t, "rent >= 800 AND gender:Female", got.Request.Filters)
	assert.Empty(t, got.Request.AroundLatLng)
	assert.Nil(t, got.Intent.Resolved)
}

type stubQuota struct{}

func (stubQuota) Features() []string { return []string{"chat", "commute_assessment"} }

func (stubQuota) Status(_ context.Context, userID, feature string) (*quota.Decision, error) {
	if feature == "poetry" {
		return nil, errors.NewUnknownFeatureError(feature)
	}
	return &quota.Decision{Feature: feature, Allowed: true, Count: 2, Ceiling: 5, Remaining: 3}, nil
}

func TestPrintQuota(t *testing.T) {
	cmd, out := newTestCmd()
	require.NoError(t, printQuota(cmd, stubQuota{}, "tenant-1", nil))

	var decisions []quota.Decision
	require.NoError(t, json.Unmarshal(out.Bytes(), &decisions))
	require.Len(t, decisions, 2)
	assert.Equal(t, "chat", decisions[0].Feature)
	assert.Equal(t, 3, decisions[1].Remaining)

	cmd, _ = newTestCmd()
	assert.ErrorContains(t, printQuota(cmd, stubQuota{}, "tenant-1", []string{"poetry"}), "poetry")
}

func TestListingsImport_DryRun(t *testing.T) {
	dryRun = true
	t.Cleanup(func() { dryRun = false })

	path := filepath.Join(t.TempDir(), "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))

	cmd, _ := newTestCmd()
	err := runListingsImport(cmd, []string{path})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInputValidationFailed))
}

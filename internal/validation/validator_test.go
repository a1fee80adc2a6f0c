// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activityFixture struct {
	MeetingName string `validate:"required,max=200"`
	Status      string `validate:"omitempty,activitystatus"`
	StartTime   string `validate:"omitempty,rfc3339"`
	Duration    int    `validate:"omitempty,min=0"`
}

func TestValidateStruct_Valid(t *testing.T) {
	err := ValidateStruct(&activityFixture{
		MeetingName: "Weekly Sync",
		Status:      "completed",
		StartTime:   "2026-08-31T10:00:00Z",
		Duration:    30,
	})
	assert.Nil(t, err)
}

func TestValidateStruct_OptionalFieldsEmpty(t *testing.T) {
	err := ValidateStruct(&activityFixture{MeetingName: "Standup"})
	assert.Nil(t, err)
}

func TestValidateStruct_Required(t *testing.T) {
	err := ValidateStruct(&activityFixture{})
	require.NotNil(t, err)

	errs := err.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "MeetingName", errs[0].Field())
	assert.Equal(t, "required", errs[0].Tag())
	assert.Equal(t, "MeetingName is required", errs[0].Error())
}

func TestValidateStruct_ActivityStatus(t *testing.T) {
	for _, status := range []string{"completed", "scheduled", "missed", "cancelled"} {
		err := ValidateStruct(&activityFixture{MeetingName: "m", Status: status})
		assert.Nil(t, err, status)
	}

	err := ValidateStruct(&activityFixture{MeetingName: "m", Status: "ongoing"})
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "must be one of: completed, scheduled, missed, cancelled")
}

func TestValidateStruct_RFC3339(t *testing.T) {
	valid := []string{"2026-08-31T10:00:00Z", "2026-08-31T10:00:00+02:00", "2026-08-31T10:00:00.123Z"}
	for _, ts := range valid {
		err := ValidateStruct(&activityFixture{MeetingName: "m", StartTime: ts})
		assert.Nil(t, err, ts)
	}

	invalid := []string{"2026-08-31", "31/08/2026 10:00", "not-a-time", "2026-08-31 10:00:00"}
	for _, ts := range invalid {
		err := ValidateStruct(&activityFixture{MeetingName: "m", StartTime: ts})
		require.NotNil(t, err, ts)
		assert.Contains(t, err.Error(), "RFC3339")
	}
}

func TestToAPIError_SingleField(t *testing.T) {
	err := ValidateStruct(&activityFixture{MeetingName: "m", Status: "bogus"})
	require.NotNil(t, err)

	apiErr := err.ToAPIError()
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, "Status", apiErr.Details["field"])
	assert.Equal(t, "activitystatus", apiErr.Details["tag"])
}

func TestToAPIError_MultipleFields(t *testing.T) {
	err := ValidateStruct(&activityFixture{Status: "bogus", StartTime: "nope"})
	require.NotNil(t, err)

	apiErr := err.ToAPIError()
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	require.True(t, ok)
	assert.Len(t, fields, 3)
}

func TestValidateStruct_MaxLength(t *testing.T) {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	err := ValidateStruct(&activityFixture{MeetingName: string(long)})
	require.NotNil(t, err)
	assert.Equal(t, "MeetingName must be at most 200 characters", err.Errors()[0].Error())
}

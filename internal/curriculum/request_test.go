package curriculum

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequestAcceptsStringsAndNumbers(t *testing.T) {
	body := `{"education_level":"Undergraduate","skill_name":" Data Science ","num_semesters":"2","weekly_hours":6,"industry_focus":"Healthcare"}`

	req, err := DecodeRequest(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, Request{
		EducationLevel: "Undergraduate",
		SkillName:      "Data Science",
		NumSemesters:   2,
		WeeklyHours:    6,
		IndustryFocus:  "Healthcare",
	}, req)
}

func TestDecodeRequestMissingFieldsInOrder(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"empty object", `{}`, FieldEducationLevel},
		{"skill absent", `{"education_level":"x"}`, FieldSkillName},
		{"semesters blank", `{"education_level":"x","skill_name":"y","num_semesters":"  "}`, FieldNumSemesters},
		{"hours null", `{"education_level":"x","skill_name":"y","num_semesters":1,"weekly_hours":null}`, FieldWeeklyHours},
		{"focus absent", `{"education_level":"x","skill_name":"y","num_semesters":1,"weekly_hours":4}`, FieldIndustryFocus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRequest(strings.NewReader(tc.body))
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, tc.field, fe.Field)
			assert.Equal(t, ReasonMissing, fe.Reason)
		})
	}
}

func TestDecodeRequestInvalidNumbers(t *testing.T) {
	base := `{"education_level":"x","skill_name":"y","industry_focus":"z",`
	cases := map[string]string{
		"zero semesters":   base + `"num_semesters":0,"weekly_hours":4}`,
		"too many hours":   base + `"num_semesters":2,"weekly_hours":169}`,
		"fractional hours": base + `"num_semesters":2,"weekly_hours":4.5}`,
		"text semesters":   base + `"num_semesters":"two","weekly_hours":4}`,
		"object value":     base + `"num_semesters":{"n":2},"weekly_hours":4}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRequest(strings.NewReader(body))
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, ReasonInvalid, fe.Reason)
		})
	}
}

func TestDecodeRequestAcceptsLongPrograms(t *testing.T) {
	body := `{"education_level":"x","skill_name":"y","industry_focus":"z","num_semesters":13,"weekly_hours":168}`

	req, err := DecodeRequest(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 13, req.NumSemesters)
	assert.Equal(t, 168, req.WeeklyHours)
}

func TestDecodeRequestMalformedBody(t *testing.T) {
	for _, body := range []string{"", "not json", "[]", "null"} {
		_, err := DecodeRequest(strings.NewReader(body))
		assert.ErrorIs(t, err, ErrMalformedBody, body)
	}
}

// Package curriculum はカリキュラム生成リクエストの検証、プロンプト組み立て、生成APIの呼び出しを提供します。
package curriculum

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	FieldEducationLevel = "education_level"
	FieldSkillName      = "skill_name"
	FieldNumSemesters   = "num_semesters"
	FieldWeeklyHours    = "weekly_hours"
	FieldIndustryFocus  = "industry_focus"

	// MaxWeeklyHours は1週間の時間数です。学期数には上限を設けません。
	MaxWeeklyHours = 168

	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
)

// requiredFields は検証順です。
var requiredFields = []string{
	FieldEducationLevel,
	FieldSkillName,
	FieldNumSemesters,
	FieldWeeklyHours,
	FieldIndustryFocus,
}

// ErrMalformedBody はリクエストボディが JSON オブジェクトでない場合に返されます。
var ErrMalformedBody = errors.New("request body must be a JSON object")

// FieldError は入力項目の欠落・不正を表します。
type FieldError struct {
	Field  string
	Reason string
	Detail string
}

func (e *FieldError) Error() string {
	if e.Reason == ReasonMissing {
		return fmt.Sprintf("missing required field: %s", e.Field)
	}
	if e.Detail != "" {
		return fmt.Sprintf("invalid field %s: %s", e.Field, e.Detail)
	}
	return fmt.Sprintf("invalid field: %s", e.Field)
}

// Request は生成リクエストです。
type Request struct {
	EducationLevel string `json:"education_level"`
	SkillName      string `json:"skill_name"`
	NumSemesters   int    `json:"num_semesters"`
	WeeklyHours    int    `json:"weekly_hours"`
	IndustryFocus  string `json:"industry_focus"`
}

// DecodeRequest は JSON ボディを読み取り、5項目すべてを検証します。
// 数値項目は文字列・数値どちらでも受け付けます。
func DecodeRequest(r io.Reader) (Request, error) {
	var raw map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return Request{}, ErrMalformedBody
	}

	values := make(map[string]string, len(requiredFields))
	for _, field := range requiredFields {
		v, ok := raw[field]
		if !ok || v == nil {
			return Request{}, &FieldError{Field: field, Reason: ReasonMissing}
		}
		s, ok := scalarString(v)
		if !ok {
			return Request{}, &FieldError{Field: field, Reason: ReasonInvalid, Detail: "must be a string or number"}
		}
		if s == "" {
			return Request{}, &FieldError{Field: field, Reason: ReasonMissing}
		}
		values[field] = s
	}

	semesters, err := positiveInt(FieldNumSemesters, values[FieldNumSemesters], 0)
	if err != nil {
		return Request{}, err
	}
	hours, err := positiveInt(FieldWeeklyHours, values[FieldWeeklyHours], MaxWeeklyHours)
	if err != nil {
		return Request{}, err
	}

	return Request{
		EducationLevel: values[FieldEducationLevel],
		SkillName:      values[FieldSkillName],
		NumSemesters:   semesters,
		WeeklyHours:    hours,
		IndustryFocus:  values[FieldIndustryFocus],
	}, nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

// positiveInt は正の整数を返します。max が 0 の場合は上限を確認しません。
func positiveInt(field, s string, max int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, &FieldError{Field: field, Reason: ReasonInvalid, Detail: "must be a positive integer"}
	}
	if max > 0 && n > max {
		return 0, &FieldError{Field: field, Reason: ReasonInvalid, Detail: fmt.Sprintf("must be at most %d", max)}
	}
	return n, nil
}

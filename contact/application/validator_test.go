package application

import (
	"encoding/json"
	"strings"
	"testing"

	"contact-gateway/contact/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() map[string]any {
	return map[string]any{
		"name":    "Ana",
		"email":   "ana@example.com",
		"subject": "Hi",
		"message": "Hello there",
		"website": "",
	}
}

func newTestValidator(t *testing.T, b Bounds) *Validator {
	t.Helper()
	v, err := NewValidator(b)
	require.NoError(t, err)
	return v
}

func TestValidator_AcceptsAndTrims(t *testing.T) {
	v := newTestValidator(t, DefaultBounds())
	raw := validRaw()
	raw["name"] = "  Ana  "
	raw["message"] = "\n Hello there \t"

	sub, errs := v.Validate(raw)
	require.True(t, errs.Valid(), "errors: %v", errs)
	assert.Equal(t, domain.Submission{
		Name:    "Ana",
		Email:   "ana@example.com",
		Subject: "Hi",
		Message: "Hello there",
	}, sub)
}

func TestValidator_EmptyFieldReportsExactlyThatField(t *testing.T) {
	v := newTestValidator(t, DefaultBounds())

	for _, field := range []string{"name", "email", "subject", "message"} {
		t.Run(field, func(t *testing.T) {
			raw := validRaw()
			raw[field] = "   "

			sub, errs := v.Validate(raw)
			assert.Len(t, errs, 1)
			assert.Contains(t, errs[field], "is required.")
			assert.Equal(t, domain.Submission{}, sub)
		})
	}
}

func TestValidator_MissingFieldIsRequired(t *testing.T) {
	v := newTestValidator(t, DefaultBounds())
	raw := validRaw()
	delete(raw, "subject")

	_, errs := v.Validate(raw)
	assert.Equal(t, domain.FieldErrors{"subject": "Subject is required."}, errs)
}

func TestValidator_TooLongReportsExactlyThatField(t *testing.T) {
	b := DefaultBounds()
	v := newTestValidator(t, b)

	cases := map[string]string{
		"name":    strings.Repeat("n", b.NameMax+1),
		"email":   strings.Repeat("a", b.EmailMax) + "@x.io",
		"subject": strings.Repeat("s", b.SubjectMax+1),
		"message": strings.Repeat("m", b.MessageMax+1),
	}
	for field, value := range cases {
		t.Run(field, func(t *testing.T) {
			raw := validRaw()
			raw[field] = value

			_, errs := v.Validate(raw)
			assert.Len(t, errs, 1)
			assert.Contains(t, errs[field], "characters or fewer.")
		})
	}
}

func TestValidator_ExactBoundsAreAccepted(t *testing.T) {
	b := DefaultBounds()
	v := newTestValidator(t, b)
	raw := validRaw()
	raw["name"] = strings.Repeat("é", b.NameMax)
	raw["subject"] = strings.Repeat("s", b.SubjectMax)

	_, errs := v.Validate(raw)
	assert.True(t, errs.Valid(), "errors: %v", errs)
}

func TestValidator_EmailFormat(t *testing.T) {
	v := newTestValidator(t, DefaultBounds())
	raw := validRaw()
	raw["email"] = "not-an-email"

	_, errs := v.Validate(raw)
	assert.Equal(t, domain.FieldErrors{"email": "Email format is invalid."}, errs)
}

func TestValidator_MaxLengthWinsOverFormat(t *testing.T) {
	v := newTestValidator(t, Bounds{NameMax: 100, EmailMax: 5, SubjectMax: 150, MessageMin: 1, MessageMax: 5000})
	raw := validRaw()
	raw["email"] = "definitely not an email"

	_, errs := v.Validate(raw)
	assert.Equal(t, "Email must be 5 characters or fewer.", errs["email"])
}

func TestValidator_MessageMinimumIsConfigurable(t *testing.T) {
	v := newTestValidator(t, Bounds{NameMax: 100, EmailMax: 254, SubjectMax: 150, MessageMin: 10, MessageMax: 2000})

	raw := validRaw()
	raw["message"] = "  short  "
	_, errs := v.Validate(raw)
	assert.Equal(t, domain.FieldErrors{"message": "Message must be at least 10 characters."}, errs)

	raw["message"] = ""
	_, errs = v.Validate(raw)
	assert.Equal(t, domain.FieldErrors{"message": "Message is required."}, errs)
}

func TestValidator_ReportsEveryInvalidField(t *testing.T) {
	v := newTestValidator(t, DefaultBounds())

	_, errs := v.Validate(map[string]any{"email": "x"})
	assert.Equal(t, domain.FieldErrors{
		"name":    "Name is required.",
		"email":   "Email format is invalid.",
		"subject": "Subject is required.",
		"message": "Message is required.",
	}, errs)
}

func TestValidator_CoercesLooseValues(t *testing.T) {
	v := newTestValidator(t, DefaultBounds())
	raw := validRaw()
	raw["subject"] = float64(42)
	raw["name"] = map[string]any{"first": "Ana"}

	sub, errs := v.Validate(raw)
	assert.Equal(t, domain.FieldErrors{"name": "Name is required."}, errs)
	assert.Equal(t, domain.Submission{}, sub)

	raw["name"] = true
	sub, errs = v.Validate(raw)
	require.True(t, errs.Valid())
	assert.Equal(t, "42", sub.Subject)
	assert.Equal(t, "true", sub.Name)
}

func TestValidator_NormalizesToNFC(t *testing.T) {
	v := newTestValidator(t, Bounds{NameMax: 4, EmailMax: 254, SubjectMax: 150, MessageMin: 1, MessageMax: 5000})
	raw := validRaw()
	raw["name"] = "Jose\u0301" // 5 runes decomposto, 4 composto

	sub, errs := v.Validate(raw)
	require.True(t, errs.Valid(), "errors: %v", errs)
	assert.Equal(t, "Jos\u00e9", sub.Name)
}

func TestValidator_KeepsTrimmedHoneypot(t *testing.T) {
	v := newTestValidator(t, DefaultBounds())
	raw := validRaw()
	raw["website"] = "  http://spam.example "

	sub, errs := v.Validate(raw)
	require.True(t, errs.Valid())
	assert.Equal(t, "http://spam.example", sub.Honeypot)
}

func TestValidator_HoneypotValues(t *testing.T) {
	cases := []struct {
		name    string
		value   any
		wantBot bool
	}{
		{"absent", nil, false},
		{"empty string", "", false},
		{"blank", "   ", false},
		{"url", "http://spam.example", true},
		{"object", map[string]any{"x": json.Number("1")}, true},
		{"empty object", map[string]any{}, true},
		{"list", []any{"http://spam.example"}, true},
		{"empty list", []any{}, false},
		{"list of blanks", []any{" ", nil}, true},
		{"true", true, true},
		{"zero", json.Number("0"), true},
	}
	v := newTestValidator(t, DefaultBounds())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			raw["website"] = tc.value

			sub, errs := v.Validate(raw)
			require.True(t, errs.Valid(), "errors: %v", errs)
			got := Honeypot{}.Check(sub) == SuspectedBot
			assert.Equal(t, tc.wantBot, got, "honeypot=%q", sub.Honeypot)
		})
	}
}

func TestNewValidator_RejectsBadBounds(t *testing.T) {
	_, err := NewValidator(Bounds{NameMax: 1, EmailMax: 1, SubjectMax: 1, MessageMin: 10, MessageMax: 5})
	assert.Error(t, err)

	_, err = NewValidator(Bounds{})
	assert.Error(t, err)
}

func TestHoneypot_Check(t *testing.T) {
	assert.Equal(t, Genuine, Honeypot{}.Check(domain.Submission{}))
	assert.Equal(t, Genuine, Honeypot{}.Check(domain.Submission{Honeypot: " \t"}))
	assert.Equal(t, SuspectedBot, Honeypot{}.Check(domain.Submission{Honeypot: "http://spam.example"}))
}

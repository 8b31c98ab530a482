package intake

import (
	"net/url"
	"testing"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() url.Values {
	return url.Values{
		"zone_key":        {" Centro "},
		"municipality":    {" Barcelona "},
		"neighborhood":    {""},
		"postal_code":     {"08001"},
		"property_type":   {"piso"},
		"m2":              {"80"},
		"condition":       {"buen_estado"},
		"year_built":      {""},
		"has_elevator":    {"on"},
		"has_terrace":     {"on"},
		"terrace_m2":      {"12.5"},
		"sale_horizon":    {"<3m"},
		"motivation":      {"traslado"},
		"already_listed":  {"no"},
		"exclusivity":     {"si"},
		"expected_price":  {""},
		"owner_name":      {"  Ana Pérez "},
		"owner_email":     {"ana@example.com"},
		"owner_phone":     {" 600111222 "},
		"consent_contact": {"on"},
		"source_campaign": {"  "},
		"utm_source":      {"google"},
		"company_website": {""},
	}
}

func TestParseForm_Coercion(t *testing.T) {
	submission, err := ParseForm(validForm())
	require.NoError(t, err)

	property := submission.Input.Property
	assert.Equal(t, "centro", property.ZoneKey)
	assert.Equal(t, "Barcelona", property.Municipality)
	assert.Nil(t, property.Neighborhood)
	require.NotNil(t, property.PostalCode)
	assert.Equal(t, "08001", *property.PostalCode)
	assert.Equal(t, float64(80), property.M2)
	assert.Nil(t, property.YearBuilt)
	assert.True(t, property.HasElevator)
	assert.True(t, property.HasTerrace)
	assert.False(t, property.HasParking)
	assert.False(t, property.HasViews)
	require.NotNil(t, property.TerraceM2)
	assert.Equal(t, 12.5, *property.TerraceM2)

	assert.Nil(t, submission.Input.Owner.ExpectedPrice)
	assert.Equal(t, "<3m", submission.Input.Owner.SaleHorizon)

	contact := submission.Contact
	assert.Equal(t, "Ana Pérez", contact.OwnerName)
	assert.Equal(t, "600111222", contact.OwnerPhone)
	assert.True(t, contact.ConsentContact)
	assert.Equal(t, "v1", contact.ConsentTextVersion)
	assert.Nil(t, contact.SourceCampaign)
	require.NotNil(t, contact.UTMSource)
	assert.Equal(t, "google", *contact.UTMSource)
	assert.Nil(t, contact.UTMMedium)
	assert.Nil(t, submission.CompanyWebsite)
}

func TestParseForm_OptionalNumbers(t *testing.T) {
	form := validForm()
	form.Set("year_built", "1998")
	form.Set("expected_price", "320000")
	form.Set("company_website", "http://spam.example")

	submission, err := ParseForm(form)
	require.NoError(t, err)
	require.NotNil(t, submission.Input.Property.YearBuilt)
	assert.Equal(t, 1998, *submission.Input.Property.YearBuilt)
	require.NotNil(t, submission.Input.Owner.ExpectedPrice)
	assert.Equal(t, float64(320000), *submission.Input.Owner.ExpectedPrice)
	require.NotNil(t, submission.CompanyWebsite)
}

func TestParseForm_Checkboxes(t *testing.T) {
	tests := []struct {
		value    []string
		expected bool
	}{
		{value: nil, expected: false},
		{value: []string{"on"}, expected: true},
		{value: []string{""}, expected: true},
		{value: []string{"true"}, expected: true},
		{value: []string{"off"}, expected: false},
		{value: []string{"false"}, expected: false},
	}

	for _, tt := range tests {
		form := validForm()
		form.Del("has_parking")
		if tt.value != nil {
			form["has_parking"] = tt.value
		}
		submission, err := ParseForm(form)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, submission.Input.Property.HasParking, "value %v", tt.value)
	}
}

func TestParseForm_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
	}{
		{name: "zero m2", field: "m2", value: "0"},
		{name: "negative m2", field: "m2", value: "-10"},
		{name: "blank m2", field: "m2", value: ""},
		{name: "non numeric m2", field: "m2", value: "big"},
		{name: "nan m2", field: "m2", value: "NaN"},
		{name: "infinite m2", field: "m2", value: "Inf"},
		{name: "non numeric price", field: "expected_price", value: "a lot"},
		{name: "non numeric year", field: "year_built", value: "nineties"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			form.Set(tt.field, tt.value)

			_, err := ParseForm(form)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))

			e, _ := apperr.As(err)
			assert.Equal(t, tt.field, e.Field)
		})
	}
}

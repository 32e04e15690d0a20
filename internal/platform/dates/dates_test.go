package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "2024-01-10"},
		{in: " 2024-02-29 "},
		{in: "2023-02-29", wantErr: true},
		{in: "2024-02-30", wantErr: true},
		{in: "2024-1-5", wantErr: true},
		{in: "10/01/2024", wantErr: true},
		{in: "2024-01-10T10:00:00Z", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParsePtr_EmptyIsNil(t *testing.T) {
	empty := ""
	d, err := ParsePtr(&empty)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParsePtr(nil)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := New(2024, time.February, 9)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-09"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(d))

	assert.Error(t, json.Unmarshal([]byte(`"2024-13-01"`), &back))
}

func TestDate_Arithmetic(t *testing.T) {
	today := New(2024, time.January, 20)
	assert.Equal(t, "2024-02-19", today.AddDays(30).String())
	assert.True(t, New(2024, time.February, 9).Before(today.AddDays(30)))
	assert.Equal(t, 0, Of(time.Date(2024, 1, 20, 23, 59, 0, 0, time.UTC)).Compare(today))
}

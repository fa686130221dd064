//go:build !libpostal

package postal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bpmigrate/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    Components
	}{
		{
			name:    "spanish street with trailing number",
			address: "Calle Mayor 5, 28001 Madrid, ES",
			want:    Components{HouseNumber: "5", Road: "Calle Mayor", City: "Madrid", Postcode: "28001", Country: "ES", Method: "regex"},
		},
		{
			name:    "us address with state name",
			address: "1600 Pennsylvania Ave NW, Washington, District of Columbia, 20500, USA",
			want:    Components{HouseNumber: "1600", Road: "Pennsylvania Ave NW", City: "Washington", State: "DC", Postcode: "20500", Country: "US", Method: "regex"},
		},
		{
			name:    "uk postcode",
			address: "12 High Street,  Alton, GU34 1AB",
			want:    Components{HouseNumber: "12", Road: "High Street", City: "Alton", Postcode: "GU34 1AB", Method: "regex"},
		},
		{
			name:    "single part",
			address: "Calle Mayor",
			want:    Components{Road: "Calle Mayor", Method: "regex"},
		},
		{
			name:    "empty",
			address: "   ",
			want:    Components{Method: "regex"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.address))
		})
	}
}

func TestHintAndJoin(t *testing.T) {
	a := model.Address{Line1: "Calle Mayor 5", Line3: " Madrid ", Postcode: "28001", Country: "ESP"}
	assert.Equal(t, "Calle Mayor 5, Madrid, 28001, ESP", Join(a))

	c := ParseRecord(a)
	assert.Equal(t, "road=Calle Mayor; house_number=5; city=Madrid; postcode=28001; country=ES", c.Hint())
	assert.True(t, Components{}.Empty())
}

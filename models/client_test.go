package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClient(t *testing.T) {
	tests := []struct {
		input string
		want  Client
		ok    bool
	}{
		{"BEST DEAL", ClientBestDeal, true},
		{"  best deal ", ClientBestDeal, true},
		{"le phénicien", ClientLePhenicien, true},
		{"LE GRAND MARCHÉ DE FRANCE", ClientGrandMarcheFR, true},
		{"ACME", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseClient(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEveryClientHasCompanyDetails(t *testing.T) {
	for _, c := range Clients {
		info, ok := c.Company()
		assert.True(t, ok, c)
		assert.True(t, c.Valid(), c)
		assert.Equal(t, string(c), info.Name)
		assert.Len(t, info.Siren, 9)
	}
	assert.False(t, Client("ACME").Valid())
}

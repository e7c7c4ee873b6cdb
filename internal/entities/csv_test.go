package entities

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewledger/crewledger/internal/model"
)

const seed = `id,pool,number,display_name,aliases
v-hd,vendor,,Home Depot,HD;depot:contains;home dep:prefix
c-smith,clients,,Smith Family,
p-101,project,24-101,Smith Kitchen Remodel,Smith Kitchen
w-jr,worker,,Jose Ramirez,"Ramirez, Jose"
`

func TestRead(t *testing.T) {
	got, err := Read(strings.NewReader(seed))
	require.NoError(t, err)
	require.Len(t, got, 4)

	hd := got[0]
	assert.Equal(t, model.PoolVendors, hd.Pool)
	assert.Equal(t, []model.Alias{
		{Value: "HD", Match: model.AliasExact},
		{Value: "depot", Match: model.AliasContains},
		{Value: "home dep", Match: model.AliasPrefix},
	}, hd.Aliases)

	assert.Equal(t, model.PoolClients, got[1].Pool)
	assert.Empty(t, got[1].Aliases)
	assert.Equal(t, "24-101", got[2].Number)
	assert.Equal(t, model.PoolVendors, got[3].Pool, "workers share the vendor pool")
	assert.Equal(t, "Ramirez, Jose", got[3].Aliases[0].Value)
}

func TestRead_NoHeader(t *testing.T) {
	got, err := Read(strings.NewReader("v-1,vendor,,Lowes,\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Lowes", got[0].DisplayName)
}

func TestRead_UnknownSuffixIsPartOfAlias(t *testing.T) {
	got, err := Read(strings.NewReader("p-1,project,WO:7,Job 7,Job: Seven\n"))
	require.NoError(t, err)
	assert.Equal(t, "Job: Seven", got[0].Aliases[0].Value)
	assert.Equal(t, model.AliasExact, got[0].Aliases[0].Match)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown pool", "x-1,supplier,,Acme,\n"},
		{"empty id", ",vendor,,Acme,\n"},
		{"empty name", "v-1,vendor,,,\n"},
		{"number on vendor", "v-1,vendor,12,Acme,\n"},
		{"empty alias value", "v-1,vendor,,Acme,:contains\n"},
		{"duplicate id", "v-1,vendor,,Acme,\nv-1,vendor,,Acme Two,\n"},
		{"wrong field count", "v-1,vendor,Acme\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestWriteRead(t *testing.T) {
	in, err := Read(strings.NewReader(seed))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))
	assert.Contains(t, buf.String(), "HD;depot:contains;home dep:prefix")

	out, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

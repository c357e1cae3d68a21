// internal/browser/scripts_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExpression(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
		want string
	}{
		{
			name: "Tag",
			loc:  Tag("h1"),
			want: `document.getElementsByTagName("h1")[0] || null`,
		},
		{
			name: "ID",
			loc:  ID("appointment_submit"),
			want: `document.getElementById("appointment_submit")`,
		},
		{
			name: "Query",
			loc:  Query(`input[name="x"]`),
			want: `document.querySelector("input[name=\"x\"]")`,
		},
		{
			name: "Label",
			loc:  Label("Alle Standorte auswählen"),
			want: `Array.from(document.getElementsByTagName('label')).find(l => (l.textContent || '').includes("Alle Standorte auswählen")) || null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findExpression(tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindExpression_QuotesAreEscaped(t *testing.T) {
	got, err := findExpression(ID(`x"); alert(1); ("`))
	require.NoError(t, err)
	assert.Equal(t, `document.getElementById("x\"); alert(1); (\"")`, got)
}

func TestFindExpression_UnknownStrategy(t *testing.T) {
	_, err := findExpression(Locator{By: Strategy(42), Value: "x"})
	assert.ErrorContains(t, err, "strategy(42)")
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, `label="Alle"`, Label("Alle").String())
	assert.Equal(t, `id="appointment_submit"`, ID("appointment_submit").String())
}

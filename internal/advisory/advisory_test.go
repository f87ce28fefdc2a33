package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownLabels(t *testing.T) {
	for _, label := range AllClasses {
		e := Lookup(label)
		require.NotEmpty(t, e.Title, "title for %q", label)
		require.NotEmpty(t, e.Description, "description for %q", label)
		require.NotEmpty(t, e.Recommendation, "recommendation for %q", label)
		assert.Contains(t, []Severity{SeverityLow, SeverityMedium, SeverityHigh}, e.Severity, "severity for %q", label)
	}
}

func TestLookupFallsBackToNormal(t *testing.T) {
	assert.Equal(t, Lookup(FallbackLabel), Lookup("not_a_label"))
	assert.False(t, Known("not_a_label"))
	assert.True(t, Known("glioma"))
}

func TestSeverityAssignments(t *testing.T) {
	cases := map[string]Severity{
		"glioma":       SeverityHigh,
		"meningioma":   SeverityMedium,
		"normal":       SeverityLow,
		"pituitary":    SeverityMedium,
		"pneumonia":    SeverityMedium,
		"covid19":      SeverityHigh,
		"tuberculosis": SeverityHigh,
		"lung_opacity": SeverityMedium,
	}
	for label, want := range cases {
		assert.Equal(t, want, Lookup(label).Severity, "severity for %q", label)
	}
}

func TestClassesFor(t *testing.T) {
	brain := ClassesFor("brain")
	require.Len(t, brain, 4)
	assert.Equal(t, "glioma", brain[0])

	chest := ClassesFor("chest")
	require.Len(t, chest, 5)
	assert.Equal(t, "normal", chest[0])

	assert.Nil(t, ClassesFor("spine"))
}

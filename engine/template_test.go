package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredVarsPreservesOrderAndDuplicates(t *testing.T) {
	vars := RequiredVars("start {x} then {y} then {x} again")
	assert.Equal(t, []string{"x", "y", "x"}, vars)
}

func TestUniqueRequiredVarsCollapsesDuplicates(t *testing.T) {
	vars := UniqueRequiredVars("{a} {b} {a} {c}")
	assert.Equal(t, []string{"a", "b", "c"}, vars)
}

func TestRequiredVarsEmptyTemplate(t *testing.T) {
	assert.Empty(t, RequiredVars("no placeholders here"))
}

func TestValidateTemplateRejectsUnpairedBrace(t *testing.T) {
	err := ValidateTemplate("hello {name")
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ValidationMalformedTemplate, ve.Kind)
}

func TestValidateTemplateAcceptsWellFormed(t *testing.T) {
	assert.NoError(t, ValidateTemplate("hello {name}, your id is {id}"))
	assert.NoError(t, ValidateTemplate("no placeholders"))
}

func TestRenderSubstitutesEachOccurrenceIndependently(t *testing.T) {
	ctx := NewValueContext(map[string]any{"x": "1"})
	out, err := Render("{x}-{x}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "1-1", out)
}

func TestRenderIsIdempotent(t *testing.T) {
	ctx := NewValueContext(map[string]any{"x": "a", "y": "b"})
	first, err := Render("{x} and {y}", ctx)
	require.NoError(t, err)
	second, err := Render("{x} and {y}", ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderReportsFirstMissingVariable(t *testing.T) {
	ctx := NewValueContext(map[string]any{"x": "hi"})
	_, err := Render("{x} {y}", ctx)
	require.Error(t, err)
	var mv *MissingVariableError
	require.ErrorAs(t, err, &mv)
	assert.Equal(t, "y", mv.Variable)
}

func TestRenderMapConvenienceWrapper(t *testing.T) {
	out, err := RenderMap("{greeting}, {name}!", map[string]any{"greeting": "hi", "name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hi, world!", out)
}

package fielderr

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathChildDoesNotMutateParent(t *testing.T) {
	root := Path{"author"}
	a := root.Child("posts")
	b := root.Child("name")
	require.Equal(t, "author.posts", a.String())
	require.Equal(t, "author.name", b.String())
	require.Equal(t, "author", root.String())
}

func TestUnknownFieldShape(t *testing.T) {
	err := UnknownField("nickname", "resource", Path{"author"})
	require.Equal(t, CodeUnknownField, err.Code)
	require.Equal(t, "nickname", err.Field)
	require.Equal(t, "author.nickname", err.Path)
	require.Contains(t, err.Error(), "unknown_field")
}

func TestErrorsIsMatchesOnCode(t *testing.T) {
	err := DuplicateField("title", nil)
	require.True(t, errors.Is(err, &Error{Code: CodeDuplicateField}))
	require.False(t, errors.Is(err, &Error{Code: CodeUnknownField}))
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, CodeInvalidPagination, CodeOf(InvalidPagination("bad type")))
	require.Equal(t, Code(""), CodeOf(errors.New("plain")))
}

func TestJSONShape(t *testing.T) {
	raw, err := json.Marshal(RequiresFieldSelection("relationship", "author", nil))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "requires_field_selection", decoded["code"])
	require.Equal(t, "author", decoded["path"])
	require.NotContains(t, decoded, "suggestion_missing")
	require.Contains(t, decoded["message"], "nested field selection")
}

func TestMessageStability(t *testing.T) {
	// These strings are part of the client contract.
	require.Equal(t,
		`Unknown field "nickname" in resource`,
		UnknownField("nickname", "resource", nil).Message)
	require.Equal(t,
		`Field "payload" selected more than once`,
		DuplicateField("payload", nil).Message)
	require.Equal(t,
		`Calculation "excerpt" requires arguments`,
		CalculationRequiresArgs("excerpt", nil).Message)
}

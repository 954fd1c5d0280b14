package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	type input struct {
		Hash   string `validate:"required,hexadecimal,startswith=0x"`
		UserID string `validate:"required"`
	}

	t.Run("valid struct", func(t *testing.T) {
		assert.NoError(t, Validate(input{Hash: "0xabc123", UserID: "usr_1"}))
	})

	t.Run("every violation is reported", func(t *testing.T) {
		err := Validate(input{})
		require.ErrorIs(t, err, ErrValidationFailed)

		assert.ErrorContains(t, err, "'Hash'")
		assert.ErrorContains(t, err, "'UserID'")
	})

	t.Run("failing tag is named", func(t *testing.T) {
		err := Validate(input{Hash: "abc123", UserID: "usr_1"})
		require.ErrorIs(t, err, ErrValidationFailed)
		assert.ErrorContains(t, err, "startswith")
	})
}

package common_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-register/internal/common"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("inventory: item not found")
	err := common.NewAppError(common.CodeItemNotFound, "Item not found in inventory", common.KindCollaborator, cause)

	require.ErrorIs(t, err, cause)
	require.Equal(t, "Item not found in inventory: inventory: item not found", err.Error())

	wrapped := fmt.Errorf("enter item: %w", err)
	got, ok := common.AsAppError(wrapped)
	require.True(t, ok)
	require.Equal(t, common.CodeItemNotFound, got.Code)
	require.Equal(t, "collaborator", got.Kind.String())
	require.Equal(t, "Item not found in inventory", common.DisplayMessage(wrapped))
}

func TestDisplayMessagePlainError(t *testing.T) {
	require.Equal(t, "boom", common.DisplayMessage(errors.New("boom")))
	require.Empty(t, common.DisplayMessage(nil))

	var nilErr *common.AppError
	require.Empty(t, nilErr.Error())
	require.NoError(t, nilErr.Unwrap())
}

package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-validation-infra/internal/api"
	"github.com/kashguard/go-validation-infra/internal/ledger"
	"github.com/kashguard/go-validation-infra/internal/test"
	"github.com/kashguard/go-validation-infra/internal/util/command"
)

func TestWithServer(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		ctx := t.Context()

		var testError = errors.New("test error")

		s.Config.Logger.PrettyPrintConsole = false
		resultErr := command.WithServer(ctx, s.Config, func(ctx context.Context, s *api.Server) error {
			record, err := s.Ledger.GetRecord(ctx, 1, "0xunseen")
			require.ErrorIs(t, err, ledger.ErrRecordNotFound)

			assert.Nil(t, record)

			return testError
		})

		assert.Equal(t, testError, resultErr)
	})
}

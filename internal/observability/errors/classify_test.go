package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/botivate/systems-dashboard/internal/errors"
)

type fetchErr struct{}

func (*fetchErr) Error() string { return "x" }

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, "invalid_credentials", Classify(apperrors.New(apperrors.ErrCodeInvalidCredentials, "x")))
	assert.Equal(t, "remote_fetch", Classify(fmt.Errorf("sheet: %w", apperrors.ErrRemoteFetch)))
	assert.Equal(t, "errors_fetcherr", Classify(fmt.Errorf("wrap: %w", &fetchErr{})))
	assert.Equal(t, "context_deadlineexceedederror", Classify(context.DeadlineExceeded))
}

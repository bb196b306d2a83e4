package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/almacen/almacen-ui/internal/errors"
)

type customErr struct{}

func (*customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error", fmt.Errorf("wrap: %w", apperrors.Unauthorized("no")), "unauthorized"},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"custom type", fmt.Errorf("outer: %w", &customErr{}), "errors_customerr"},
		{"plain", goerrors.New("x"), "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

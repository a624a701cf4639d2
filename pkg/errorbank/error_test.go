package errorbank

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{InvalidConfig("bad"), 2},
		{IO("disk"), 3},
		{Malformed("row"), 4},
		{Constraint("fk"), 5},
		{Internal("boom"), 1},
		{nil, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.ExitCode())
		})
	}
}

func TestFrom_PreservesWrappedAppError(t *testing.T) {
	inner := Malformed("decode orders.csv", WithDetail("file", "orders.csv"))
	wrapped := fmt.Errorf("load: %w", inner)

	got := From(wrapped)
	assert.Same(t, inner, got)
	assert.Equal(t, "orders.csv", got.Details()["file"])
	assert.True(t, Is(wrapped, KindMalformedInput))
	assert.False(t, Is(wrapped, KindIO))
}

func TestFrom_WrapsPlainError(t *testing.T) {
	got := From(fs.ErrNotExist)
	assert.Equal(t, KindInternal, got.Kind())
	assert.True(t, errors.Is(got, fs.ErrNotExist))
	assert.Nil(t, From(nil))
}

func TestError_IncludesCause(t *testing.T) {
	err := IO("write users.csv", WithCause(errors.New("disk full")))
	assert.Equal(t, "write users.csv: disk full", err.Error())
}

// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelWrapping(t *testing.T) {
	sentinel := NewRetryable(ErrCodeQueryExecutionFailed, "query execution failed")
	wrapped := fmt.Errorf("%w: connection refused", sentinel)

	assert.True(t, stderrors.Is(wrapped, sentinel))
	assert.Equal(t, ErrCodeQueryExecutionFailed, CodeOf(wrapped))
	assert.True(t, IsRetryable(wrapped))
}

func TestCodeOf_UnstructuredError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.False(t, IsRetryable(stderrors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestStandardError_Message(t *testing.T) {
	err := New(ErrCodeBookNotFound, "no matching book was found")
	assert.Equal(t, "BOOK_NOT_FOUND: no matching book was found", err.Error())
	assert.False(t, err.Retryable)
}

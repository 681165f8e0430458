package natsadapter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectsBelongToStream(t *testing.T) {
	prefix := strings.TrimSuffix(SubjectAll, ">")
	for _, subj := range []string{SubjectRunCompleted, SubjectBoundarySimplified} {
		assert.True(t, strings.HasPrefix(subj, prefix), subj)
	}
}

func TestBoundarySimplifiedJSON(t *testing.T) {
	at := time.Date(2015, 9, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(BoundarySimplified{Region: "Thüringen", Before: 11233, After: 389, At: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"region":"Thüringen","before":11233,"after":389,"at":"2015-09-01T12:00:00Z"}`, string(data))
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseData(t *testing.T) {
	in, err := parseData(`{"title":"Ship it","progress":10}`, []string{"tags=work, q3", "title=Override"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"title":    "Override",
		"progress": 10.0,
		"tags":     "work, q3",
	}, in)

	in, err = parseData("", []string{"note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "a=b", in["note"])

	_, err = parseData("[1,2]", nil)
	assert.Error(t, err)

	_, err = parseData("", []string{"novalue"})
	assert.Error(t, err)
}

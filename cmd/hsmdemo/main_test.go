package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/testutil"
)

func TestRunLogsEveryTransitionBeforeReturning(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	s, err := start(testutil.QHsmTst(), &testutil.QHost{}, options{}, logger)
	require.NoError(t, err)
	s.out = io.Discard
	s.parse = parseSignals
	s.report = func(io.Writer, hsm.Event) {}

	require.NoError(t, run(context.Background(), s, options{events: testutil.QHsmTstEvents}, logger))

	select {
	case <-s.logged:
	default:
		t.Fatal("record logger still running")
	}
	// every script event but the three internal i's transitions
	assert.Equal(t, 8, strings.Count(buf.String(), "transition event="))
	assert.Equal(t, int64(0), s.feed.Dropped())
}

func TestParseSignals(t *testing.T) {
	events, err := parseSignals("gA")
	require.NoError(t, err)
	assert.Equal(t, []hsm.Event{{ID: testutil.G}, {ID: testutil.A}}, events)

	_, err = parseSignals("gz")
	assert.ErrorContains(t, err, "unknown signal")
}

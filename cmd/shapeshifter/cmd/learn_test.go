package cmd

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/shapeshifter/internal/bot"
	"github.com/Aman-CERP/shapeshifter/internal/markov"
)

func TestLearnCmd_PrintsReportAndStats(t *testing.T) {
	// Given: a two-sentence corpus
	dir := isolate(t)
	corpus := writeCorpus(t, dir, "the cat sat. the dog ran.")

	// When: learning it
	out, err := execute(t, dir, "", "learn", corpus)

	// Then: the reinit summary and the table are printed
	require.NoError(t, err)
	assert.Contains(t, out, "Engine reinitialization of "+corpus+" performed [TXT]")
	assert.Contains(t, out, "Knowledge base: "+corpus)
	assert.Contains(t, out, "Tuples:")
	assert.Contains(t, out, "Generation:")
}

func TestLearnCmd_JSON(t *testing.T) {
	dir := isolate(t)
	corpus := writeCorpus(t, dir, "the cat sat. the dog ran.")

	out, err := execute(t, dir, "", "learn", corpus, "--json")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, corpus, got["source"])
	assert.Equal(t, float64(3), got["order"])
	assert.Greater(t, got["tuples"], float64(0))
	assert.Contains(t, got, "load_time_ms")
}

func TestLearnCmd_RequiresSource(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, dir, "", "learn")

	assert.Error(t, err)
}

func TestStatusInfo(t *testing.T) {
	st := bot.Status{
		Stats:        markov.Stats{Order: 2, Tuples: 4, Tokens: 5, Starters: 2, Finishers: 2},
		Cautious:     true,
		Compensation: 7,
		SampleSize:   5,
		Source:       "c.txt",
		Format:       "TXT",
	}

	info := statusInfo(st, 3*time.Millisecond, "off")

	assert.Equal(t, "c.txt", info.Source)
	assert.Equal(t, 4, info.Tuples)
	assert.Equal(t, 5, info.Tokens)
	assert.True(t, info.Cautious)
	assert.Equal(t, 3*time.Millisecond, info.LoadTime)
	assert.Equal(t, "off", info.WatcherStatus)
}

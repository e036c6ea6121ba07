package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-menu/pkg/simplemenu"
	memorystorage "github.com/tendant/simple-menu/pkg/simplemenu/storage/memory"
	"github.com/tendant/simple-menu/pkg/simplemenu/visibility"
)

func newTestService(t *testing.T) simplemenu.Service {
	t.Helper()
	svc, err := simplemenu.New(
		simplemenu.WithBlobStore(memorystorage.New()),
		simplemenu.WithVisibilityStore(visibility.New()),
	)
	require.NoError(t, err)
	return svc
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestParseOptions(t *testing.T) {
	opts := parseOptions([]string{"--zone=clean", "--json", "a.png", "--name=Latte", "--dry", "b.png"})

	assert.True(t, opts.UseJSON)
	assert.Equal(t, "clean", opts.Flags["zone"])
	assert.Equal(t, "Latte", opts.Flags["name"])
	assert.Equal(t, "true", opts.Flags["dry"])
	assert.Equal(t, []string{"a.png", "b.png"}, opts.Args)
}

func TestFlagPair(t *testing.T) {
	assert.Equal(t, "WC", flagPair(true, true))
	assert.Equal(t, "W-", flagPair(true, false))
	assert.Equal(t, "-C", flagPair(false, true))
	assert.Equal(t, "--", flagPair(false, false))
}

func TestApplyVisibilityFlags(t *testing.T) {
	opts := parseOptions([]string{"--show-premium-clean=true", "--show-normal-clean=false"})
	record, changed, err := applyVisibilityFlags(visibility.DefaultRecord(), opts)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, record.ShowNormalWatermarked)
	assert.False(t, record.ShowNormalClean)
	assert.False(t, record.ShowPremiumWatermarked)
	assert.True(t, record.ShowPremiumClean)

	_, changed, err = applyVisibilityFlags(visibility.DefaultRecord(), parseOptions(nil))
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = applyVisibilityFlags(visibility.DefaultRecord(), parseOptions([]string{"--show-normal-clean=maybe"}))
	assert.Error(t, err)
}

func TestUploadListAndStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	dir := t.TempDir()

	var out bytes.Buffer
	opts := parseOptions([]string{"--zone=clean", "--name=Latte", writePNG(t, dir, "a.png"), writePNG(t, dir, "b.png")})
	require.NoError(t, handleUpload(ctx, &out, svc, opts))
	assert.Contains(t, out.String(), "uploaded menu/clean/Latte_1")
	assert.Contains(t, out.String(), "uploaded menu/clean/Latte_2")

	out.Reset()
	require.NoError(t, handleList(ctx, &out, svc, parseOptions([]string{"--zone=clean"})))
	assert.Contains(t, out.String(), "Latte_1")
	assert.Contains(t, out.String(), "Total: 2")

	out.Reset()
	require.NoError(t, handleList(ctx, &out, svc, parseOptions([]string{"--zone=premium"})))
	assert.Contains(t, out.String(), "Total: 0")

	catalog, err := svc.Catalog(ctx)
	require.NoError(t, err)
	stats := computeStats(catalog, time.Now())
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 2, stats.ByZone[simplemenu.ZoneClean])
	assert.Equal(t, 2, stats.ByView["normal_clean"])
	assert.Equal(t, 0, stats.ByView["premium_clean"])
	require.NotNil(t, stats.Oldest)
	assert.False(t, stats.Oldest.After(*stats.Newest))
}

func TestHandleMultiZone(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	dir := t.TempDir()

	var out bytes.Buffer
	require.NoError(t, handleUpload(ctx, &out, svc, parseOptions([]string{"--zone=watermarked", "--name=Mocha", writePNG(t, dir, "m.png")})))

	out.Reset()
	require.NoError(t, handleMultiZone(ctx, &out, svc, "rename", parseOptions([]string{"--name=Mocha", "--to=Cafe"})))
	assert.True(t, strings.Contains(out.String(), "rename Mocha -> Cafe: done in watermarked"), out.String())

	out.Reset()
	err := handleMultiZone(ctx, &out, svc, "rename", parseOptions([]string{"--name=Cafe", "--to=Cafe"}))
	assert.True(t, simplemenu.IsValidation(err))

	out.Reset()
	require.NoError(t, handleMultiZone(ctx, &out, svc, "delete", parseOptions([]string{"--name=Cafe", "--json"})))
	assert.Contains(t, out.String(), `"op": "delete"`)
}

func TestHandleVisibility(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	var out bytes.Buffer
	require.NoError(t, handleVisibility(ctx, &out, svc, parseOptions([]string{"--name=Latte", "--show-premium-watermarked=true"})))
	assert.Contains(t, out.String(), "premium watermarked: true")
	assert.True(t, svc.GetVisibility("Latte").ShowPremiumWatermarked)

	assert.Error(t, handleVisibility(ctx, &out, svc, parseOptions(nil)))
}

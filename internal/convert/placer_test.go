// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2md/internal/extract"
	"github.com/pdiddy/pdf2md/pkg/types"
)

func placerRequest(t *testing.T, embed bool, folder string) types.ConversionRequest {
	t.Helper()
	return types.ConversionRequest{
		Source:      types.SourceFile{Path: "/src/a/doc.pdf", RelPath: filepath.Join("a", "doc.pdf")},
		OutputRoot:  t.TempDir(),
		EmbedImages: embed,
		ImageFolder: folder,
	}
}

func TestImagePlacer_EmbedWritesNothing(t *testing.T) {
	req := placerRequest(t, true, "images")
	p := NewImagePlacer(req)

	frag, err := p.Place(types.ExtractedImage{PageNumber: 1, Index: 1, Data: []byte("abc"), Ext: "png"})
	require.NoError(t, err)

	assert.Equal(t, "![Image](data:image/png;base64,YWJj)\n", frag)
	assert.Equal(t, 1, p.Placed())
	_, statErr := os.Stat(req.ImageDir())
	assert.True(t, os.IsNotExist(statErr))
}

func TestImagePlacer_FolderModeUsesCustomFolder(t *testing.T) {
	req := placerRequest(t, false, "figures")
	p := NewImagePlacer(req)

	frag, err := p.Place(types.ExtractedImage{PageNumber: 7, Index: 3, Data: []byte("img"), Ext: "jpg"})
	require.NoError(t, err)

	assert.Equal(t, "![Image](figures/doc/image_007_03.jpg)\n", frag)
	data, err := os.ReadFile(filepath.Join(req.OutputRoot, "a", "figures", "doc", "image_007_03.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), data)
}

func TestImagePlacer_ExistingFolderIsFine(t *testing.T) {
	req := placerRequest(t, false, "images")
	require.NoError(t, os.MkdirAll(req.ImageDir(), 0o755))

	_, err := NewImagePlacer(req).Place(types.ExtractedImage{PageNumber: 1, Index: 1, Data: []byte("x"), Ext: "png"})
	assert.NoError(t, err)
}

func TestImagePlacer_WriteFailure(t *testing.T) {
	req := placerRequest(t, false, "images")
	require.NoError(t, os.MkdirAll(req.ImageDir(), 0o755))
	// A directory where the image file should go makes the write fail.
	require.NoError(t, os.Mkdir(filepath.Join(req.ImageDir(), "image_001_01.png"), 0o755))

	_, err := NewImagePlacer(req).Place(types.ExtractedImage{PageNumber: 1, Index: 1, Data: []byte("x"), Ext: "png"})
	require.ErrorIs(t, err, extract.ErrExtraction)
	assert.Contains(t, err.Error(), "image_001_01.png")
}

func TestImagePlacer_Discard(t *testing.T) {
	req := placerRequest(t, false, "images")
	p := NewImagePlacer(req)
	for i := 1; i <= 2; i++ {
		_, err := p.Place(types.ExtractedImage{PageNumber: 1, Index: i, Data: []byte("x"), Ext: "png"})
		require.NoError(t, err)
	}

	p.Discard()

	_, err := os.Stat(req.ImageDir())
	assert.True(t, os.IsNotExist(err), "empty image folder should be removed")
	_, err = os.Stat(filepath.Dir(req.ImageDir()))
	assert.True(t, os.IsNotExist(err), "image folder created by the placer should be removed")
}

func TestImagePlacer_DiscardKeepsFilesItDidNotCreate(t *testing.T) {
	req := placerRequest(t, false, "images")
	require.NoError(t, os.MkdirAll(req.ImageDir(), 0o755))
	previous := filepath.Join(req.ImageDir(), "image_001_01.png")
	require.NoError(t, os.WriteFile(previous, []byte("old"), 0o644))

	p := NewImagePlacer(req)
	for i := 1; i <= 2; i++ {
		_, err := p.Place(types.ExtractedImage{PageNumber: 1, Index: i, Data: []byte("new"), Ext: "png"})
		require.NoError(t, err)
	}
	p.Discard()

	assert.FileExists(t, previous)
	assert.NoFileExists(t, filepath.Join(req.ImageDir(), "image_001_02.png"))
	assert.DirExists(t, req.ImageDir())
}

func TestImagePlacer_SiblingDocumentsDoNotShareFiles(t *testing.T) {
	root := t.TempDir()
	reqA := types.ConversionRequest{Source: types.SourceFile{RelPath: "a.pdf"}, OutputRoot: root, ImageFolder: "images"}
	reqB := types.ConversionRequest{Source: types.SourceFile{RelPath: "b.pdf"}, OutputRoot: root, ImageFolder: "images"}

	pa := NewImagePlacer(reqA)
	fragA, err := pa.Place(types.ExtractedImage{PageNumber: 1, Index: 1, Data: []byte("AAAA"), Ext: "png"})
	require.NoError(t, err)

	pb := NewImagePlacer(reqB)
	_, err = pb.Place(types.ExtractedImage{PageNumber: 1, Index: 1, Data: []byte("BBBB"), Ext: "png"})
	require.NoError(t, err)
	pb.Discard()

	assert.Equal(t, "![Image](images/a/image_001_01.png)\n", fragA)
	data, err := os.ReadFile(filepath.Join(root, "images", "a", "image_001_01.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("AAAA"), data)
	assert.NoDirExists(t, filepath.Join(root, "images", "b"))
}

func TestImagePlacer_DiscardKeepsForeignFiles(t *testing.T) {
	req := placerRequest(t, false, "images")
	require.NoError(t, os.MkdirAll(req.ImageDir(), 0o755))
	other := filepath.Join(req.ImageDir(), "keep.png")
	require.NoError(t, os.WriteFile(other, []byte("k"), 0o644))

	p := NewImagePlacer(req)
	_, err := p.Place(types.ExtractedImage{PageNumber: 1, Index: 1, Data: []byte("x"), Ext: "png"})
	require.NoError(t, err)
	p.Discard()

	_, err = os.Stat(other)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(req.ImageDir(), "image_001_01.png"))
	assert.True(t, os.IsNotExist(err))
}

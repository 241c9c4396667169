package wizard

import (
	"fmt"
	"testing"

	"github.com/blues/crowdfund/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func images(n int) []model.Image {
	out := make([]model.Image, n)
	for i := range out {
		out[i] = model.Image{Data: fmt.Sprintf("d%d", i), Name: fmt.Sprintf("%d.png", i)}
	}
	return out
}

func TestDraft_GalleryBounded(t *testing.T) {
	var d Draft

	n, err := d.AddGallery(images(3)...)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = d.AddGallery(images(4)...)
	assert.ErrorIs(t, err, ErrGalleryFull)
	assert.Equal(t, 2, n)
	assert.Len(t, d.Gallery, model.MaxGalleryImages)

	n, err = d.AddGallery(images(1)...)
	assert.ErrorIs(t, err, ErrGalleryFull)
	assert.Equal(t, 0, n)
}

func TestDraft_RemoveAndReset(t *testing.T) {
	var d Draft
	assert.False(t, d.HasImages())

	_, err := d.AddGallery(images(3)...)
	require.NoError(t, err)
	d.RemoveGallery(1)
	d.RemoveGallery(10)
	require.Len(t, d.Gallery, 2)
	assert.Equal(t, "2.png", d.Gallery[1].Name)
	assert.True(t, d.HasImages())

	d.Reset()
	assert.False(t, d.HasImages())
}

func TestDraft_Payload(t *testing.T) {
	var d Draft
	d.SetCover(model.Image{Data: "c", Name: "cover.png"})
	assert.True(t, d.HasImages())

	p := d.Payload("42")
	assert.Equal(t, "42", p.CampaignID)
	assert.Equal(t, "cover.png", p.CoverImage.Name)
	assert.Empty(t, p.GalleryImages)

	d.ClearCover()
	assert.False(t, d.HasImages())
}

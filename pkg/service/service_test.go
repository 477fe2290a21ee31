package service

import (
	"context"
	"testing"
	"time"

	"linkvault/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateValidation(t *testing.T) {
	past := time.Now().Add(-time.Second)
	zero := 0

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"neither text nor file", CreateRequest{}},
		{"both text and file", CreateRequest{Text: "hi", FileKey: "k"}},
		{"expiry in the past", CreateRequest{Text: "hi", ExpiresAt: &past}},
		{"short password", CreateRequest{Text: "hi", Password: "abc"}},
		{"non-positive max views", CreateRequest{Text: "hi", MaxViews: &zero}},
	}

	svc := newTestService(newMemStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), &tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateDefaultsExpiry(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	before := time.Now()
	rec, err := svc.Create(context.Background(), &CreateRequest{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, storage.KindText, rec.Kind)
	assert.Equal(t, "hello", rec.Content)
	assert.Nil(t, rec.PasswordHash)
	assert.Nil(t, rec.MaxViews)
	assert.WithinDuration(t, before.Add(10*time.Minute), rec.ExpiresAt, 5*time.Second)
	assert.True(t, store.has(rec.ID))
}

func TestCreateFileRecord(t *testing.T) {
	svc := newTestService(newMemStore())

	rec, err := svc.Create(context.Background(), &CreateRequest{
		FileKey:  "1700000000_notes.txt",
		FileName: "notes.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, storage.KindFile, rec.Kind)
	assert.Equal(t, "1700000000_notes.txt", rec.Content)
	require.NotNil(t, rec.DisplayName)
	assert.Equal(t, "notes.txt", *rec.DisplayName)
}

func TestCreateHashesPassword(t *testing.T) {
	svc := newTestService(newMemStore())

	rec, err := svc.Create(context.Background(), &CreateRequest{Text: "hi", Password: "hunter2"})
	require.NoError(t, err)
	require.NotNil(t, rec.PasswordHash)
	assert.NotEqual(t, "hunter2", *rec.PasswordHash)
}

// fixedIDGen returns a scripted sequence of identifiers.
type fixedIDGen struct {
	ids []string
	i   int
}

func (g *fixedIDGen) NewID() (string, error) {
	id := g.ids[g.i%len(g.ids)]
	g.i++
	return id, nil
}

func TestCreateRetriesOnCollision(t *testing.T) {
	store := newMemStore()
	seedText(t, store, "taken", "existing", nil)

	svc := newTestService(store)
	svc.gen = &fixedIDGen{ids: []string{"taken", "taken", "fresh1"}}

	rec, err := svc.Create(context.Background(), &CreateRequest{Text: "new"})
	require.NoError(t, err)
	assert.Equal(t, "fresh1", rec.ID)
}

func TestCreateGivesUpAfterBoundedRetries(t *testing.T) {
	store := newMemStore()
	seedText(t, store, "taken", "existing", nil)

	svc := newTestService(store)
	svc.gen = &fixedIDGen{ids: []string{"taken"}}

	_, err := svc.Create(context.Background(), &CreateRequest{Text: "new"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

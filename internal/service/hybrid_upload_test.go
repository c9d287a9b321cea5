package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/metrics"
	"github.com/MKhiriev/go-doc-keeper/internal/mock"
	"github.com/MKhiriev/go-doc-keeper/internal/store"
	"github.com/MKhiriev/go-doc-keeper/models"
)

var (
	errGone      = models.NewRemoteError(http.StatusGone, errors.New("gone"))
	errForbidden = models.NewRemoteError(http.StatusForbidden, errors.New("forbidden"))
	errInternal  = models.NewRemoteError(http.StatusInternalServerError, errors.New("internal"))
)

func byIDDesc(a, b models.Document) int {
	return strings.Compare(b.ID(), a.ID())
}

func (f *hybridFixture) pending(t *testing.T) ([]models.PendingUpsert, []string) {
	t.Helper()
	upserts, err := f.local.PendingUpserts(f.ctx)
	require.NoError(t, err)
	removes, err := f.local.PendingRemoves(f.ctx)
	require.NoError(t, err)
	return upserts, removes
}

func TestHybridCollection_Upload_UpsertAccepted(t *testing.T) {
	f := newHybridFixture(t, models.DefaultHybridOptions())
	_, err := f.local.Upsert(f.ctx, []models.Document{{"_id": "1", "v": 1}}, nil)
	require.NoError(t, err)

	f.remote.EXPECT().
		Upsert(gomock.Any(), docEq(models.Document{"_id": "1", "v": 1}), gomock.Nil()).
		Return(models.Document{"_id": "1", "v": 1, "_rev": 5}, nil)

	require.NoError(t, f.col.Upload(f.ctx))

	upserts, removes := f.pending(t)
	assert.Empty(t, upserts)
	assert.Empty(t, removes)
	assert.EqualValues(t, 5, f.localDoc(t, "1")["_rev"], "the canonical document is cached")
}

func TestHybridCollection_Upload_SendsBase(t *testing.T) {
	f := newHybridFixture(t, models.DefaultHybridOptions())
	base := models.Document{"_id": "1", "_rev": 1, "v": "a"}
	require.NoError(t, f.local.CacheOne(f.ctx, base))
	_, err := f.local.Upsert(f.ctx, []models.Document{{"_id": "1", "_rev": 1, "v": "b"}}, nil)
	require.NoError(t, err)

	f.remote.EXPECT().
		Upsert(gomock.Any(), docEq(models.Document{"_id": "1", "_rev": 1, "v": "b"}), docEq(base)).
		Return(models.Document{"_id": "1", "_rev": 2, "v": "b"}, nil)

	require.NoError(t, f.col.Upload(f.ctx))
	assert.EqualValues(t, 2, f.localDoc(t, "1")["_rev"])
}

func TestHybridCollection_Upload_EditedDuringUploadStaysPending(t *testing.T) {
	f := newHybridFixture(t, models.DefaultHybridOptions())
	_, err := f.local.Upsert(f.ctx, []models.Document{{"_id": "1", "v": "first"}}, nil)
	require.NoError(t, err)

	f.remote.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, doc, _ models.Document) (models.Document, error) {
			_, err := f.local.Upsert(ctx, []models.Document{{"_id": "1", "v": "second"}}, nil)
			require.NoError(t, err)
			return doc, nil
		})

	require.NoError(t, f.col.Upload(f.ctx))

	upserts, _ := f.pending(t)
	require.Len(t, upserts, 1)
	assert.Equal(t, "second", upserts[0].Doc["v"])
	assert.Equal(t, "first", upserts[0].Base["v"], "the uploaded version becomes the base")
}

func TestHybridCollection_Upload_NoDocumentBackDropsLocal(t *testing.T) {
	f := newHybridFixture(t, models.DefaultHybridOptions())
	_, err := f.local.Upsert(f.ctx, []models.Document{{"_id": "1"}}, nil)
	require.NoError(t, err)

	f.remote.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	require.NoError(t, f.col.Upload(f.ctx))

	upserts, removes := f.pending(t)
	assert.Empty(t, upserts)
	assert.Empty(t, removes)
	assert.Nil(t, f.localDoc(t, "1"))
}

func TestHybridCollection_Upload_UpsertFailures(t *testing.T) {
	tests := []struct {
		name         string
		firstErr     error
		wantErr      error
		secondCalled bool
		// pending upsert ids left after the upload
		wantPending []string
	}{
		{
			name:         "gone drops the document and continues",
			firstErr:     errGone,
			secondCalled: true,
		},
		{
			name:        "forbidden drops the document and stops",
			firstErr:    errForbidden,
			wantErr:     models.ErrForbidden,
			wantPending: []string{"a"},
		},
		{
			name:        "other faults stop and keep everything",
			firstErr:    errInternal,
			wantErr:     models.ErrRemoteFault,
			wantPending: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHybridFixture(t, models.DefaultHybridOptions().Apply(models.WithSortUpserts(byIDDesc)))
			_, err := f.local.Upsert(f.ctx, []models.Document{{"_id": "a"}, {"_id": "b"}}, nil)
			require.NoError(t, err)

			first := f.remote.EXPECT().
				Upsert(gomock.Any(), docEq(models.Document{"_id": "b"}), gomock.Any()).
				Return(nil, tt.firstErr)
			if tt.secondCalled {
				f.remote.EXPECT().
					Upsert(gomock.Any(), docEq(models.Document{"_id": "a"}), gomock.Any()).
					Return(models.Document{"_id": "a", "_rev": 1}, nil).
					After(first)
			}

			err = f.col.Upload(f.ctx)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			upserts, removes := f.pending(t)
			ids := make([]string, 0, len(upserts))
			for _, u := range upserts {
				ids = append(ids, u.Doc.ID())
			}
			assert.ElementsMatch(t, tt.wantPending, ids)
			assert.Empty(t, removes, "dropped documents leave no pending remove")
		})
	}
}

func TestHybridCollection_Upload_Removes(t *testing.T) {
	tests := []struct {
		name        string
		remoteErr   error
		wantErr     error
		wantPending []string
	}{
		{name: "accepted", remoteErr: nil},
		{name: "gone counts as done", remoteErr: errGone},
		{name: "forbidden resolves and stops", remoteErr: errForbidden, wantErr: models.ErrForbidden, wantPending: []string{"y"}},
		{name: "other faults keep both", remoteErr: errInternal, wantErr: models.ErrRemoteFault, wantPending: []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHybridFixture(t, models.DefaultHybridOptions())
			require.NoError(t, f.local.Remove(f.ctx, "x"))
			require.NoError(t, f.local.Remove(f.ctx, "y"))

			first := f.remote.EXPECT().Remove(gomock.Any(), "x").Return(tt.remoteErr)
			if tt.wantErr == nil {
				f.remote.EXPECT().Remove(gomock.Any(), "y").Return(nil).After(first)
			}

			err := f.col.Upload(f.ctx)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			_, removes := f.pending(t)
			assert.ElementsMatch(t, tt.wantPending, removes)
		})
	}
}

func TestHybridCollection_Upload_UpsertsBeforeRemoves(t *testing.T) {
	f := newHybridFixture(t, models.DefaultHybridOptions())
	_, err := f.local.Upsert(f.ctx, []models.Document{{"_id": "1"}}, nil)
	require.NoError(t, err)
	require.NoError(t, f.local.Remove(f.ctx, "2"))

	gomock.InOrder(
		f.remote.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.Document{"_id": "1"}, nil),
		f.remote.EXPECT().Remove(gomock.Any(), "2").Return(nil),
	)

	require.NoError(t, f.col.Upload(f.ctx))
}

func TestHybridDB_Upload(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := store.NewMemoryBackend()

	db := NewHybridDB(models.DefaultHybridOptions(), metrics.New(), logger.Nop())
	remotes := map[string]*mock.MockRemoteCollection{}
	for _, name := range []string{"zeta", "alpha", "mid"} {
		local := store.NewLocalCollection(name, backend, logger.Nop())
		_, err := local.Upsert(ctx, []models.Document{{"_id": name}}, nil)
		require.NoError(t, err)

		remotes[name] = mock.NewMockRemoteCollection(ctrl)
		_, err = db.AddCollection(local, remotes[name])
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, db.CollectionNames())

	gomock.InOrder(
		remotes["alpha"].EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.Document{"_id": "alpha"}, nil),
		remotes["mid"].EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errInternal),
	)

	err := db.Upload(ctx)
	require.ErrorIs(t, err, models.ErrRemoteFault)
	assert.Contains(t, err.Error(), "mid")
}

func TestHybridDB_Collections(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewHybridDB(models.DefaultHybridOptions(), nil, logger.Nop())

	_, err := db.Collection("notes")
	require.ErrorIs(t, err, ErrCollectionNotFound)
	require.ErrorIs(t, err, models.ErrNotFound)

	local := store.NewLocalCollection("notes", store.NewMemoryBackend(), logger.Nop())
	col, err := db.AddCollection(local, mock.NewMockRemoteCollection(ctrl), models.WithShortcut(true))
	require.NoError(t, err)
	assert.True(t, col.Options().Shortcut)
	assert.True(t, col.Options().Interim, "other defaults are inherited")

	got, err := db.Collection("notes")
	require.NoError(t, err)
	assert.Same(t, col, got)

	_, err = db.AddCollection(local, nil)
	require.ErrorIs(t, err, models.ErrInvalidArgument)

	db.RemoveCollection("notes")
	assert.Empty(t, db.CollectionNames())
}

func TestHybridDB_Mount(t *testing.T) {
	ctrl := gomock.NewController(t)
	localDB := store.NewLocalDB(store.NewMemoryBackend(), logger.Nop())
	remoteDB := mock.NewMockRemoteDB(ctrl)
	remoteDB.EXPECT().Collection("notes").Return(mock.NewMockRemoteCollection(ctrl))

	db := NewHybridDB(models.DefaultHybridOptions(), nil, logger.Nop())
	col, err := db.Mount(localDB, remoteDB, "notes")
	require.NoError(t, err)
	assert.Equal(t, "notes", col.Name())
	assert.Equal(t, []string{"notes"}, localDB.CollectionNames())
}

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petvoice/pkg/persona"
	"petvoice/pkg/schema"
)

var base = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func engines(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		EngineJSON: func() Store {
			st, err := NewByEngine(EngineJSON, filepath.Join(t.TempDir(), "petvoice.json"))
			require.NoError(t, err)
			return st
		},
		EngineSQLite: func() Store {
			st, err := NewByEngine(EngineSQLite, filepath.Join(t.TempDir(), "petvoice.db"))
			require.NoError(t, err)
			return st
		},
	}
}

func pet(id, owner string, created time.Time) schema.Pet {
	neutered := true
	return schema.Pet{
		ID:      id,
		OwnerID: owner,
		PetPersona: persona.PetPersona{
			Name:         "Rex",
			Species:      "dog",
			Gender:       persona.GenderMale,
			UserNickname: "Sam",
			Likes:        "tennis balls",
		},
		IsNeutered: &neutered,
		Allergies:  "chicken",
		Status:     schema.PetActive,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func diary(id, owner, petID, date string, public bool, created time.Time) schema.Diary {
	return schema.Diary{
		ID:          id,
		OwnerID:     owner,
		PetID:       petID,
		Title:       "Beach day",
		Date:        date,
		Weather:     "Clear",
		WeatherIcon: "01d",
		Temperature: "21°C",
		UserContent: "We went to the beach",
		AIContent:   "Dear diary, sand everywhere!",
		AIOrigin:    "fallback",
		IsPublic:    public,
		Status:      schema.DiaryPublished,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestPets(t *testing.T) {
	for name, open := range engines(t) {
		t.Run(name, func(t *testing.T) {
			st := open()
			t.Cleanup(func() { _ = st.Close() })

			_, ok, err := st.GetPet("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, st.SavePet(pet("p1", "u1", base)))
			require.NoError(t, st.SavePet(pet("p2", "u1", base.Add(time.Hour))))
			require.NoError(t, st.SavePet(pet("p3", "u2", base)))

			got, ok, err := st.GetPet("p1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "Rex", got.Name)
			assert.Equal(t, persona.GenderMale, got.Gender)
			assert.Equal(t, "Sam", got.Persona().UserNickname)
			require.NotNil(t, got.IsNeutered)
			assert.True(t, *got.IsNeutered)
			assert.True(t, base.Equal(got.CreatedAt))

			pets, err := st.ListPets("u1")
			require.NoError(t, err)
			require.Len(t, pets, 2)
			assert.Equal(t, "p2", pets[0].ID, "newest first")

			require.NoError(t, st.DeletePet("p2"))
			pets, err = st.ListPets("u1")
			require.NoError(t, err)
			require.Len(t, pets, 1)

			got, ok, err = st.GetPet("p2")
			require.NoError(t, err)
			require.True(t, ok, "soft deleted pets stay readable")
			assert.Equal(t, schema.PetInactive, got.Status)

			assert.ErrorIs(t, st.DeletePet("missing"), ErrNotFound)
		})
	}
}

func TestDiaries(t *testing.T) {
	for name, open := range engines(t) {
		t.Run(name, func(t *testing.T) {
			st := open()
			t.Cleanup(func() { _ = st.Close() })

			for i := range 5 {
				d := diary(fmt.Sprintf("d%d", i), "u1", "p1", fmt.Sprintf("2025-05-0%d", i+1), i%2 == 0, base)
				require.NoError(t, st.SaveDiary(d))
			}
			require.NoError(t, st.SaveDiary(diary("other", "u1", "p2", "2025-04-01", false, base)))
			require.NoError(t, st.SaveDiary(diary("stranger", "u2", "p9", "2025-04-02", true, base)))

			got, ok, err := st.GetDiary("d0")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "Dear diary, sand everywhere!", got.AIContent)
			assert.True(t, got.IsPublic)

			page, total, err := st.ListDiaries("u1", "p1", 1, 2)
			require.NoError(t, err)
			assert.Equal(t, 5, total)
			require.Len(t, page, 2)
			assert.Equal(t, "d4", page[0].ID)
			assert.Equal(t, "d3", page[1].ID)

			page, total, err = st.ListDiaries("u1", "p1", 3, 2)
			require.NoError(t, err)
			assert.Equal(t, 5, total)
			require.Len(t, page, 1)
			assert.Equal(t, "d0", page[0].ID)

			_, total, err = st.ListDiaries("u1", "", 1, 10)
			require.NoError(t, err)
			assert.Equal(t, 6, total)

			page, total, err = st.ListDiaries("u1", "p1", 9, 10)
			require.NoError(t, err)
			assert.Equal(t, 5, total)
			assert.Empty(t, page)

			public, total, err := st.ListPublicDiaries(1, 10)
			require.NoError(t, err)
			assert.Equal(t, 4, total)
			for _, d := range public {
				assert.True(t, d.IsPublic)
			}

			count, err := st.LikeDiary("d0")
			require.NoError(t, err)
			assert.Equal(t, 1, count)
			count, err = st.LikeDiary("d0")
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			public, _, err = st.ListPublicDiaries(1, 1)
			require.NoError(t, err)
			require.Len(t, public, 1)
			assert.Equal(t, "d0", public[0].ID, "most liked first")
			_, err = st.LikeDiary("missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.DeleteDiary("d0"))
			_, ok, err = st.GetDiary("d0")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.ErrorIs(t, st.DeleteDiary("d0"), ErrNotFound)
		})
	}
}

func TestSubSecondOrdering(t *testing.T) {
	for name, open := range engines(t) {
		t.Run(name, func(t *testing.T) {
			st := open()
			t.Cleanup(func() { _ = st.Close() })

			require.NoError(t, st.SavePet(pet("older", "u1", base.Add(500*time.Millisecond))))
			require.NoError(t, st.SavePet(pet("newer", "u1", base.Add(510*time.Millisecond))))

			pets, err := st.ListPets("u1")
			require.NoError(t, err)
			require.Len(t, pets, 2)
			assert.Equal(t, "newer", pets[0].ID)
			assert.Equal(t, "older", pets[1].ID)

			require.NoError(t, st.SaveDiary(diary("first", "u1", "p1", "2025-05-01", true, base.Add(500*time.Millisecond))))
			require.NoError(t, st.SaveDiary(diary("second", "u1", "p1", "2025-05-01", true, base.Add(510*time.Millisecond))))

			mine, _, err := st.ListDiaries("u1", "p1", 1, 10)
			require.NoError(t, err)
			require.Len(t, mine, 2)
			assert.Equal(t, "second", mine[0].ID)

			public, _, err := st.ListPublicDiaries(1, 10)
			require.NoError(t, err)
			require.Len(t, public, 2)
			assert.Equal(t, "second", public[0].ID)
		})
	}
}

// unwritable points the store at a path whose parent is a regular file, so every save fails.
func unwritable(t *testing.T, st *JSONStore) {
	t.Helper()
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	st.filePath = filepath.Join(blocker, "petvoice.json")
}

func TestJSONStoreRollsBackFailedWrites(t *testing.T) {
	st, err := NewJSONStore(filepath.Join(t.TempDir(), "petvoice.json"))
	require.NoError(t, err)
	require.NoError(t, st.SavePet(pet("kept", "u1", base)))
	require.NoError(t, st.SaveDiary(diary("d1", "u1", "kept", "2025-05-01", true, base)))
	unwritable(t, st)

	assert.Error(t, st.SavePet(pet("lost", "u1", base)))
	_, ok, err := st.GetPet("lost")
	require.NoError(t, err)
	assert.False(t, ok, "failed insert must not be visible")

	renamed := pet("kept", "u1", base)
	renamed.Name = "Max"
	assert.Error(t, st.SavePet(renamed))
	got, _, _ := st.GetPet("kept")
	assert.Equal(t, "Rex", got.Name, "failed update keeps the old record")

	assert.Error(t, st.DeletePet("kept"))
	got, _, _ = st.GetPet("kept")
	assert.Equal(t, schema.PetActive, got.Status)

	count, err := st.LikeDiary("d1")
	assert.Error(t, err)
	assert.Zero(t, count)
	d, _, _ := st.GetDiary("d1")
	assert.Zero(t, d.LikesCount)

	assert.Error(t, st.DeleteDiary("d1"))
	_, ok, _ = st.GetDiary("d1")
	assert.True(t, ok, "failed delete keeps the diary")

	assert.Error(t, st.SaveDiary(diary("d2", "u1", "kept", "2025-05-02", true, base)))
	_, ok, _ = st.GetDiary("d2")
	assert.False(t, ok)
}

func TestJSONStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "petvoice.json")
	st, err := NewJSONStore(path)
	require.NoError(t, err)
	require.NoError(t, st.SavePet(pet("p1", "u1", base)))
	require.NoError(t, st.SaveDiary(diary("d1", "u1", "p1", "2025-05-01", true, base)))

	reopened, err := NewJSONStore(path)
	require.NoError(t, err)
	_, ok, err := reopened.GetPet("p1")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = reopened.GetDiary("d1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewByEngineUnknown(t *testing.T) {
	_, err := NewByEngine("postgres", filepath.Join(t.TempDir(), "x"))
	assert.Error(t, err)
}

func TestPage(t *testing.T) {
	tests := []struct {
		page, limit                     int
		wantPage, wantLimit, wantOffset int
	}{
		{0, 0, 1, DefaultPageSize, 0},
		{2, 5, 2, 5, 5},
		{-3, 500, 1, MaxPageSize, 0},
	}
	for _, tt := range tests {
		p, l, o := Page(tt.page, tt.limit)
		assert.Equal(t, []int{tt.wantPage, tt.wantLimit, tt.wantOffset}, []int{p, l, o})
	}
}

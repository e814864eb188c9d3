package store

import (
	"errors"
	"os"
	"sync"
	"time"

	"petvoice/pkg/schema"
	"petvoice/pkg/utils"
)

type fileState struct {
	Pets    map[string]schema.Pet   `json:"pets"`
	Diaries map[string]schema.Diary `json:"diaries"`
}

type JSONStore struct {
	filePath string
	mu       sync.RWMutex
	state    fileState
}

func NewJSONStore(filePath string) (*JSONStore, error) {
	s := &JSONStore{
		filePath: filePath,
		state: fileState{
			Pets:    make(map[string]schema.Pet),
			Diaries: make(map[string]schema.Diary),
		},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) SavePet(pet schema.Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putLocked(s, s.state.Pets, pet.ID, pet)
}

func (s *JSONStore) GetPet(id string) (schema.Pet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pet, ok := s.state.Pets[id]
	return pet, ok, nil
}

func (s *JSONStore) ListPets(ownerID string) ([]schema.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pets := make([]schema.Pet, 0)
	for _, pet := range s.state.Pets {
		if pet.OwnerID == ownerID && pet.Active() {
			pets = append(pets, pet)
		}
	}
	sortPets(pets)
	return pets, nil
}

func (s *JSONStore) DeletePet(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pet, ok := s.state.Pets[id]
	if !ok {
		return ErrNotFound
	}
	pet.Status = schema.PetInactive
	pet.UpdatedAt = time.Now().UTC()
	return putLocked(s, s.state.Pets, id, pet)
}

func (s *JSONStore) SaveDiary(diary schema.Diary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putLocked(s, s.state.Diaries, diary.ID, diary)
}

func (s *JSONStore) GetDiary(id string) (schema.Diary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	diary, ok := s.state.Diaries[id]
	return diary, ok, nil
}

func (s *JSONStore) ListDiaries(ownerID, petID string, page, limit int) ([]schema.Diary, int, error) {
	return s.listDiaries(page, limit, sortDiaries, func(d schema.Diary) bool {
		return d.OwnerID == ownerID && (petID == "" || d.PetID == petID)
	})
}

func (s *JSONStore) ListPublicDiaries(page, limit int) ([]schema.Diary, int, error) {
	return s.listDiaries(page, limit, sortPopular, func(d schema.Diary) bool {
		return d.IsPublic
	})
}

func (s *JSONStore) listDiaries(page, limit int, order func([]schema.Diary), keep func(schema.Diary) bool) ([]schema.Diary, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	diaries := make([]schema.Diary, 0)
	for _, diary := range s.state.Diaries {
		if keep(diary) {
			diaries = append(diaries, diary)
		}
	}
	order(diaries)
	return paginate(diaries, page, limit), len(diaries), nil
}

func (s *JSONStore) DeleteDiary(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	diary, ok := s.state.Diaries[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.state.Diaries, id)
	if err := s.persistLocked(); err != nil {
		s.state.Diaries[id] = diary
		return err
	}
	return nil
}

func (s *JSONStore) LikeDiary(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	diary, ok := s.state.Diaries[id]
	if !ok {
		return 0, ErrNotFound
	}
	diary.LikesCount++
	if err := putLocked(s, s.state.Diaries, id, diary); err != nil {
		return 0, err
	}
	return diary.LikesCount, nil
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := utils.Load[fileState](s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if state.Pets == nil {
		state.Pets = make(map[string]schema.Pet)
	}
	if state.Diaries == nil {
		state.Diaries = make(map[string]schema.Diary)
	}
	s.state = state
	return nil
}

func (s *JSONStore) persistLocked() error {
	return utils.Save(s.filePath, s.state)
}

// putLocked stores v under k and persists, restoring the previous entry if the write fails.
func putLocked[K comparable, V any](s *JSONStore, m map[K]V, k K, v V) error {
	prev, had := m[k]
	m[k] = v
	if err := s.persistLocked(); err != nil {
		if had {
			m[k] = prev
		} else {
			delete(m, k)
		}
		return err
	}
	return nil
}

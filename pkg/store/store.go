// Package store persists pets and diaries. Lookups of missing records report (zero, false, nil).
package store

import (
	"errors"
	"sort"

	"petvoice/pkg/schema"
)

var ErrNotFound = errors.New("record not found")

type Store interface {
	SavePet(pet schema.Pet) error
	GetPet(id string) (schema.Pet, bool, error)
	// ListPets returns the owner's active pets, newest first.
	ListPets(ownerID string) ([]schema.Pet, error)
	// DeletePet marks the pet inactive. The record is kept for its diaries.
	DeletePet(id string) error

	SaveDiary(diary schema.Diary) error
	GetDiary(id string) (schema.Diary, bool, error)
	// ListDiaries pages through the owner's diaries, optionally for one pet, newest date first.
	// The int is the total before paging.
	ListDiaries(ownerID, petID string, page, limit int) ([]schema.Diary, int, error)
	// ListPublicDiaries pages through public diaries, most liked first.
	ListPublicDiaries(page, limit int) ([]schema.Diary, int, error)
	DeleteDiary(id string) error
	// LikeDiary increments the like counter and returns the new count.
	LikeDiary(id string) (int, error)

	Close() error
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Page clamps page and limit and returns the matching offset.
func Page(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	return page, limit, (page - 1) * limit
}

func sortPets(pets []schema.Pet) {
	sort.SliceStable(pets, func(i, j int) bool {
		return pets[i].CreatedAt.After(pets[j].CreatedAt)
	})
}

func sortDiaries(diaries []schema.Diary) {
	sort.SliceStable(diaries, func(i, j int) bool {
		if diaries[i].Date != diaries[j].Date {
			return diaries[i].Date > diaries[j].Date
		}
		return diaries[i].CreatedAt.After(diaries[j].CreatedAt)
	})
}

func sortPopular(diaries []schema.Diary) {
	sort.SliceStable(diaries, func(i, j int) bool {
		if diaries[i].LikesCount != diaries[j].LikesCount {
			return diaries[i].LikesCount > diaries[j].LikesCount
		}
		return diaries[i].CreatedAt.After(diaries[j].CreatedAt)
	})
}

func paginate[T any](items []T, page, limit int) []T {
	_, limit, offset := Page(page, limit)
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}

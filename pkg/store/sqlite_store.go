package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"petvoice/pkg/persona"
	"petvoice/pkg/schema"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(filePath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, err
	}
	st := &SQLiteStore{db: db}
	if err := st.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const petColumns = `id, owner_id, name, species, breed, gender, speech_style, user_nickname,
	personality, likes, dislikes, habits, characteristics, family, other_info,
	is_neutered, birth_date, profile_image, allergies, diseases, surgeries, health_notes,
	status, created_at, updated_at`

func (s *SQLiteStore) SavePet(pet schema.Pet) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO pets (`+petColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pet.ID,
		pet.OwnerID,
		pet.Name,
		pet.Species,
		pet.Breed,
		string(pet.Gender),
		pet.SpeechStyle,
		pet.UserNickname,
		pet.Personality,
		pet.Likes,
		pet.Dislikes,
		pet.Habits,
		pet.Characteristics,
		pet.Family,
		pet.OtherInfo,
		nullableBool(pet.IsNeutered),
		pet.BirthDate,
		pet.ProfileImage,
		pet.Allergies,
		pet.Diseases,
		pet.Surgeries,
		pet.HealthNotes,
		string(pet.Status),
		toTS(pet.CreatedAt),
		toTS(pet.UpdatedAt),
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPet(row scanner) (schema.Pet, error) {
	var pet schema.Pet
	var gender, status, createdAt, updatedAt string
	var neutered sql.NullInt64
	err := row.Scan(
		&pet.ID,
		&pet.OwnerID,
		&pet.Name,
		&pet.Species,
		&pet.Breed,
		&gender,
		&pet.SpeechStyle,
		&pet.UserNickname,
		&pet.Personality,
		&pet.Likes,
		&pet.Dislikes,
		&pet.Habits,
		&pet.Characteristics,
		&pet.Family,
		&pet.OtherInfo,
		&neutered,
		&pet.BirthDate,
		&pet.ProfileImage,
		&pet.Allergies,
		&pet.Diseases,
		&pet.Surgeries,
		&pet.HealthNotes,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return schema.Pet{}, err
	}
	pet.Gender = persona.Gender(gender)
	pet.Status = schema.PetStatus(status)
	if neutered.Valid {
		v := intToBool(int(neutered.Int64))
		pet.IsNeutered = &v
	}
	pet.CreatedAt = fromTS(createdAt)
	pet.UpdatedAt = fromTS(updatedAt)
	return pet, nil
}

func (s *SQLiteStore) GetPet(id string) (schema.Pet, bool, error) {
	pet, err := scanPet(s.db.QueryRow(`SELECT `+petColumns+` FROM pets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Pet{}, false, nil
	}
	if err != nil {
		return schema.Pet{}, false, err
	}
	return pet, true, nil
}

func (s *SQLiteStore) ListPets(ownerID string) ([]schema.Pet, error) {
	rows, err := s.db.Query(`
		SELECT `+petColumns+`
		FROM pets
		WHERE owner_id = ? AND status = ?
		ORDER BY created_at DESC`,
		ownerID,
		string(schema.PetActive),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pets := make([]schema.Pet, 0)
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, pet)
	}
	return pets, rows.Err()
}

func (s *SQLiteStore) DeletePet(id string) error {
	result, err := s.db.Exec(`UPDATE pets SET status = ?, updated_at = ? WHERE id = ?`,
		string(schema.PetInactive),
		toTS(time.Now()),
		id,
	)
	return affected(result, err)
}

const diaryColumns = `id, owner_id, pet_id, title, date, weather, weather_icon, temperature,
	user_content, ai_content, ai_origin, is_public, likes_count, status, created_at, updated_at`

func (s *SQLiteStore) SaveDiary(diary schema.Diary) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO diaries (`+diaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		diary.ID,
		diary.OwnerID,
		diary.PetID,
		diary.Title,
		diary.Date,
		diary.Weather,
		diary.WeatherIcon,
		diary.Temperature,
		diary.UserContent,
		diary.AIContent,
		diary.AIOrigin,
		boolToInt(diary.IsPublic),
		diary.LikesCount,
		string(diary.Status),
		toTS(diary.CreatedAt),
		toTS(diary.UpdatedAt),
	)
	return err
}

func scanDiary(row scanner) (schema.Diary, error) {
	var diary schema.Diary
	var isPublic int
	var status, createdAt, updatedAt string
	err := row.Scan(
		&diary.ID,
		&diary.OwnerID,
		&diary.PetID,
		&diary.Title,
		&diary.Date,
		&diary.Weather,
		&diary.WeatherIcon,
		&diary.Temperature,
		&diary.UserContent,
		&diary.AIContent,
		&diary.AIOrigin,
		&isPublic,
		&diary.LikesCount,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return schema.Diary{}, err
	}
	diary.IsPublic = intToBool(isPublic)
	diary.Status = schema.DiaryStatus(status)
	diary.CreatedAt = fromTS(createdAt)
	diary.UpdatedAt = fromTS(updatedAt)
	return diary, nil
}

func (s *SQLiteStore) GetDiary(id string) (schema.Diary, bool, error) {
	diary, err := scanDiary(s.db.QueryRow(`SELECT `+diaryColumns+` FROM diaries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Diary{}, false, nil
	}
	if err != nil {
		return schema.Diary{}, false, err
	}
	return diary, true, nil
}

func (s *SQLiteStore) ListDiaries(ownerID, petID string, page, limit int) ([]schema.Diary, int, error) {
	return s.listDiaries(page, limit,
		`owner_id = ? AND (? = '' OR pet_id = ?)`,
		`date DESC, created_at DESC`,
		ownerID, petID, petID,
	)
}

func (s *SQLiteStore) ListPublicDiaries(page, limit int) ([]schema.Diary, int, error) {
	return s.listDiaries(page, limit, `is_public = 1`, `likes_count DESC, created_at DESC`)
}

func (s *SQLiteStore) listDiaries(page, limit int, where, order string, args ...any) ([]schema.Diary, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM diaries WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	_, limit, offset := Page(page, limit)
	rows, err := s.db.Query(`
		SELECT `+diaryColumns+`
		FROM diaries
		WHERE `+where+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	diaries := make([]schema.Diary, 0)
	for rows.Next() {
		diary, err := scanDiary(rows)
		if err != nil {
			return nil, 0, err
		}
		diaries = append(diaries, diary)
	}
	return diaries, total, rows.Err()
}

func (s *SQLiteStore) DeleteDiary(id string) error {
	return affected(s.db.Exec(`DELETE FROM diaries WHERE id = ?`, id))
}

func (s *SQLiteStore) LikeDiary(id string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		UPDATE diaries SET likes_count = likes_count + 1
		WHERE id = ?
		RETURNING likes_count`,
		id,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return count, err
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		PRAGMA journal_mode=WAL;
		CREATE TABLE IF NOT EXISTS pets (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			species TEXT NOT NULL,
			breed TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT '',
			speech_style TEXT NOT NULL DEFAULT '',
			user_nickname TEXT NOT NULL DEFAULT '',
			personality TEXT NOT NULL DEFAULT '',
			likes TEXT NOT NULL DEFAULT '',
			dislikes TEXT NOT NULL DEFAULT '',
			habits TEXT NOT NULL DEFAULT '',
			characteristics TEXT NOT NULL DEFAULT '',
			family TEXT NOT NULL DEFAULT '',
			other_info TEXT NOT NULL DEFAULT '',
			is_neutered INTEGER,
			birth_date TEXT NOT NULL DEFAULT '',
			profile_image TEXT NOT NULL DEFAULT '',
			allergies TEXT NOT NULL DEFAULT '',
			diseases TEXT NOT NULL DEFAULT '',
			surgeries TEXT NOT NULL DEFAULT '',
			health_notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pets_owner ON pets(owner_id, status);
		CREATE TABLE IF NOT EXISTS diaries (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			pet_id TEXT NOT NULL,
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			weather TEXT NOT NULL DEFAULT '',
			weather_icon TEXT NOT NULL DEFAULT '',
			temperature TEXT NOT NULL DEFAULT '',
			user_content TEXT NOT NULL,
			ai_content TEXT NOT NULL,
			ai_origin TEXT NOT NULL DEFAULT '',
			is_public INTEGER NOT NULL DEFAULT 0,
			likes_count INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_diaries_owner_date ON diaries(owner_id, date);
		CREATE INDEX IF NOT EXISTS idx_diaries_public ON diaries(is_public, likes_count);
	`)
	return err
}

func affected(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// tsLayout is fixed width so stored timestamps sort correctly as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func toTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func fromTS(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableBool(v *bool) any {
	if v == nil {
		return nil
	}
	return boolToInt(*v)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func intToBool(v int) bool {
	return v != 0
}

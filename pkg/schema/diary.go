package schema

import "time"

type DiaryStatus string

const (
	DiaryDraft     DiaryStatus = "draft"
	DiaryPublished DiaryStatus = "published"
)

// DateLayout is the format of Diary.Date.
const DateLayout = "2006-01-02"

type Diary struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	PetID   string `json:"petId"`

	Title       string `json:"title"`
	Date        string `json:"date"`
	Weather     string `json:"weather,omitempty"`
	WeatherIcon string `json:"weatherIcon,omitempty"`
	Temperature string `json:"temperature,omitempty"`

	UserContent string `json:"userContent"`
	AIContent   string `json:"aiContent"`
	AIOrigin    string `json:"aiOrigin"`

	IsPublic   bool        `json:"isPublic"`
	LikesCount int         `json:"likesCount"`
	Status     DiaryStatus `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is the caller of one request. It is never stored globally.
type Identity struct {
	UserID   string
	Nickname string
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

var roleRank = map[Role]int{
	RoleUser:      1,
	RoleAdmin:     2,
	RoleSuperuser: 3,
}

// AtLeast reports whether r sits at or above min in the order
// user < admin < superuser. Unknown roles rank below everything.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

type User struct {
	UUID         uuid.UUID      `gorm:"type:uuid;primaryKey"          json:"uuid"`
	Name         string         `gorm:"size:50;uniqueIndex;not null"  json:"name"`
	Email        string         `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null"                      json:"-"`
	Role         Role           `gorm:"not null;default:user"         json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index"                         json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// RefreshToken is keyed by user so each user holds at most one live
// session; a new login or refresh overwrites the previous row.
type RefreshToken struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Token     string    `gorm:"not null"             json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null"             json:"expires_at"`
}

type Article struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"size:100;not null"        json:"title"`
	Text      string    `gorm:"size:10000;not null"      json:"text"`
	AuthorID  uuid.UUID `gorm:"type:uuid;index;not null" json:"author_id"`
	Rating    float64   `gorm:"not null;default:0"       json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
